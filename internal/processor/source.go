package processor

import (
	"fmt"

	"github.com/yourorg/nexio-gateway/internal/adapter"
	"github.com/yourorg/nexio-gateway/internal/card"
)

// Source types accepted in SourceSpec.Type.
const (
	SourceToken         = "token"
	SourceStoredCard    = "stored_card"
	SourceEncryptedCard = "encrypted_card"
)

// SourceSpec is the wire form of a payment source. Type selects which of the
// other fields is read.
type SourceSpec struct {
	Type          string              `json:"type"`
	Token         string              `json:"token,omitempty"`
	StoredCard    *adapter.StoredCard `json:"stored_card,omitempty"`
	EncryptedCard *card.EncryptedCard `json:"encrypted_card,omitempty"`
}

// PaymentSource converts the spec. A nil spec is no source at all.
func (s *SourceSpec) PaymentSource() (adapter.PaymentSource, error) {
	if s == nil {
		return nil, nil
	}
	switch s.Type {
	case SourceToken:
		if s.Token == "" {
			return nil, fmt.Errorf("%w: token is empty", ErrInvalidSource)
		}
		return adapter.Token(s.Token), nil
	case SourceStoredCard:
		if s.StoredCard == nil || s.StoredCard.ProfileID == "" {
			return nil, fmt.Errorf("%w: stored_card needs a profile_id", ErrInvalidSource)
		}
		return *s.StoredCard, nil
	case SourceEncryptedCard:
		if s.EncryptedCard == nil {
			return nil, fmt.Errorf("%w: encrypted_card is missing", ErrInvalidSource)
		}
		return s.EncryptedCard, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidSource, s.Type)
	}
}
