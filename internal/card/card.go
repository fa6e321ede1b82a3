// Package card holds the encrypted card value object produced by a merchant's
// own card-capture form.
package card

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Brand values accepted by the processor for encrypted cards.
const (
	BrandAmex       = "amex"
	BrandDiscover   = "discover"
	BrandJCB        = "jcb"
	BrandMastercard = "mastercard"
	BrandVisa       = "visa"
)

// AllowedBrands lists the brands accepted for encrypted cards, in the order the
// processor documents them.
var AllowedBrands = []string{BrandAmex, BrandDiscover, BrandJCB, BrandMastercard, BrandVisa}

// EncryptedCard is a card whose number was encrypted client-side. It is built by
// the host per checkout attempt and never mutated by the gateway.
type EncryptedCard struct {
	Name              string `json:"name"`
	Month             int    `json:"month"`
	Year              int    `json:"year"`
	Brand             string `json:"brand"`
	EncryptedNumber   string `json:"encrypted_number"`
	VerificationValue string `json:"verification_value"`
	OwnForm           bool   `json:"own_form"`
	OneTimeToken      string `json:"one_time_token"`
}

// SourceType identifies the card as a payment source.
func (c *EncryptedCard) SourceType() string {
	return "encrypted_card"
}

// ShortYear returns the two-digit expiration year. ok is false when no year is set.
func (c *EncryptedCard) ShortYear() (year int, ok bool) {
	if c.Year == 0 {
		return 0, false
	}
	return c.Year % 100, true
}

// Validate reports brand and encrypted number problems. It never fails itself;
// an empty result means the card is acceptable.
func (c *EncryptedCard) Validate() ValidationErrors {
	var errs ValidationErrors

	brand := strings.TrimSpace(c.Brand)
	switch {
	case brand == "":
		if c.OwnForm {
			errs = append(errs, FieldError{Field: "brand", Message: "is required"})
		}
	case !slices.Contains(AllowedBrands, brand):
		errs = append(errs, FieldError{Field: "brand", Message: "is invalid"})
	}

	if strings.TrimSpace(c.EncryptedNumber) == "" {
		errs = append(errs, FieldError{Field: "encrypted_number", Message: "is required"})
	}

	return errs
}

// Valid is shorthand for an empty Validate result.
func (c *EncryptedCard) Valid() bool {
	return len(c.Validate()) == 0
}
