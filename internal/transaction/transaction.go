// Package transaction exposes a read-only view over a processor transaction
// record as returned by the transaction lookup endpoint.
package transaction

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Status is the processor's transactionStatus value.
type Status string

// Documented processor transaction states.
const (
	StatusAuthOnlyPending   Status = "authOnlyPending"
	StatusAuthorizedPending Status = "authorizedPending"
	StatusPending           Status = "pending"
	StatusAuthOnly          Status = "authOnly"
	StatusAuthorized        Status = "authorized"
	StatusSettled           Status = "settled"
	StatusDeclined          Status = "declined"
	StatusFraudReject       Status = "fraudReject"
	StatusVoidPending       Status = "voidPending"
	StatusVoided            Status = "voided"
	StatusError             Status = "error"
)

// SuccessfulStatuses are the states in which a process call counts as a success.
var SuccessfulStatuses = []Status{
	StatusAuthOnlyPending,
	StatusAuthorizedPending,
	StatusPending,
	StatusAuthOnly,
	StatusSettled,
}

// Successful reports whether s is one of SuccessfulStatuses.
func (s Status) Successful() bool {
	return slices.Contains(SuccessfulStatuses, s)
}

// Transaction wraps the raw record. Data is never modified.
type Transaction struct {
	Data map[string]any
}

// New wraps data. A nil map is treated as an empty record.
func New(data map[string]any) *Transaction {
	if data == nil {
		data = map[string]any{}
	}
	return &Transaction{Data: data}
}

// Status returns the transactionStatus field, or "" when it is missing.
func (t *Transaction) Status() Status {
	s, _ := t.Data["transactionStatus"].(string)
	return Status(s)
}

// Amount returns the amount field as an exact decimal. Missing or
// unparseable amounts yield zero.
func (t *Transaction) Amount() decimal.Decimal {
	var raw string
	switch v := t.Data["amount"].(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = v
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case nil:
		return decimal.Zero
	default:
		raw = fmt.Sprint(v)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ID returns the processor transaction id.
func (t *Transaction) ID() string {
	id, _ := t.Data["id"].(string)
	return id
}
