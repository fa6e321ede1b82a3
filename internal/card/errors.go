package card

import (
	"strings"
)

// FieldError is a single caller-correctable problem with a card field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + " " + e.Message
}

// ValidationErrors collects the field errors of one card. It satisfies error so
// callers can wrap it, but Validate returns it as data.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.String())
	}
	return strings.Join(parts, ", ")
}

// On returns the messages recorded for field.
func (v ValidationErrors) On(field string) []string {
	var msgs []string
	for _, fe := range v {
		if fe.Field == field {
			msgs = append(msgs, fe.Message)
		}
	}
	return msgs
}
