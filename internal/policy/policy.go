// Package policy decides whether a processor payload counts as a successful
// outcome for a given action. Decisions are govaluate expressions evaluated
// against the top-level fields of the payload.
package policy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/yourorg/nexio-gateway/internal/transaction"
)

// DefaultProcessRule is the success rule for the "process" action. It accepts
// exactly transaction.SuccessfulStatuses.
var DefaultProcessRule = statusInRule(transaction.SuccessfulStatuses)

func statusInRule(statuses []transaction.Status) string {
	quoted := make([]string, len(statuses))
	for i, s := range statuses {
		quoted[i] = "'" + string(s) + "'"
	}
	return "transactionStatus IN (" + strings.Join(quoted, ", ") + ")"
}

// Rule binds a boolean expression to the action it decides.
type Rule struct {
	ID         string
	Action     string
	Expression string
}

// StatusPolicy evaluates compiled success rules. Actions without a rule
// succeed whenever the processor answered with a 2xx.
type StatusPolicy struct {
	rules map[string]compiledRule
}

type compiledRule struct {
	id   string
	expr *govaluate.EvaluableExpression
}

// DefaultRules returns the rules matching the processor's documented semantics.
func DefaultRules() []Rule {
	return []Rule{
		{ID: "process_status", Action: "process", Expression: DefaultProcessRule},
	}
}

// NewStatusPolicy compiles rules. A later rule for the same action replaces an earlier one.
func NewStatusPolicy(rules []Rule) (*StatusPolicy, error) {
	p := &StatusPolicy{rules: make(map[string]compiledRule, len(rules))}
	for _, r := range rules {
		if strings.TrimSpace(r.Expression) == "" {
			return nil, fmt.Errorf("policy rule ID '%s' has an empty expression", r.ID)
		}
		if r.Action == "" {
			return nil, fmt.Errorf("policy rule ID '%s' has no action", r.ID)
		}
		expr, err := govaluate.NewEvaluableExpression(r.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule ID '%s': %w", r.ID, err)
		}
		p.rules[r.Action] = compiledRule{id: r.ID, expr: expr}
	}
	return p, nil
}

// Default returns a policy built from DefaultRules.
func Default() *StatusPolicy {
	p, err := NewStatusPolicy(DefaultRules())
	if err != nil {
		panic(err) // DefaultRules are constant
	}
	return p
}

// Success reports whether payload is a success for action. An evaluation
// error is returned alongside false.
func (p *StatusPolicy) Success(action string, payload map[string]any) (bool, error) {
	rule, ok := p.rules[action]
	if !ok {
		return true, nil
	}
	result, err := rule.expr.Eval(payloadParameters(payload))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate rule ID '%s': %w", rule.id, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("rule ID '%s' did not evaluate to a boolean (got %T)", rule.id, result)
	}
	return b, nil
}

// payloadParameters exposes payload fields to govaluate. Missing fields read as
// the empty string so rules never fail on absent keys.
type payloadParameters map[string]any

func (pp payloadParameters) Get(name string) (interface{}, error) {
	v, ok := pp[name]
	if !ok || v == nil {
		return "", nil
	}
	switch val := v.(type) {
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f, nil
		}
		return val.String(), nil
	case string, bool, float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	default:
		return fmt.Sprint(val), nil
	}
}
