package models

import (
	"fmt"
	"strings"
)

// Filter attributes accepted by list and count.
const (
	FilterName        = "name"
	FilterDescription = "description"
	FilterType        = "type"
	FilterIsEnabled   = "isEnabled"
	FilterID          = "id"
)

// Filter operators.
const (
	OpEquals     = "eq"
	OpStartsWith = "sw"
	OpEndsWith   = "ew"
	OpContains   = "co"
)

// Expression is one "attribute operator value" term. For isEnabled the value
// is normalized to "1" or "0".
type Expression struct {
	Attribute string
	Operator  string
	Value     string
}

// ParseFilter parses "attr op value [and attr op value]...". Values may be
// double quoted to include spaces. A blank filter yields no expressions.
func ParseFilter(filter string) ([]Expression, error) {
	if strings.TrimSpace(filter) == "" {
		return nil, nil
	}
	tokens, err := tokenize(filter)
	if err != nil {
		return nil, ErrInvalidFilter(err.Error())
	}

	var exprs []Expression
	for i := 0; i < len(tokens); {
		if len(tokens)-i < 3 {
			return nil, ErrInvalidFilter(fmt.Sprintf("incomplete expression in filter: %s", filter))
		}
		expr := Expression{Attribute: tokens[i], Operator: strings.ToLower(tokens[i+1]), Value: tokens[i+2]}
		if err := expr.normalize(); err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		i += 3
		if i == len(tokens) {
			break
		}
		if !strings.EqualFold(tokens[i], "and") {
			return nil, ErrInvalidFilter(fmt.Sprintf("unsupported conjunction %q", tokens[i]))
		}
		i++
		if i == len(tokens) {
			return nil, ErrInvalidFilter("filter ends with a conjunction")
		}
	}
	return exprs, nil
}

func (e *Expression) normalize() error {
	switch e.Attribute {
	case FilterName, FilterDescription, FilterType, FilterID:
	case FilterIsEnabled:
		switch strings.ToLower(e.Value) {
		case "true":
			e.Value = "1"
		case "false":
			e.Value = "0"
		default:
			return ErrInvalidFilter(fmt.Sprintf(
				"invalid value: %s is passed for 'isEnabled' attribute in the filter. It should be 'true' or 'false'", e.Value))
		}
	default:
		return ErrInvalidFilter(fmt.Sprintf("invalid filter attribute: %s", e.Attribute))
	}
	switch e.Operator {
	case OpEquals, OpStartsWith, OpEndsWith, OpContains:
	default:
		return ErrInvalidFilter(fmt.Sprintf("invalid filter operator: %s", e.Operator))
	}
	return nil
}

// Matches evaluates the expression against p.
func (e Expression) Matches(p *Provider) bool {
	var field string
	switch e.Attribute {
	case FilterName:
		field = p.Name
	case FilterDescription:
		field = p.Description
	case FilterType:
		field = p.Type
	case FilterID:
		field = p.UUID
	case FilterIsEnabled:
		field = BoolFlag(p.Enabled)
	}
	switch e.Operator {
	case OpEquals:
		return field == e.Value
	case OpStartsWith:
		return strings.HasPrefix(field, e.Value)
	case OpEndsWith:
		return strings.HasSuffix(field, e.Value)
	case OpContains:
		return strings.Contains(field, e.Value)
	}
	return false
}

// MatchesAll reports whether p satisfies every expression.
func MatchesAll(exprs []Expression, p *Provider) bool {
	for _, e := range exprs {
		if !e.Matches(p) {
			return false
		}
	}
	return true
}

// BoolFlag encodes a flag the way the relational schema stores it.
func BoolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func tokenize(s string) ([]string, error) {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		quoted  bool
	)
	flush := func() {
		if cur.Len() > 0 || quoted {
			tokens = append(tokens, cur.String())
		}
		cur.Reset()
		quoted = false
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			quoted = true
		case r == ' ' && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in filter: %s", s)
	}
	flush()
	return tokens, nil
}
