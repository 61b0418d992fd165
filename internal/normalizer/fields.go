package normalizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// stringField returns the trimmed string value for key, or "" when the key
// is absent, null, or not a string. Model output is untrusted; a wrongly
// typed field is treated as missing rather than failing the candidate.
func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// amountField coerces the value under key to a non-negative decimal with
// two-decimal precision. The model may emit a JSON number or a numeric
// string; anything else, and any negative value, fails with ErrBadAmount.
func amountField(m map[string]any, key string) (decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.Zero, fmt.Errorf("%w: field %q is missing", ErrBadAmount, key)
	}

	var d decimal.Decimal
	switch val := v.(type) {
	case float64:
		d = decimal.NewFromFloat(val)
	case string:
		parsed, err := decimal.NewFromString(strings.TrimSpace(strings.TrimPrefix(val, "$")))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q is not numeric", ErrBadAmount, val)
		}
		d = parsed
	case json.Number:
		parsed, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q is not numeric", ErrBadAmount, val)
		}
		d = parsed
	default:
		return decimal.Zero, fmt.Errorf("%w: field %q has type %T, want number", ErrBadAmount, key, v)
	}

	// Negative amounts are dropped, not negated: silently flipping the sign
	// would mask sign errors in the natural-language parse.
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount %s is negative", ErrBadAmount, d)
	}

	return d.Round(2), nil
}

// dateField parses an ISO date under key, falling back to the given date
// when absent or unparsable.
func dateField(m map[string]any, key string, fallback civil.Date) civil.Date {
	s := stringField(m, key)
	if s == "" {
		return fallback
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return fallback
	}
	return d
}
