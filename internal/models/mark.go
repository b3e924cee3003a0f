package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Mark is a nullable score. It decodes JSON numbers, numeric strings, null
// and the empty string (absent), and encodes as a bare JSON number.
type Mark struct {
	decimal.NullDecimal
}

// NewMark returns a present mark.
func NewMark(v float64) Mark {
	return Mark{decimal.NullDecimal{Decimal: decimal.NewFromFloat(v), Valid: true}}
}

// ParseMark parses a user-entered value; blank input yields an absent mark.
func ParseMark(raw string) (Mark, error) {
	raw = string(bytes.TrimSpace([]byte(raw)))
	if raw == "" {
		return Mark{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Mark{}, fmt.Errorf("invalid mark %q: %w", raw, err)
	}
	return Mark{decimal.NullDecimal{Decimal: d, Valid: true}}, nil
}

// Present reports whether a value was entered.
func (m Mark) Present() bool { return m.Valid }

// Value returns the mark, counting an absent one as zero.
func (m Mark) Value() decimal.Decimal {
	if !m.Valid {
		return decimal.Zero
	}
	return m.Decimal
}

// String renders the mark, or "" when absent.
func (m Mark) String() string {
	if !m.Valid {
		return ""
	}
	return m.Decimal.String()
}

// MarshalJSON implements json.Marshaler.
func (m Mark) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return []byte(m.Decimal.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mark) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		*m = Mark{}
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return fmt.Errorf("decode mark: %w", err)
	}
	*m = Mark{decimal.NullDecimal{Decimal: d, Valid: true}}
	return nil
}
