package notion

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Static errors for err113 compliance.
var (
	ErrInvalidFilter    = errors.New("filter needs a property, a kind and a condition")
	ErrInvalidRawFilter = errors.New("raw filter is not valid JSON")
)

// Filter is a database query filter. A Filter is exactly one of: a leaf
// condition on a property, an And/Or compound, or a raw JSON filter passed
// through unchanged.
type Filter struct {
	Property  string
	Kind      Kind
	Condition string
	// Value is the comparand. Nil is sent as true, which is what unary
	// conditions such as is_empty expect.
	Value any

	And []Filter
	Or  []Filter

	Raw json.RawMessage
}

// Where builds a leaf filter, e.g. Where("Status", KindSelect, "equals", "Done").
func Where(property string, kind Kind, condition string, value any) Filter {
	return Filter{Property: property, Kind: kind, Condition: condition, Value: value}
}

// And combines filters with a logical and.
func And(filters ...Filter) Filter { return Filter{And: filters} }

// Or combines filters with a logical or.
func Or(filters ...Filter) Filter { return Filter{Or: filters} }

// RawFilter wraps a caller-supplied JSON filter.
func RawFilter(raw json.RawMessage) Filter { return Filter{Raw: raw} }

// MarshalJSON implements json.Marshaler.
func (f Filter) MarshalJSON() ([]byte, error) {
	switch {
	case len(f.Raw) > 0:
		if !json.Valid(f.Raw) {
			return nil, ErrInvalidRawFilter
		}

		return f.Raw, nil
	case len(f.And) > 0:
		return json.Marshal(map[string][]Filter{"and": f.And})
	case len(f.Or) > 0:
		return json.Marshal(map[string][]Filter{"or": f.Or})
	}

	if f.Property == "" || f.Kind == "" || f.Condition == "" {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidFilter, f)
	}

	value := f.Value
	if value == nil {
		value = true
	}

	return json.Marshal(map[string]any{
		"property":     f.Property,
		string(f.Kind): map[string]any{f.Condition: value},
	})
}

// SortDirection orders query results.
type SortDirection string

const (
	Ascending  SortDirection = "ascending"
	Descending SortDirection = "descending"
)

// Sort orders query results by a property or by a page timestamp
// ("created_time" or "last_edited_time").
type Sort struct {
	Property  string        `json:"property,omitempty"`
	Timestamp string        `json:"timestamp,omitempty"`
	Direction SortDirection `json:"direction"`
}

// SortBy returns an ascending or descending sort on a property.
func SortBy(property string, direction SortDirection) Sort {
	return Sort{Property: property, Direction: direction}
}
