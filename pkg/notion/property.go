package notion

import (
	"strconv"
	"strings"
)

// Kind is the type tag of a property value.
type Kind string

// Supported property kinds.
const (
	KindTitle       Kind = "title"
	KindRichText    Kind = "rich_text"
	KindNumber      Kind = "number"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multi_select"
	KindDate        Kind = "date"
	KindCheckbox    Kind = "checkbox"
	KindURL         Kind = "url"
	KindEmail       Kind = "email"
	KindPhoneNumber Kind = "phone_number"
	KindStatus      Kind = "status"
)

// Kinds returns every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindTitle,
		KindRichText,
		KindNumber,
		KindSelect,
		KindMultiSelect,
		KindDate,
		KindCheckbox,
		KindURL,
		KindEmail,
		KindPhoneNumber,
		KindStatus,
	}
}

// Supported reports whether the codec can encode and decode k.
func (k Kind) Supported() bool {
	_, ok := codecs[k]

	return ok
}

// DateRange is the payload of a date property. Start and End are ISO-8601
// dates or date-times; End is empty for a single date.
type DateRange struct {
	Start string `json:"start"         yaml:"start"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// Value is a single typed property value. The zero Value is invalid; build
// values with the constructors in this file or obtain them from Decode.
type Value struct {
	kind    Kind
	text    string
	number  *float64
	tags    []string
	date    *DateRange
	checked bool
}

// Title returns a title value.
func Title(s string) Value { return Value{kind: KindTitle, text: s} }

// RichText returns a rich text value.
func RichText(s string) Value { return Value{kind: KindRichText, text: s} }

// Number returns a number value.
func Number(n float64) Value { return Value{kind: KindNumber, number: &n} }

// NullNumber returns an empty number value.
func NullNumber() Value { return Value{kind: KindNumber} }

// Select returns a select value. An empty name clears the option.
func Select(name string) Value { return Value{kind: KindSelect, text: name} }

// Status returns a status value. An empty name clears the status.
func Status(name string) Value { return Value{kind: KindStatus, text: name} }

// MultiSelect returns a multi-select value. Tag order is preserved.
func MultiSelect(tags ...string) Value {
	v := Value{kind: KindMultiSelect}
	if len(tags) > 0 {
		v.tags = append([]string(nil), tags...)
	}

	return v
}

// Date returns a single-date value.
func Date(start string) Value {
	return Value{kind: KindDate, date: &DateRange{Start: start}}
}

// DateSpan returns a date range value.
func DateSpan(start, end string) Value {
	return Value{kind: KindDate, date: &DateRange{Start: start, End: end}}
}

// NullDate returns an empty date value.
func NullDate() Value { return Value{kind: KindDate} }

// Checkbox returns a checkbox value.
func Checkbox(checked bool) Value { return Value{kind: KindCheckbox, checked: checked} }

// URL returns a url value. An empty string clears it.
func URL(s string) Value { return Value{kind: KindURL, text: s} }

// Email returns an email value. An empty string clears it.
func Email(s string) Value { return Value{kind: KindEmail, text: s} }

// PhoneNumber returns a phone number value. An empty string clears it.
func PhoneNumber(s string) Value { return Value{kind: KindPhoneNumber, text: s} }

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// Text returns the string payload of text-like kinds.
func (v Value) Text() string { return v.text }

// Number returns the numeric payload and whether it is set.
func (v Value) Number() (float64, bool) {
	if v.number == nil {
		return 0, false
	}

	return *v.number, true
}

// Tags returns a copy of the multi-select tags.
func (v Value) Tags() []string {
	if v.tags == nil {
		return nil
	}

	return append([]string(nil), v.tags...)
}

// Date returns a copy of the date payload, or nil when empty.
func (v Value) Date() *DateRange {
	if v.date == nil {
		return nil
	}

	d := *v.date

	return &d
}

// Checked returns the checkbox payload.
func (v Value) Checked() bool { return v.checked }

// IsEmpty reports whether the value carries no payload.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNumber:
		return v.number == nil
	case KindMultiSelect:
		return len(v.tags) == 0
	case KindDate:
		return v.date == nil
	case KindCheckbox:
		return false
	default:
		return v.text == ""
	}
}

// Interface returns the payload as a plain Go value: string, float64, []string,
// *DateRange, bool, or nil for an empty number or date.
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		if v.number == nil {
			return nil
		}

		return *v.number
	case KindMultiSelect:
		return v.Tags()
	case KindDate:
		if v.date == nil {
			return nil
		}

		return v.Date()
	case KindCheckbox:
		return v.checked
	default:
		return v.text
	}
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		if v.number == nil {
			return ""
		}

		return strconv.FormatFloat(*v.number, 'f', -1, 64)
	case KindMultiSelect:
		return strings.Join(v.tags, ", ")
	case KindDate:
		if v.date == nil {
			return ""
		}

		if v.date.End != "" {
			return v.date.Start + " → " + v.date.End
		}

		return v.date.Start
	case KindCheckbox:
		return strconv.FormatBool(v.checked)
	default:
		return v.text
	}
}
