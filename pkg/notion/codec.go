package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fivetwenty-io/notion-client/internal/constants"
)

type codec struct {
	encode func(Value) (any, error)
	decode func(json.RawMessage) (Value, error)
}

// codecs must hold an entry for every kind returned by Kinds.
var codecs = map[Kind]codec{
	KindTitle:       richTextCodec(Title),
	KindRichText:    richTextCodec(RichText),
	KindNumber:      numberCodec(),
	KindSelect:      optionCodec(Select),
	KindStatus:      optionCodec(Status),
	KindMultiSelect: multiSelectCodec(),
	KindDate:        dateCodec(),
	KindCheckbox:    checkboxCodec(),
	KindURL:         stringCodec(URL),
	KindEmail:       stringCodec(Email),
	KindPhoneNumber: stringCodec(PhoneNumber),
}

type textContent struct {
	Content string `json:"content"`
}

type richTextItem struct {
	Type      string       `json:"type,omitempty"`
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type option struct {
	Name string `json:"name"`
}

type datePayload struct {
	Start string  `json:"start"`
	End   *string `json:"end,omitempty"`
}

// Encode converts v into its wire object, e.g. {"select":{"name":"Done"}}.
func Encode(v Value) (json.RawMessage, error) {
	c, ok := codecs[v.kind]
	if !ok {
		return nil, unsupportedKind(string(v.kind))
	}

	payload, err := c.encode(v)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(map[string]any{string(v.kind): payload})
	if err != nil {
		return nil, malformed("encoding %s value: %v", v.kind, err)
	}

	return data, nil
}

// Decode converts a wire object back into a Value. Both the request shape
// ({"title":[...]}) and the response shape ({"id":..,"type":"title","title":[...]})
// are accepted.
func Decode(raw json.RawMessage) (Value, error) {
	var obj map[string]json.RawMessage

	err := json.Unmarshal(raw, &obj)
	if err != nil {
		return Value{}, malformed("property is not a JSON object: %v", err)
	}

	tag, payload, err := splitTag(obj)
	if err != nil {
		return Value{}, err
	}

	c, ok := codecs[Kind(tag)]
	if !ok {
		return Value{}, unsupportedKind(tag)
	}

	return c.decode(payload)
}

// EncodeProperties encodes every value in props. The first failure aborts the
// whole map and names the offending property.
func EncodeProperties(props map[string]Value) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(props))

	for _, name := range sortedNames(props) {
		data, err := Encode(props[name])
		if err != nil {
			return nil, withProperty(err, name)
		}

		out[name] = data
	}

	return out, nil
}

// DecodeProperties decodes a page's property map.
func DecodeProperties(raw map[string]json.RawMessage) (map[string]Value, error) {
	out := make(map[string]Value, len(raw))

	for _, name := range sortedNames(raw) {
		v, err := Decode(raw[name])
		if err != nil {
			return nil, withProperty(err, name)
		}

		out[name] = v
	}

	return out, nil
}

func splitTag(obj map[string]json.RawMessage) (string, json.RawMessage, error) {
	if rawType, ok := obj["type"]; ok {
		var tag string

		err := json.Unmarshal(rawType, &tag)
		if err != nil || tag == "" {
			return "", nil, malformed("property type tag is not a string")
		}

		payload, ok := obj[tag]
		if !ok {
			payload = json.RawMessage("null")
		}

		return tag, payload, nil
	}

	var keys []string

	for k := range obj {
		if k != "id" {
			keys = append(keys, k)
		}
	}

	if len(keys) != 1 {
		sort.Strings(keys)

		return "", nil, malformed("expected exactly one kind tag, got [%s]", strings.Join(keys, ", "))
	}

	return keys[0], obj[keys[0]], nil
}

func richTextCodec(build func(string) Value) codec {
	return codec{
		encode: func(v Value) (any, error) {
			return chunkText(v.text), nil
		},
		decode: func(raw json.RawMessage) (Value, error) {
			var items []richTextItem

			err := json.Unmarshal(raw, &items)
			if err != nil {
				return Value{}, malformed("rich text payload: %v", err)
			}

			return build(plainText(items)), nil
		},
	}
}

// chunkText splits s into text items within the service's per-item limit.
func chunkText(s string) []richTextItem {
	items := []richTextItem{}
	runes := []rune(s)

	for len(runes) > 0 {
		n := min(len(runes), constants.MaxRichTextContentLength)
		items = append(items, richTextItem{Text: &textContent{Content: string(runes[:n])}})
		runes = runes[n:]
	}

	return items
}

func numberCodec() codec {
	return codec{
		encode: func(v Value) (any, error) {
			if v.number == nil {
				return nil, nil
			}

			return *v.number, nil
		},
		decode: func(raw json.RawMessage) (Value, error) {
			var n *float64

			err := json.Unmarshal(raw, &n)
			if err != nil {
				return Value{}, malformed("number payload: %v", err)
			}

			if n == nil {
				return NullNumber(), nil
			}

			return Number(*n), nil
		},
	}
}

func optionCodec(build func(string) Value) codec {
	return codec{
		encode: func(v Value) (any, error) {
			if v.text == "" {
				return nil, nil
			}

			return option{Name: v.text}, nil
		},
		decode: func(raw json.RawMessage) (Value, error) {
			var opt *option

			err := json.Unmarshal(raw, &opt)
			if err != nil {
				return Value{}, malformed("option payload: %v", err)
			}

			if opt == nil {
				return build(""), nil
			}

			return build(opt.Name), nil
		},
	}
}

func multiSelectCodec() codec {
	return codec{
		encode: func(v Value) (any, error) {
			err := checkDuplicateTags(v.tags)
			if err != nil {
				return nil, err
			}

			opts := make([]option, 0, len(v.tags))
			for _, tag := range v.tags {
				opts = append(opts, option{Name: tag})
			}

			return opts, nil
		},
		decode: func(raw json.RawMessage) (Value, error) {
			var opts []option

			err := json.Unmarshal(raw, &opts)
			if err != nil {
				return Value{}, malformed("multi-select payload: %v", err)
			}

			tags := make([]string, 0, len(opts))
			for _, opt := range opts {
				tags = append(tags, opt.Name)
			}

			err = checkDuplicateTags(tags)
			if err != nil {
				return Value{}, err
			}

			return MultiSelect(tags...), nil
		},
	}
}

func checkDuplicateTags(tags []string) error {
	seen := make(map[string]struct{}, len(tags))

	for _, tag := range tags {
		if _, dup := seen[tag]; dup {
			return malformed("duplicate multi-select tag %q", tag)
		}

		seen[tag] = struct{}{}
	}

	return nil
}

func dateCodec() codec {
	return codec{
		encode: func(v Value) (any, error) {
			if v.date == nil {
				return nil, nil
			}

			p := datePayload{Start: v.date.Start}
			if v.date.End != "" {
				end := v.date.End
				p.End = &end
			}

			return p, nil
		},
		decode: func(raw json.RawMessage) (Value, error) {
			var p *datePayload

			err := json.Unmarshal(raw, &p)
			if err != nil {
				return Value{}, malformed("date payload: %v", err)
			}

			if p == nil {
				return NullDate(), nil
			}

			if p.End != nil && *p.End != "" {
				return DateSpan(p.Start, *p.End), nil
			}

			return Date(p.Start), nil
		},
	}
}

func checkboxCodec() codec {
	return codec{
		encode: func(v Value) (any, error) {
			return v.checked, nil
		},
		decode: func(raw json.RawMessage) (Value, error) {
			var checked bool

			err := json.Unmarshal(raw, &checked)
			if err != nil {
				return Value{}, malformed("checkbox payload: %v", err)
			}

			return Checkbox(checked), nil
		},
	}
}

func stringCodec(build func(string) Value) codec {
	return codec{
		encode: func(v Value) (any, error) {
			if v.text == "" {
				return nil, nil
			}

			return v.text, nil
		},
		decode: func(raw json.RawMessage) (Value, error) {
			var s *string

			err := json.Unmarshal(raw, &s)
			if err != nil {
				return Value{}, malformed("string payload: %v", err)
			}

			if s == nil {
				return build(""), nil
			}

			return build(*s), nil
		},
	}
}

func unsupportedKind(tag string) error {
	if tag == "" {
		return &APIError{Kind: KindUnsupportedPropertyKind, Message: "property value has no kind"}
	}

	return &APIError{Kind: KindUnsupportedPropertyKind, Message: fmt.Sprintf("unsupported property kind %q", tag)}
}

func malformed(format string, args ...any) error {
	return &APIError{Kind: KindMalformedProperty, Message: fmt.Sprintf(format, args...)}
}

func withProperty(err error, name string) error {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		tagged := *apiErr
		tagged.Property = name

		return &tagged
	}

	return fmt.Errorf("property %q: %w", name, err)
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
