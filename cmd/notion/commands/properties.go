package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/notion-client/internal/constants"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// dateRangeSeparator splits "start..end" date arguments.
const dateRangeSeparator = ".."

// timestampSorts are the page timestamps accepted by --sort.
var timestampSorts = map[string]bool{
	"created_time":     true,
	"last_edited_time": true,
}

// splitAssignment splits NAME=VALUE. The value may be empty.
func splitAssignment(arg string) (string, string, error) {
	parts := strings.SplitN(arg, "=", constants.KeyValueSplitParts)
	if len(parts) != constants.KeyValueSplitParts || strings.TrimSpace(parts[0]) == "" {
		return "", "", fmt.Errorf("%w: %q", constants.ErrInvalidPropertyAssignment, arg)
	}

	return strings.TrimSpace(parts[0]), parts[1], nil
}

// parseAssignments converts --set NAME=VALUE arguments into typed values using
// the database schema. Property names match case-insensitively.
func parseAssignments(db *notion.Database, args []string) (map[string]notion.Value, error) {
	props := make(map[string]notion.Value, len(args))

	for _, arg := range args {
		name, raw, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}

		prop, kind, ok := db.PropertyKind(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q in %q", constants.ErrUnknownProperty, name, db.Title)
		}

		value, err := parseValue(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop, err)
		}

		props[prop] = value
	}

	return props, nil
}

// parseValue builds a value of kind from its command line form. An empty
// string clears the property.
func parseValue(kind notion.Kind, raw string) (notion.Value, error) {
	raw = strings.TrimSpace(raw)

	switch kind {
	case notion.KindTitle:
		return notion.Title(raw), nil
	case notion.KindRichText:
		return notion.RichText(raw), nil
	case notion.KindURL:
		return notion.URL(raw), nil
	case notion.KindEmail:
		return notion.Email(raw), nil
	case notion.KindPhoneNumber:
		return notion.PhoneNumber(raw), nil
	case notion.KindSelect:
		return notion.Select(raw), nil
	case notion.KindStatus:
		return notion.Status(raw), nil
	case notion.KindMultiSelect:
		return notion.MultiSelect(splitTags(raw)...), nil
	case notion.KindNumber:
		if raw == "" {
			return notion.NullNumber(), nil
		}

		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return notion.Value{}, fmt.Errorf("%w: %q", constants.ErrInvalidNumber, raw)
		}

		return notion.Number(n), nil
	case notion.KindDate:
		if raw == "" {
			return notion.NullDate(), nil
		}

		if start, end, ok := strings.Cut(raw, dateRangeSeparator); ok {
			return notion.DateSpan(start, end), nil
		}

		return notion.Date(raw), nil
	case notion.KindCheckbox:
		checked, err := strconv.ParseBool(raw)
		if err != nil {
			return notion.Value{}, fmt.Errorf("%w: %q", constants.ErrInvalidBoolean, raw)
		}

		return notion.Checkbox(checked), nil
	default:
		return notion.Value{}, &notion.APIError{
			Kind:    notion.KindUnsupportedPropertyKind,
			Message: fmt.Sprintf("property type %q cannot be set from the command line", kind),
		}
	}
}

func splitTags(raw string) []string {
	var tags []string

	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// parseSorts parses PROPERTY[:asc|:desc] arguments. created_time and
// last_edited_time sort by page timestamp.
func parseSorts(args []string) ([]notion.Sort, error) {
	sorts := make([]notion.Sort, 0, len(args))

	for _, arg := range args {
		name, dir, _ := strings.Cut(arg, ":")
		name = strings.TrimSpace(name)

		if name == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidSortSpec, arg)
		}

		var direction notion.SortDirection

		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc", "ascending":
			direction = notion.Ascending
		case "desc", "descending":
			direction = notion.Descending
		default:
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidSortSpec, arg)
		}

		if timestampSorts[name] {
			sorts = append(sorts, notion.Sort{Timestamp: name, Direction: direction})

			continue
		}

		sorts = append(sorts, notion.SortBy(name, direction))
	}

	return sorts, nil
}

// buildFilter combines a raw JSON --filter with --where NAME=VALUE equality
// conditions. The schema types each condition; an empty value matches pages
// where the property is empty. Returns nil when nothing was given.
func buildFilter(db *notion.Database, rawFilter string, where []string) (*notion.Filter, error) {
	var filters []notion.Filter

	if strings.TrimSpace(rawFilter) != "" {
		if !json.Valid([]byte(rawFilter)) {
			return nil, notion.ErrInvalidRawFilter
		}

		filters = append(filters, notion.RawFilter(json.RawMessage(rawFilter)))
	}

	for _, arg := range where {
		name, raw, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}

		prop, kind, ok := db.PropertyKind(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q in %q", constants.ErrUnknownProperty, name, db.Title)
		}

		filter, err := whereFilter(prop, kind, strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop, err)
		}

		filters = append(filters, filter)
	}

	switch len(filters) {
	case 0:
		return nil, nil //nolint:nilnil
	case 1:
		return &filters[0], nil
	default:
		filter := notion.And(filters...)

		return &filter, nil
	}
}

func whereFilter(prop string, kind notion.Kind, raw string) (notion.Filter, error) {
	if raw == "" && kind != notion.KindCheckbox {
		return notion.Where(prop, kind, "is_empty", nil), nil
	}

	switch kind {
	case notion.KindMultiSelect:
		return notion.Where(prop, kind, "contains", raw), nil
	case notion.KindDate:
		return dateFilter(prop, raw)
	case notion.KindNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return notion.Filter{}, fmt.Errorf("%w: %q", constants.ErrInvalidNumber, raw)
		}

		return notion.Where(prop, kind, "equals", n), nil
	case notion.KindCheckbox:
		checked, err := strconv.ParseBool(raw)
		if err != nil {
			return notion.Filter{}, fmt.Errorf("%w: %q", constants.ErrInvalidBoolean, raw)
		}

		return notion.Where(prop, kind, "equals", checked), nil
	default:
		if !kind.Supported() {
			return notion.Filter{}, &notion.APIError{
				Kind:    notion.KindUnsupportedPropertyKind,
				Message: fmt.Sprintf("property type %q cannot be filtered from the command line", kind),
			}
		}

		return notion.Where(prop, kind, "equals", raw), nil
	}
}

// dateFilter matches one day, or an inclusive "start..end" range where either
// end may be left open.
func dateFilter(prop, raw string) (notion.Filter, error) {
	start, end, isRange := strings.Cut(raw, dateRangeSeparator)
	if !isRange {
		return notion.Where(prop, notion.KindDate, "equals", raw), nil
	}

	start, end = strings.TrimSpace(start), strings.TrimSpace(end)

	var bounds []notion.Filter

	if start != "" {
		bounds = append(bounds, notion.Where(prop, notion.KindDate, "on_or_after", start))
	}

	if end != "" {
		bounds = append(bounds, notion.Where(prop, notion.KindDate, "on_or_before", end))
	}

	switch len(bounds) {
	case 0:
		return notion.Filter{}, fmt.Errorf("%w: %q", constants.ErrInvalidDateRange, raw)
	case 1:
		return bounds[0], nil
	default:
		return notion.And(bounds...), nil
	}
}
