package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/notion-client/internal/constants"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

const timestampLayout = "2006-01-02 15:04:05"

// render writes data in the configured output format, using renderTable for
// the table format.
func render[T any](w io.Writer, data T, renderTable func(w io.Writer) error) error {
	switch viper.GetString("output") {
	case constants.FormatJSON:
		return StandardJSONRenderer(w, data)
	case constants.FormatYAML:
		return StandardYAMLRenderer(w, data)
	default:
		return renderTable(w)
	}
}

// StandardJSONRenderer writes data as indented JSON.
func StandardJSONRenderer[T any](w io.Writer, data T) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer writes data as YAML.
func StandardYAMLRenderer[T any](w io.Writer, data T) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(constants.JSONIndentSize)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return encoder.Close()
}

func outputDatabases(w io.Writer, dbs []notion.Database) error {
	return render(w, dbs, func(w io.Writer) error {
		if len(dbs) == 0 {
			_, _ = io.WriteString(w, "No databases found. Share a database with the integration first.\n")

			return nil
		}

		table := tablewriter.NewWriter(w)
		table.Header("Title", "ID", "Properties", "Last Edited")

		for _, db := range dbs {
			_ = table.Append(
				truncate(db.Title),
				db.ID,
				fmt.Sprintf("%d", len(db.Properties)),
				db.LastEditedTime.Format("2006-01-02"),
			)
		}

		return renderTable(table)
	})
}

func outputDatabaseDetails(w io.Writer, db *notion.Database) error {
	return render(w, db, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		_ = table.Append("Title", db.Title)
		_ = table.Append("ID", db.ID)
		_ = table.Append("URL", orNotAvailable(db.URL))
		_ = table.Append("Archived", fmt.Sprintf("%t", db.Archived))
		_ = table.Append("Created", db.CreatedTime.Format(timestampLayout))
		_ = table.Append("Last Edited", db.LastEditedTime.Format(timestampLayout))

		err := renderTable(table)
		if err != nil {
			return err
		}

		_, _ = io.WriteString(w, "\nSchema:\n")

		schema := tablewriter.NewWriter(w)
		schema.Header("Name", "Type", "Supported")

		for _, name := range sortedKeys(db.Properties) {
			kind := db.Properties[name]
			_ = schema.Append(name, string(kind), fmt.Sprintf("%t", kind.Supported()))
		}

		return renderTable(schema)
	})
}

func outputPages(w io.Writer, pages []notion.Page, columns []string) error {
	return render(w, pages, func(w io.Writer) error {
		if len(pages) == 0 {
			_, _ = io.WriteString(w, "No pages found\n")

			return nil
		}

		table := tablewriter.NewWriter(w)
		header := []any{"ID", "Title"}
		for _, column := range columns {
			header = append(header, column)
		}

		table.Header(header...)

		for i := range pages {
			row := []string{pages[i].ID, truncate(pages[i].Title())}

			for _, column := range columns {
				row = append(row, truncate(pages[i].Properties[column].String()))
			}

			_ = table.Append(row)
		}

		err := renderTable(table)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(w, "\n%d page(s)\n", len(pages))

		return nil
	})
}

func outputPageDetails(w io.Writer, page *notion.Page) error {
	return render(w, page, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")

		_ = table.Append("ID", page.ID)
		_ = table.Append("Title", page.Title())
		_ = table.Append("URL", orNotAvailable(page.URL))
		_ = table.Append("Database", orNotAvailable(page.Parent.DatabaseID))
		_ = table.Append("Archived", fmt.Sprintf("%t", page.Archived))
		_ = table.Append("Created", page.CreatedTime.Format(timestampLayout))
		_ = table.Append("Last Edited", page.LastEditedTime.Format(timestampLayout))

		err := renderTable(table)
		if err != nil {
			return err
		}

		if len(page.Properties) == 0 {
			return nil
		}

		_, _ = io.WriteString(w, "\nProperties:\n")

		props := tablewriter.NewWriter(w)
		props.Header("Name", "Type", "Value")

		for _, name := range sortedKeys(page.Properties) {
			value := page.Properties[name]
			_ = props.Append(name, string(value.Kind()), truncate(value.String()))
		}

		return renderTable(props)
	})
}

func outputMessage(w io.Writer, message string, fields map[string]string) error {
	result := map[string]string{"message": message}
	for k, v := range fields {
		result[k] = v
	}

	return render(w, result, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, message)

		return err
	})
}

func renderTable(table *tablewriter.Table) error {
	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// pageColumns returns the non-title property names of a schema, sorted, for
// use as table columns.
func pageColumns(schema map[string]notion.Kind) []string {
	columns := make([]string, 0, len(schema))

	for _, name := range sortedKeys(schema) {
		if schema[name] == notion.KindTitle || !schema[name].Supported() {
			continue
		}

		columns = append(columns, name)
	}

	return columns
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= constants.StringTruncationLength {
		return s
	}

	return string(runes[:constants.StringTruncationLength-3]) + "..."
}

func orNotAvailable(s string) string {
	if s == "" {
		return constants.NotAvailable
	}

	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
