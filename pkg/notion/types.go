package notion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Parent identifies the container of a page or database.
type Parent struct {
	Type       string `json:"type"                  yaml:"type"`
	DatabaseID string `json:"database_id,omitempty" yaml:"database_id,omitempty"`
	PageID     string `json:"page_id,omitempty"     yaml:"page_id,omitempty"`
	Workspace  bool   `json:"workspace,omitempty"   yaml:"workspace,omitempty"`
}

// DatabaseParent returns the parent reference of a page created inside a database.
func DatabaseParent(ref string) Parent {
	return Parent{Type: "database_id", DatabaseID: ref}
}

// Page is a decoded database entry.
type Page struct {
	ID             string           `json:"id"               yaml:"id"`
	URL            string           `json:"url,omitempty"    yaml:"url,omitempty"`
	Archived       bool             `json:"archived"         yaml:"archived"`
	CreatedTime    time.Time        `json:"created_time"     yaml:"created_time"`
	LastEditedTime time.Time        `json:"last_edited_time" yaml:"last_edited_time"`
	Parent         Parent           `json:"parent"           yaml:"parent"`
	Properties     map[string]Value `json:"properties"       yaml:"properties"`
}

// Title returns the plain text of the page's title property.
func (p *Page) Title() string {
	for _, v := range p.Properties {
		if v.Kind() == KindTitle {
			return v.Text()
		}
	}

	return ""
}

// Database is a decoded collection with its property schema.
type Database struct {
	ID             string          `json:"id"               yaml:"id"`
	URL            string          `json:"url,omitempty"    yaml:"url,omitempty"`
	Title          string          `json:"title"            yaml:"title"`
	Archived       bool            `json:"archived"         yaml:"archived"`
	CreatedTime    time.Time       `json:"created_time"     yaml:"created_time"`
	LastEditedTime time.Time       `json:"last_edited_time" yaml:"last_edited_time"`
	Parent         Parent          `json:"parent"           yaml:"parent"`
	Properties     map[string]Kind `json:"properties"       yaml:"properties"`
}

// TitleProperty returns the name of the database's title property.
func (d *Database) TitleProperty() (string, bool) {
	for name, kind := range d.Properties {
		if kind == KindTitle {
			return name, true
		}
	}

	return "", false
}

// PropertyKind resolves a property by exact name, then case-insensitively.
func (d *Database) PropertyKind(name string) (string, Kind, bool) {
	if kind, ok := d.Properties[name]; ok {
		return name, kind, true
	}

	for prop, kind := range d.Properties {
		if strings.EqualFold(prop, name) {
			return prop, kind, true
		}
	}

	return "", "", false
}

// Cursor is the continuation state of a paginated listing.
type Cursor struct {
	Next    string `json:"next_cursor"`
	HasMore bool   `json:"has_more"`
}

type pageWire struct {
	Object         string                     `json:"object"`
	ID             string                     `json:"id"`
	URL            string                     `json:"url"`
	Archived       bool                       `json:"archived"`
	InTrash        bool                       `json:"in_trash"`
	CreatedTime    time.Time                  `json:"created_time"`
	LastEditedTime time.Time                  `json:"last_edited_time"`
	Parent         Parent                     `json:"parent"`
	Properties     map[string]json.RawMessage `json:"properties"`
}

type databaseWire struct {
	Object         string         `json:"object"`
	ID             string         `json:"id"`
	URL            string         `json:"url"`
	Title          []richTextItem `json:"title"`
	Archived       bool           `json:"archived"`
	CreatedTime    time.Time      `json:"created_time"`
	LastEditedTime time.Time      `json:"last_edited_time"`
	Parent         Parent         `json:"parent"`
	Properties     map[string]struct {
		Type string `json:"type"`
	} `json:"properties"`
}

// DecodePage decodes a page object, including every property value.
func DecodePage(raw json.RawMessage) (Page, error) {
	var w pageWire

	err := json.Unmarshal(raw, &w)
	if err != nil {
		return Page{}, malformed("page object: %v", err)
	}

	props, err := DecodeProperties(w.Properties)
	if err != nil {
		return Page{}, fmt.Errorf("decoding page %s: %w", w.ID, err)
	}

	return Page{
		ID:             w.ID,
		URL:            w.URL,
		Archived:       w.Archived || w.InTrash,
		CreatedTime:    w.CreatedTime,
		LastEditedTime: w.LastEditedTime,
		Parent:         w.Parent,
		Properties:     props,
	}, nil
}

// DecodeDatabase decodes a database object. Schema kinds outside the supported
// value vocabulary are kept as-is.
func DecodeDatabase(raw json.RawMessage) (Database, error) {
	var w databaseWire

	err := json.Unmarshal(raw, &w)
	if err != nil {
		return Database{}, malformed("database object: %v", err)
	}

	schema := make(map[string]Kind, len(w.Properties))
	for name, prop := range w.Properties {
		schema[name] = Kind(prop.Type)
	}

	return Database{
		ID:             w.ID,
		URL:            w.URL,
		Title:          plainText(w.Title),
		Archived:       w.Archived,
		CreatedTime:    w.CreatedTime,
		LastEditedTime: w.LastEditedTime,
		Parent:         w.Parent,
		Properties:     schema,
	}, nil
}

func plainText(items []richTextItem) string {
	var b strings.Builder

	for _, item := range items {
		switch {
		case item.PlainText != "":
			b.WriteString(item.PlainText)
		case item.Text != nil:
			b.WriteString(item.Text.Content)
		}
	}

	return b.String()
}

// MarshalJSON renders the value in its plain form, not the wire form. Use
// Encode for request payloads.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// MarshalYAML renders the value in its plain form.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.Interface(), nil
}
