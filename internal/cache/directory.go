package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

const directoryKey = "databases"

// DatabaseLister is the part of notion.Client the directory needs.
type DatabaseLister interface {
	ListDatabases(ctx context.Context) ([]notion.Database, error)
}

// Directory remembers the databases shared with the integration so that
// commands can refer to them by name without listing on every run.
type Directory struct {
	cache  Cache
	lister DatabaseLister
	ttl    time.Duration
	now    func() time.Time
}

// NewDirectory creates a directory backed by c.
func NewDirectory(c Cache, lister DatabaseLister, ttl time.Duration) *Directory {
	if c == nil {
		c = NewNoOpCache()
	}

	return &Directory{cache: c, lister: lister, ttl: ttl, now: time.Now}
}

// Databases returns the cached listing, fetching it on a miss or when refresh is set.
func (d *Directory) Databases(ctx context.Context, refresh bool) ([]notion.Database, error) {
	if !refresh {
		entry, err := d.cache.Get(ctx, directoryKey)
		if err == nil {
			var dbs []notion.Database

			if json.Unmarshal(entry.Data, &dbs) == nil {
				return dbs, nil
			}
		}
	}

	dbs, err := d.lister.ListDatabases(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(dbs)
	if err != nil {
		return nil, fmt.Errorf("encoding database directory: %w", err)
	}

	entry := &Entry{Data: data}
	if d.ttl > 0 {
		entry.ExpiresAt = d.now().Add(d.ttl)
	}

	// A failing cache only costs a listing on the next run.
	_ = d.cache.Set(ctx, directoryKey, entry)

	return dbs, nil
}

// Find returns the first database whose title contains name, ignoring case.
// An exact title match wins over a partial one.
func (d *Directory) Find(ctx context.Context, name string) (*notion.Database, error) {
	dbs, err := d.Databases(ctx, false)
	if err != nil {
		return nil, err
	}

	if db := match(dbs, name); db != nil {
		return db, nil
	}

	// The listing may be stale; retry once against the service.
	dbs, err = d.Databases(ctx, true)
	if err != nil {
		return nil, err
	}

	if db := match(dbs, name); db != nil {
		return db, nil
	}

	return nil, &notion.APIError{
		Kind:    notion.KindNotFound,
		Message: fmt.Sprintf("no database matching %q", name),
	}
}

// Resolve maps a database name or id to an id. References that match no
// known database are returned unchanged and treated as ids.
func (d *Directory) Resolve(ctx context.Context, ref string) (string, error) {
	dbs, err := d.Databases(ctx, false)
	if err != nil {
		return "", err
	}

	for _, db := range dbs {
		if db.ID == ref {
			return ref, nil
		}
	}

	if db := match(dbs, ref); db != nil {
		return db.ID, nil
	}

	return ref, nil
}

// Invalidate forgets the cached listing.
func (d *Directory) Invalidate(ctx context.Context) error {
	return d.cache.Delete(ctx, directoryKey)
}

func match(dbs []notion.Database, name string) *notion.Database {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}

	var partial *notion.Database

	for i := range dbs {
		title := strings.ToLower(dbs[i].Title)

		if title == needle {
			return &dbs[i]
		}

		if partial == nil && strings.Contains(title, needle) {
			partial = &dbs[i]
		}
	}

	return partial
}
