package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/notion-client/internal/constants"
	"github.com/fivetwenty-io/notion-client/internal/http"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// DatabasesClient implements notion.DatabasesClient.
type DatabasesClient struct {
	httpClient *http.Client
	calls      *tracer
	pagination *notion.PaginationOptions
}

// NewDatabasesClient creates a new databases client.
func NewDatabasesClient(httpClient *http.Client, calls *tracer, pagination *notion.PaginationOptions) *DatabasesClient {
	if calls == nil {
		calls = &tracer{}
	}

	return &DatabasesClient{
		httpClient: httpClient,
		calls:      calls,
		pagination: pagination,
	}
}

// ListDatabases implements notion.DatabasesClient.ListDatabases.
func (c *DatabasesClient) ListDatabases(ctx context.Context) ([]notion.Database, error) {
	ctx, call := c.calls.start(ctx, "ListDatabases", nil)

	paginator := notion.NewPaginator(c.httpClient, notion.PageRequest{
		Path: constants.PathSearch,
		Body: map[string]any{
			"filter": map[string]string{"property": "object", "value": "database"},
		},
	}, notion.DecodeDatabase, c.pagination)

	databases, err := paginator.Drain(ctx)
	call.finish(err)

	if err != nil {
		return nil, fmt.Errorf("listing databases: %w", err)
	}

	return databases, nil
}

// GetDatabase implements notion.DatabasesClient.GetDatabase.
func (c *DatabasesClient) GetDatabase(ctx context.Context, ref string) (*notion.Database, error) {
	if ref == "" {
		return nil, notion.ErrReferenceRequired
	}

	ctx, call := c.calls.start(ctx, "GetDatabase", map[string]interface{}{"database_id": ref})

	database, err := c.getDatabase(ctx, ref)
	call.finish(err)

	return database, err
}

func (c *DatabasesClient) getDatabase(ctx context.Context, ref string) (*notion.Database, error) {
	resp, err := c.httpClient.Get(ctx, databasePath(ref), nil)
	if err != nil {
		return nil, fmt.Errorf("getting database: %w", err)
	}

	database, err := notion.DecodeDatabase(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing database: %w", err)
	}

	return &database, nil
}

// FindDatabase implements notion.DatabasesClient.FindDatabase. The first
// database whose title contains name, ignoring case, is returned.
func (c *DatabasesClient) FindDatabase(ctx context.Context, name string) (*notion.Database, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, notion.ErrNameRequired
	}

	databases, err := c.ListDatabases(ctx)
	if err != nil {
		return nil, err
	}

	for i := range databases {
		if strings.Contains(strings.ToLower(databases[i].Title), needle) {
			return &databases[i], nil
		}
	}

	return nil, &notion.APIError{
		Kind:    notion.KindNotFound,
		Message: fmt.Sprintf("no database title contains %q", name),
	}
}

// QueryDatabase implements notion.DatabasesClient.QueryDatabase.
func (c *DatabasesClient) QueryDatabase(ctx context.Context, ref string, filter *notion.Filter, sorts []notion.Sort) ([]notion.Page, error) {
	if ref == "" {
		return nil, notion.ErrReferenceRequired
	}

	body := map[string]any{}

	if filter != nil {
		// Encoded up front so a bad filter fails before any request.
		raw, err := json.Marshal(filter)
		if err != nil {
			return nil, &notion.APIError{Kind: notion.KindValidation, Message: "invalid filter", Err: err}
		}

		body["filter"] = json.RawMessage(raw)
	}

	if len(sorts) > 0 {
		body["sorts"] = normalizeSorts(sorts)
	}

	ctx, call := c.calls.start(ctx, "QueryDatabase", map[string]interface{}{"database_id": ref})

	paginator := notion.NewPaginator(c.httpClient, notion.PageRequest{
		Path: databasePath(ref) + "/query",
		Body: body,
	}, notion.DecodePage, c.pagination)

	pages, err := paginator.Drain(ctx)
	call.finish(err)

	if err != nil {
		return nil, fmt.Errorf("querying database: %w", err)
	}

	return pages, nil
}

func normalizeSorts(sorts []notion.Sort) []notion.Sort {
	out := make([]notion.Sort, len(sorts))

	for i, sort := range sorts {
		if sort.Direction == "" {
			sort.Direction = notion.Ascending
		}

		out[i] = sort
	}

	return out
}

func databasePath(ref string) string {
	return constants.PathDatabases + "/" + escapeRef(ref)
}
