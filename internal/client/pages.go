package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/fivetwenty-io/notion-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/notion-client/internal/http"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// PagesClient implements notion.PagesClient.
type PagesClient struct {
	httpClient *internalhttp.Client
	calls      *tracer
}

// NewPagesClient creates a new pages client.
func NewPagesClient(httpClient *internalhttp.Client, calls *tracer) *PagesClient {
	if calls == nil {
		calls = &tracer{}
	}

	return &PagesClient{
		httpClient: httpClient,
		calls:      calls,
	}
}

// PageCreateRequest is the body of a page create.
type PageCreateRequest struct {
	Parent     notion.Parent              `json:"parent"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// PageUpdateRequest is the body of a page update or archive.
type PageUpdateRequest struct {
	Properties map[string]json.RawMessage `json:"properties,omitempty"`
	Archived   *bool                      `json:"archived,omitempty"`
}

// GetPage implements notion.PagesClient.GetPage.
func (c *PagesClient) GetPage(ctx context.Context, ref string) (*notion.Page, error) {
	if ref == "" {
		return nil, notion.ErrReferenceRequired
	}

	ctx, call := c.calls.start(ctx, "GetPage", map[string]interface{}{"page_id": ref})

	resp, err := c.httpClient.Get(ctx, pagePath(ref), nil)
	if err != nil {
		call.finish(err)

		return nil, fmt.Errorf("getting page: %w", err)
	}

	page, err := decodePage(resp.Body)
	call.finish(err)

	return page, err
}

// CreatePage implements notion.PagesClient.CreatePage. Properties are encoded
// before anything is sent; the create is never replayed after a lost response.
func (c *PagesClient) CreatePage(ctx context.Context, parentRef string, props map[string]notion.Value) (*notion.Page, error) {
	if parentRef == "" {
		return nil, notion.ErrReferenceRequired
	}

	encoded, err := notion.EncodeProperties(props)
	if err != nil {
		return nil, fmt.Errorf("encoding page properties: %w", err)
	}

	ctx, call := c.calls.start(ctx, "CreatePage", map[string]interface{}{"database_id": parentRef})

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodPost,
		Path:   constants.PathPages,
		Body: &PageCreateRequest{
			Parent:     notion.DatabaseParent(parentRef),
			Properties: encoded,
		},
	})
	if err != nil {
		call.finish(err)

		return nil, fmt.Errorf("creating page: %w", err)
	}

	page, err := decodeWritten(resp.Body)
	call.finish(err)

	return page, err
}

// UpdatePage implements notion.PagesClient.UpdatePage. Only the given
// properties change.
func (c *PagesClient) UpdatePage(ctx context.Context, ref string, props map[string]notion.Value) (*notion.Page, error) {
	if ref == "" {
		return nil, notion.ErrReferenceRequired
	}

	encoded, err := notion.EncodeProperties(props)
	if err != nil {
		return nil, fmt.Errorf("encoding page properties: %w", err)
	}

	ctx, call := c.calls.start(ctx, "UpdatePage", map[string]interface{}{"page_id": ref})

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodPatch,
		Path:   pagePath(ref),
		Body:   &PageUpdateRequest{Properties: encoded},
	})
	if err != nil {
		call.finish(err)

		return nil, fmt.Errorf("updating page: %w", err)
	}

	page, err := decodeWritten(resp.Body)
	call.finish(err)

	return page, err
}

// DeletePage implements notion.PagesClient.DeletePage by archiving the page.
// Archiving an already archived page succeeds.
func (c *PagesClient) DeletePage(ctx context.Context, ref string) error {
	if ref == "" {
		return notion.ErrReferenceRequired
	}

	ctx, call := c.calls.start(ctx, "DeletePage", map[string]interface{}{"page_id": ref})

	archived := true

	_, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodPatch,
		Path:   pagePath(ref),
		Body:   &PageUpdateRequest{Archived: &archived},
	})
	if err != nil && isAlreadyArchived(err) {
		err = nil
	}

	call.finish(err)

	if err != nil {
		return fmt.Errorf("archiving page: %w", err)
	}

	return nil
}

// isAlreadyArchived recognizes the validation error the service returns when
// an archived page is archived again.
func isAlreadyArchived(err error) bool {
	var apiErr *notion.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != notion.KindValidation {
		return false
	}

	return strings.Contains(strings.ToLower(apiErr.Message), "archived")
}

func decodePage(body []byte) (*notion.Page, error) {
	page, err := notion.DecodePage(body)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	return &page, nil
}

// decodeWritten decodes the page echoed by a create or update. The write has
// already been applied, so a decode failure carries the page id.
func decodeWritten(body []byte) (*notion.Page, error) {
	page, err := decodePage(body)
	if err == nil {
		return page, nil
	}

	id := gjson.GetBytes(body, "id").String()

	var apiErr *notion.APIError
	if id == "" || !errors.As(err, &apiErr) {
		return nil, err
	}

	written := *apiErr
	written.Written = id

	return nil, fmt.Errorf("parsing written page: %w", &written)
}

func pagePath(ref string) string {
	return constants.PathPages + "/" + escapeRef(ref)
}
