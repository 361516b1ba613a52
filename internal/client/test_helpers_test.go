package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/notion-client/internal/auth"
	. "github.com/fivetwenty-io/notion-client/internal/client"
	internalhttp "github.com/fivetwenty-io/notion-client/internal/http"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// recordedRequest is one request seen by a fakeService.
type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeService is a synthetic Notion service. The handler receives the decoded
// JSON body of every request; requests are recorded in arrival order.
type fakeService struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeService(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, body map[string]any)) *fakeService {
	t.Helper()

	service := &fakeService{}
	service.Server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body map[string]any

		data, _ := io.ReadAll(request.Body)
		if len(data) > 0 {
			_ = json.Unmarshal(data, &body)
		}

		service.mu.Lock()
		service.requests = append(service.requests, recordedRequest{
			Method: request.Method,
			Path:   request.URL.Path,
			Body:   body,
		})
		service.mu.Unlock()

		writer.Header().Set("Content-Type", "application/json")
		handler(writer, request, body)
	}))
	t.Cleanup(service.Close)

	return service
}

func (s *fakeService) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]recordedRequest(nil), s.requests...)
}

func (s *fakeService) Calls() int {
	return len(s.Requests())
}

// newTestClient builds a client against service with pacing disabled and a
// sleeper that returns immediately.
func newTestClient(t *testing.T, service *fakeService, config *notion.Config) *Client {
	t.Helper()

	if config == nil {
		config = &notion.Config{}
	}

	config.BaseURL = service.URL
	config.RateLimit = -1

	credential, err := auth.NewCredential("secret-token")
	require.NoError(t, err)

	client, err := NewWithTokenManager(config, auth.NewStaticTokenManager(credential),
		internalhttp.WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))
	require.NoError(t, err)

	return client
}

func writeJSON(t *testing.T, writer http.ResponseWriter, status int, payload any) {
	t.Helper()

	writer.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(writer).Encode(payload))
}

func writeServiceError(t *testing.T, writer http.ResponseWriter, status int, code, message string) {
	t.Helper()

	writeJSON(t, writer, status, map[string]any{
		"object":  "error",
		"status":  status,
		"code":    code,
		"message": message,
	})
}

func listEnvelope(results []map[string]any, next string, hasMore bool) map[string]any {
	envelope := map[string]any{
		"object":   "list",
		"results":  results,
		"has_more": hasMore,
	}

	if next != "" {
		envelope["next_cursor"] = next
	} else {
		envelope["next_cursor"] = nil
	}

	return envelope
}

func richText(s string) []map[string]any {
	return []map[string]any{{
		"type":       "text",
		"text":       map[string]any{"content": s},
		"plain_text": s,
	}}
}

func pageObject(id, title string) map[string]any {
	return map[string]any{
		"object":           "page",
		"id":               id,
		"url":              "https://www.notion.so/" + id,
		"archived":         false,
		"created_time":     "2024-05-01T12:00:00.000Z",
		"last_edited_time": "2024-05-02T12:00:00.000Z",
		"parent":           map[string]any{"type": "database_id", "database_id": "db-1"},
		"properties": map[string]any{
			"Name":   map[string]any{"id": "title", "type": "title", "title": richText(title)},
			"Done":   map[string]any{"id": "a1", "type": "checkbox", "checkbox": false},
			"Status": map[string]any{"id": "a2", "type": "select", "select": map[string]any{"name": "Todo"}},
		},
	}
}

func databaseObject(id, title string) map[string]any {
	return map[string]any{
		"object":           "database",
		"id":               id,
		"url":              "https://www.notion.so/" + id,
		"title":            richText(title),
		"created_time":     "2024-05-01T12:00:00.000Z",
		"last_edited_time": "2024-05-02T12:00:00.000Z",
		"parent":           map[string]any{"type": "workspace", "workspace": true},
		"properties": map[string]any{
			"Name":   map[string]any{"id": "title", "type": "title", "title": map[string]any{}},
			"Tags":   map[string]any{"id": "a3", "type": "multi_select", "multi_select": map[string]any{}},
			"Status": map[string]any{"id": "a2", "type": "select", "select": map[string]any{}},
		},
	}
}

// recordingLogger captures log entries.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

func (l *recordingLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}

	l.entries = append(l.entries, logEntry{Level: level, Message: msg, Fields: copied})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func (l *recordingLogger) Entries() []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]logEntry(nil), l.entries...)
}
