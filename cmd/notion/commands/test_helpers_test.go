package commands_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tasksDatabaseID = "5c6a2821-6bb1-4a7e-b6e1-c50111515c3d"
	notesDatabaseID = "0b7e9a52-51c4-4c8e-9d61-2f7c3a1e4d90"
	taskPageID      = "8f4d41b5-43a1-4d17-9d6a-3e2d1c0b9a77"
	testToken       = "secret_test"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

// fakeNotion serves one workspace with a Tasks and a Notes database.
type fakeNotion struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	// override, when set, answers before the default routes.
	override func(w http.ResponseWriter, r *http.Request) bool
}

func newFakeNotion(t *testing.T) *fakeNotion {
	t.Helper()

	service := &fakeNotion{}
	service.Server = httptest.NewServer(http.HandlerFunc(service.handle))
	t.Cleanup(service.Close)

	return service
}

func (s *fakeNotion) handle(w http.ResponseWriter, r *http.Request) {
	var body map[string]any

	data, _ := io.ReadAll(r.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}

	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
	})
	override := s.override
	s.mu.Unlock()

	if override != nil && override(w, r) {
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/search":
		writeJSON(w, http.StatusOK, map[string]any{
			"object":      "list",
			"results":     []any{databaseObject(tasksDatabaseID, "Tasks"), databaseObject(notesDatabaseID, "Meeting Notes")},
			"next_cursor": nil,
			"has_more":    false,
		})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/databases/"):
		id := strings.TrimPrefix(r.URL.Path, "/v1/databases/")
		if id != tasksDatabaseID && id != notesDatabaseID {
			writeError(w, http.StatusNotFound, "object_not_found", "Could not find database")

			return
		}

		title := "Tasks"
		if id == notesDatabaseID {
			title = "Meeting Notes"
		}

		writeJSON(w, http.StatusOK, databaseObject(id, title))
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/query"):
		writeJSON(w, http.StatusOK, map[string]any{
			"object":      "list",
			"results":     []any{pageObject(taskPageID, "Write report", "Done")},
			"next_cursor": nil,
			"has_more":    false,
		})
	case r.Method == http.MethodPost && r.URL.Path == "/v1/pages":
		writeJSON(w, http.StatusOK, pageObject(taskPageID, "Write report", "To Do"))
	case r.URL.Path == "/v1/pages/"+taskPageID:
		writeJSON(w, http.StatusOK, pageObject(taskPageID, "Write report", "Done"))
	default:
		writeError(w, http.StatusNotFound, "object_not_found", "Could not find object")
	}
}

func (s *fakeNotion) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]recordedRequest(nil), s.requests...)
}

// find returns the first request with method and path.
func (s *fakeNotion) find(method, path string) (recordedRequest, bool) {
	for _, req := range s.Requests() {
		if req.Method == method && req.Path == path {
			return req, true
		}
	}

	return recordedRequest{}, false
}

func (s *fakeNotion) setOverride(override func(w http.ResponseWriter, r *http.Request) bool) {
	s.mu.Lock()
	s.override = override
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"object":  "error",
		"status":  status,
		"code":    code,
		"message": message,
	})
}

func richText(s string) []any {
	return []any{map[string]any{
		"type":       "text",
		"text":       map[string]any{"content": s},
		"plain_text": s,
	}}
}

func databaseObject(id, title string) map[string]any {
	return map[string]any{
		"object":           "database",
		"id":               id,
		"url":              "https://www.notion.so/" + strings.ReplaceAll(id, "-", ""),
		"title":            richText(title),
		"created_time":     "2024-01-01T09:00:00.000Z",
		"last_edited_time": "2024-02-01T09:00:00.000Z",
		"parent":           map[string]any{"type": "workspace", "workspace": true},
		"properties": map[string]any{
			"Name":   map[string]any{"id": "title", "type": "title", "title": map[string]any{}},
			"Status": map[string]any{"id": "s", "type": "status", "status": map[string]any{}},
			"Tags":   map[string]any{"id": "t", "type": "multi_select", "multi_select": map[string]any{}},
			"Due":    map[string]any{"id": "d", "type": "date", "date": map[string]any{}},
			"Points": map[string]any{"id": "p", "type": "number", "number": map[string]any{}},
			"Done":   map[string]any{"id": "c", "type": "checkbox", "checkbox": map[string]any{}},
		},
	}
}

func pageObject(id, title, status string) map[string]any {
	return map[string]any{
		"object":           "page",
		"id":               id,
		"url":              "https://www.notion.so/" + strings.ReplaceAll(id, "-", ""),
		"archived":         false,
		"created_time":     "2024-03-01T09:00:00.000Z",
		"last_edited_time": "2024-03-02T09:00:00.000Z",
		"parent":           map[string]any{"type": "database_id", "database_id": tasksDatabaseID},
		"properties": map[string]any{
			"Name":   map[string]any{"id": "title", "type": "title", "title": richText(title)},
			"Status": map[string]any{"id": "s", "type": "status", "status": map[string]any{"name": status}},
			"Tags":   map[string]any{"id": "t", "type": "multi_select", "multi_select": []any{map[string]any{"name": "work"}}},
			"Due":    map[string]any{"id": "d", "type": "date", "date": map[string]any{"start": "2024-01-01", "end": nil}},
			"Points": map[string]any{"id": "p", "type": "number", "number": 3},
			"Done":   map[string]any{"id": "c", "type": "checkbox", "checkbox": false},
		},
	}
}

// useConfig resets viper to a fresh configuration pointing at service and
// backed by a config file in a temporary directory. Tests calling it share
// the global viper instance and must not run in parallel.
func useConfig(t *testing.T, service *fakeNotion, output string) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	configFile := filepath.Join(t.TempDir(), "config.yml")
	viper.SetConfigFile(configFile)

	if service != nil {
		viper.Set("base_url", service.URL)
	}

	viper.Set("token", testToken)
	viper.Set("output", output)
	viper.Set("rate_limit", -1)
	viper.Set("cache.type", "memory")

	return configFile
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	return executeWithInput(t, cmd, "", args...)
}

func executeWithInput(t *testing.T, cmd *cobra.Command, input string, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(input))

	err := cmd.Execute()

	return stdout.String(), err
}

func readConfigFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec
	require.NoError(t, err)

	return string(data)
}

func decodeJSON[T any](t *testing.T, data string) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal([]byte(data), &out), data)

	return out
}

func requireBodyEqual(t *testing.T, want string, body map[string]any) {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, want, string(data))
}
