package commands_test

import (
	"net/http"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/notion-client/cmd/notion/commands"
	"github.com/fivetwenty-io/notion-client/internal/constants"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// These tests share the global viper configuration and run sequentially.

func TestDatabasesList(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)

	out, err := execute(t, commands.NewDatabasesCommand(), "list")
	require.NoError(t, err)

	dbs := decodeJSON[[]notion.Database](t, out)
	require.Len(t, dbs, 2)
	assert.Equal(t, "Tasks", dbs[0].Title)
	assert.Equal(t, notion.KindMultiSelect, dbs[0].Properties["Tags"])

	search, ok := service.find(http.MethodPost, "/v1/search")
	require.True(t, ok)
	assert.Equal(t, "Bearer "+testToken, search.Auth)
	assert.Equal(t, map[string]any{"property": "object", "value": "database"}, search.Body["filter"])
}

func TestDatabasesList_Table(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatTable)

	out, err := execute(t, commands.NewDatabasesCommand(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Meeting Notes")
	assert.Contains(t, out, tasksDatabaseID)
}

func TestDatabasesGet_ByTitle(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatYAML)

	out, err := execute(t, commands.NewDatabasesCommand(), "get", "meeting")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Meeting Notes")

	_, ok := service.find(http.MethodGet, "/v1/databases/"+notesDatabaseID)
	assert.True(t, ok, "title resolved to id through the directory")
}

func TestDatabasesGet_ByIDSkipsListing(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)

	_, err := execute(t, commands.NewDatabasesCommand(), "get", tasksDatabaseID)
	require.NoError(t, err)

	_, listed := service.find(http.MethodPost, "/v1/search")
	assert.False(t, listed)
}

func TestDatabasesFind(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)

	out, err := execute(t, commands.NewDatabasesCommand(), "find", "TASKS")
	require.NoError(t, err)
	assert.Equal(t, tasksDatabaseID, decodeJSON[notion.Database](t, out).ID)

	_, err = execute(t, commands.NewDatabasesCommand(), "find", "recipes")
	require.ErrorIs(t, err, notion.ErrNotFound)

	_, err = execute(t, commands.NewDatabasesCommand(), "find", "--refresh", "recipes")
	require.ErrorIs(t, err, notion.ErrNotFound)
}

func TestPagesQuery(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)

	out, err := execute(t, commands.NewPagesCommand(),
		"query", "Tasks", "--where", "Status=Done", "--sort", "Due:desc", "--sort", "created_time")
	require.NoError(t, err)

	pages := decodeJSON[[]map[string]any](t, out)
	require.Len(t, pages, 1)
	assert.Equal(t, taskPageID, pages[0]["id"])

	query, ok := service.find(http.MethodPost, "/v1/databases/"+tasksDatabaseID+"/query")
	require.True(t, ok)
	requireBodyEqual(t, `{
		"filter": {"property": "Status", "status": {"equals": "Done"}},
		"sorts": [
			{"property": "Due", "direction": "descending"},
			{"timestamp": "created_time", "direction": "ascending"}
		],
		"page_size": 100
	}`, query.Body)
}

func TestPagesQuery_Table(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatTable)

	out, err := execute(t, commands.NewPagesCommand(), "query", tasksDatabaseID)
	require.NoError(t, err)
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "1 page(s)")
}

func TestPagesQuery_InvalidWhereSendsNothing(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)

	_, err := execute(t, commands.NewPagesCommand(), "query", tasksDatabaseID, "--where", "Points=lots")
	require.ErrorIs(t, err, constants.ErrInvalidNumber)

	_, queried := service.find(http.MethodPost, "/v1/databases/"+tasksDatabaseID+"/query")
	assert.False(t, queried)
}

func TestPagesCreate(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)

	_, err := execute(t, commands.NewPagesCommand(), "create", "Tasks",
		"--set", "Name=Write report",
		"--set", "tags=work,urgent",
		"--set", "Due=2024-01-01..2024-01-03",
		"--set", "Points=3",
		"--set", "Done=true")
	require.NoError(t, err)

	create, ok := service.find(http.MethodPost, "/v1/pages")
	require.True(t, ok)
	requireBodyEqual(t, `{
		"parent": {"type": "database_id", "database_id": "`+tasksDatabaseID+`"},
		"properties": {
			"Name": {"title": [{"text": {"content": "Write report"}}]},
			"Tags": {"multi_select": [{"name": "work"}, {"name": "urgent"}]},
			"Due": {"date": {"start": "2024-01-01", "end": "2024-01-03"}},
			"Points": {"number": 3},
			"Done": {"checkbox": true}
		}
	}`, create.Body)
}

func TestPagesCreate_RejectsBadInputLocally(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "no properties", args: []string{"create", tasksDatabaseID}, wantErr: constants.ErrNoPropertiesGiven},
		{name: "unknown property", args: []string{"create", tasksDatabaseID, "--set", "Owner=me"}, wantErr: constants.ErrUnknownProperty},
		{name: "bad checkbox", args: []string{"create", tasksDatabaseID, "--set", "Done=yes please"}, wantErr: constants.ErrInvalidBoolean},
		{name: "duplicate tags", args: []string{"create", tasksDatabaseID, "--set", "Tags=a,a"}, wantErr: notion.ErrMalformedProperty},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			service := newFakeNotion(t)
			useConfig(t, service, constants.FormatJSON)

			_, err := execute(t, commands.NewPagesCommand(), testCase.args...)
			require.ErrorIs(t, err, testCase.wantErr)

			_, created := service.find(http.MethodPost, "/v1/pages")
			assert.False(t, created)
		})
	}
}

func TestPagesUpdate(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)

	_, err := execute(t, commands.NewPagesCommand(), "update", taskPageID, "--set", "Status=Done", "--set", "Due=")
	require.NoError(t, err)

	_, readSchema := service.find(http.MethodGet, "/v1/databases/"+tasksDatabaseID)
	assert.True(t, readSchema, "schema comes from the page's parent database")

	update, ok := service.find(http.MethodPatch, "/v1/pages/"+taskPageID)
	require.True(t, ok)
	requireBodyEqual(t, `{
		"properties": {
			"Status": {"status": {"name": "Done"}},
			"Due": {"date": null}
		}
	}`, update.Body)
}

func TestPagesUpdate_WithDatabaseFlag(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)

	_, err := execute(t, commands.NewPagesCommand(), "update", taskPageID, "--database", tasksDatabaseID, "--set", "Points=")
	require.NoError(t, err)

	_, readPage := service.find(http.MethodGet, "/v1/pages/"+taskPageID)
	assert.False(t, readPage)

	update, ok := service.find(http.MethodPatch, "/v1/pages/"+taskPageID)
	require.True(t, ok)
	requireBodyEqual(t, `{"properties": {"Points": {"number": null}}}`, update.Body)
}

func TestPagesDelete(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)

	out, err := execute(t, commands.NewPagesCommand(), "delete", taskPageID)
	require.NoError(t, err)
	assert.Equal(t, taskPageID, decodeJSON[map[string]string](t, out)["page_id"])

	archive, ok := service.find(http.MethodPatch, "/v1/pages/"+taskPageID)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"archived": true}, archive.Body)
}

func TestPagesDelete_NotFound(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)

	_, err := execute(t, commands.NewPagesCommand(), "delete", "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, notion.ErrNotFound)
}

func TestPagesTask(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)

	_, err := execute(t, commands.NewPagesCommand(), "task", "Tasks", "Buy milk")
	require.NoError(t, err)

	create, ok := service.find(http.MethodPost, "/v1/pages")
	require.True(t, ok)
	requireBodyEqual(t, `{
		"parent": {"type": "database_id", "database_id": "`+tasksDatabaseID+`"},
		"properties": {
			"Name": {"title": [{"text": {"content": "Buy milk"}}]},
			"Status": {"status": {"name": "To Do"}}
		}
	}`, create.Body)
}

func TestMissingToken(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)
	viper.Set("token", "")

	_, err := execute(t, commands.NewDatabasesCommand(), "list")
	require.ErrorIs(t, err, notion.ErrAuthentication)
	require.ErrorIs(t, err, constants.ErrNoTokenConfigured)
	assert.Empty(t, service.Requests(), "nothing is sent without a token")
}

func TestServiceRejectsToken(t *testing.T) {
	service := newFakeNotion(t)
	useConfig(t, service, constants.FormatJSON)
	service.setOverride(func(w http.ResponseWriter, _ *http.Request) bool {
		writeError(w, http.StatusUnauthorized, "unauthorized", "API token is invalid.")

		return true
	})

	_, err := execute(t, commands.NewDatabasesCommand(), "list")
	require.ErrorIs(t, err, notion.ErrAuthentication)
	assert.Contains(t, commands.FormatError(err), notion.Describe(notion.KindAuthentication))
	assert.Len(t, service.Requests(), 1, "authentication errors are not retried")
}
