package commands_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/notion-client/cmd/notion/commands"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

func TestNewDatabasesCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewDatabasesCommand()
	assert.Equal(t, "databases", cmd.Use)
	assert.Equal(t, []string{"database", "db"}, cmd.Aliases)

	for _, name := range []string{"list", "get", "find"} {
		assert.NotNil(t, findSubcommand(cmd, name), "subcommand %s should exist", name)
	}

	assert.NotNil(t, findSubcommand(cmd, "list").Flags().Lookup("refresh"))
	assert.NotNil(t, findSubcommand(cmd, "find").Flags().Lookup("refresh"))
}

func TestNewPagesCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewPagesCommand()
	assert.Equal(t, "pages", cmd.Use)
	assert.Len(t, cmd.Commands(), 6)

	flags := map[string][]string{
		"query":  {"filter", "sort", "where"},
		"create": {"set"},
		"update": {"set", "database"},
		"task":   {"status"},
	}

	for name, flagNames := range flags {
		sub := findSubcommand(cmd, name)
		require.NotNil(t, sub, "subcommand %s should exist", name)

		for _, flagName := range flagNames {
			assert.NotNil(t, sub.Flags().Lookup(flagName), "flag %s of %s should exist", flagName, name)
		}
	}

	assert.Equal(t, "To Do", findSubcommand(cmd, "task").Flags().Lookup("status").DefValue)
	assert.Contains(t, findSubcommand(cmd, "delete").Aliases, "archive")
}

func TestNewConfigCommand(t *testing.T) {
	t.Parallel()

	cmd := commands.NewConfigCommand()
	assert.Equal(t, "config", cmd.Use)

	for _, name := range []string{"show", "set", "unset"} {
		assert.NotNil(t, findSubcommand(cmd, name), "subcommand %s should exist", name)
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Error: boom", commands.FormatError(errors.New("boom"))) //nolint:err113

	message := commands.FormatError(fmt.Errorf("getting page: %w", &notion.APIError{
		Kind:       notion.KindNotFound,
		StatusCode: 404,
		Message:    "Could not find page",
	}))
	assert.Contains(t, message, notion.Describe(notion.KindNotFound))
	assert.Contains(t, message, "getting page: NotFoundError (status 404): Could not find page")
}
