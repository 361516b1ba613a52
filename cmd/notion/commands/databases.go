package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

// NewDatabasesCommand creates the databases command group.
func NewDatabasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "databases",
		Aliases: []string{"database", "db"},
		Short:   "Browse databases",
		Long:    "List, inspect and search the databases shared with the integration",
	}

	cmd.AddCommand(newDatabasesListCommand())
	cmd.AddCommand(newDatabasesGetCommand())
	cmd.AddCommand(newDatabasesFindCommand())

	return cmd
}

func newDatabasesListCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List databases",
		Long:  "List every database shared with the integration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := NewSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close()

			dbs, err := session.Directory.Databases(context.Background(), refresh)
			if err != nil {
				return err
			}

			return outputDatabases(cmd.OutOrStdout(), dbs)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the database cache")

	return cmd
}

func newDatabasesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get DATABASE",
		Short: "Get database details",
		Long:  "Display a database and its property schema. DATABASE is an id or a title.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := NewSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close()

			db, err := session.Database(context.Background(), args[0])
			if err != nil {
				return err
			}

			return outputDatabaseDetails(cmd.OutOrStdout(), db)
		},
	}
}

func newDatabasesFindCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "find NAME",
		Short: "Find a database by title",
		Long: `Find the database whose title contains NAME, ignoring case.

Cached lookups prefer an exact title. With --refresh the service is searched
directly and the first database in listing order whose title contains NAME is
returned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := NewSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := context.Background()

			var db *notion.Database
			if refresh {
				db, err = session.Client.FindDatabase(ctx, args[0])
			} else {
				db, err = session.Directory.Find(ctx, args[0])
			}

			if err != nil {
				return err
			}

			return outputDatabaseDetails(cmd.OutOrStdout(), db)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "search the service instead of the database cache")

	return cmd
}
