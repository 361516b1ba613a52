package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/notion-client/internal/constants"
	"github.com/fivetwenty-io/notion-client/pkg/notion"
)

const (
	taskStatusProperty = "Status"
	defaultTaskStatus  = "To Do"
)

// NewPagesCommand creates the pages command group.
func NewPagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pages",
		Aliases: []string{"page"},
		Short:   "Manage pages",
		Long:    "Query, create, update and archive the pages of a database",
	}

	cmd.AddCommand(newPagesQueryCommand())
	cmd.AddCommand(newPagesGetCommand())
	cmd.AddCommand(newPagesCreateCommand())
	cmd.AddCommand(newPagesUpdateCommand())
	cmd.AddCommand(newPagesDeleteCommand())
	cmd.AddCommand(newPagesTaskCommand())

	return cmd
}

func newPagesQueryCommand() *cobra.Command {
	var (
		filter string
		sorts  []string
		where  []string
	)

	cmd := &cobra.Command{
		Use:   "query DATABASE",
		Short: "Query the pages of a database",
		Long: `Query every page of a database, following pagination to the end.

--where NAME=VALUE adds an equality condition typed by the database schema;
an empty VALUE matches empty properties. --filter takes a raw JSON filter in
the service's format. All conditions must hold.`,
		Example: `  notion pages query Tasks --where Status=Done --sort Due:desc
  notion pages query Tasks --filter '{"property":"Done","checkbox":{"equals":false}}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := NewSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := context.Background()

			db, err := session.Database(ctx, args[0])
			if err != nil {
				return err
			}

			queryFilter, err := buildFilter(db, filter, where)
			if err != nil {
				return err
			}

			querySorts, err := parseSorts(sorts)
			if err != nil {
				return err
			}

			pages, err := session.Client.QueryDatabase(ctx, db.ID, queryFilter, querySorts)
			if err != nil {
				return err
			}

			return outputPages(cmd.OutOrStdout(), pages, pageColumns(db.Properties))
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "raw JSON filter")
	cmd.Flags().StringArrayVar(&sorts, "sort", nil, "sort by PROPERTY[:asc|:desc], repeatable")
	cmd.Flags().StringArrayVar(&where, "where", nil, "match NAME=VALUE, repeatable")

	return cmd
}

func newPagesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get PAGE_ID",
		Short: "Get page details",
		Long:  "Display a page and all of its property values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := NewSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close()

			page, err := session.Client.GetPage(context.Background(), args[0])
			if err != nil {
				return err
			}

			return outputPageDetails(cmd.OutOrStdout(), page)
		},
	}
}

func newPagesCreateCommand() *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "create DATABASE",
		Short: "Create a page",
		Long: `Create a page in a database.

Values are typed by the database schema: multi-select tags are comma
separated and date ranges are written START..END.`,
		Example: `  notion pages create Tasks --set Name="Write report" --set Tags=work,urgent --set Due=2024-01-01..2024-01-03`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sets) == 0 {
				return constants.ErrNoPropertiesGiven
			}

			session, err := NewSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := context.Background()

			db, err := session.Database(ctx, args[0])
			if err != nil {
				return err
			}

			props, err := parseAssignments(db, sets)
			if err != nil {
				return err
			}

			page, err := session.Client.CreatePage(ctx, db.ID, props)
			if err != nil {
				return err
			}

			return outputPageDetails(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "property assignment NAME=VALUE, repeatable")

	return cmd
}

func newPagesUpdateCommand() *cobra.Command {
	var (
		sets     []string
		database string
	)

	cmd := &cobra.Command{
		Use:   "update PAGE_ID",
		Short: "Update a page",
		Long: `Update properties of a page. Properties not named keep their values and an
empty VALUE clears a property.

The page's database supplies the schema; pass --database when the page
itself cannot be read.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sets) == 0 {
				return constants.ErrNoPropertiesGiven
			}

			session, err := NewSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := context.Background()

			db, err := parentDatabase(ctx, session, args[0], database)
			if err != nil {
				return err
			}

			props, err := parseAssignments(db, sets)
			if err != nil {
				return err
			}

			page, err := session.Client.UpdatePage(ctx, args[0], props)
			if err != nil {
				return err
			}

			return outputPageDetails(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "property assignment NAME=VALUE, repeatable")
	cmd.Flags().StringVar(&database, "database", "", "database holding the page")

	return cmd
}

// parentDatabase returns the schema used to type updates of pageID.
func parentDatabase(ctx context.Context, session *Session, pageID, database string) (*notion.Database, error) {
	if database != "" {
		return session.Database(ctx, database)
	}

	page, err := session.Client.GetPage(ctx, pageID)
	if err != nil {
		return nil, fmt.Errorf("reading page schema: %w", err)
	}

	if page.Parent.DatabaseID == "" {
		return nil, &notion.APIError{
			Kind:    notion.KindValidation,
			Message: fmt.Sprintf("page %s is not in a database", pageID),
		}
	}

	return session.Client.GetDatabase(ctx, page.Parent.DatabaseID)
}

func newPagesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete PAGE_ID",
		Aliases: []string{"archive"},
		Short:   "Archive a page",
		Long:    "Move a page to the trash. Archiving an archived page succeeds.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := NewSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close()

			err = session.Client.DeletePage(context.Background(), args[0])
			if err != nil {
				return err
			}

			return outputMessage(cmd.OutOrStdout(), fmt.Sprintf("Archived page %s", args[0]), map[string]string{
				"page_id": args[0],
			})
		},
	}
}

func newPagesTaskCommand() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "task DATABASE TITLE",
		Short: "Create a task",
		Long: `Create a page with a title and a status.

The status goes to the database's Status property when it has one; both
status and select properties are accepted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := NewSession(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close()

			ctx := context.Background()

			db, err := session.Database(ctx, args[0])
			if err != nil {
				return err
			}

			props, err := taskProperties(db, args[1], status)
			if err != nil {
				return err
			}

			page, err := session.Client.CreatePage(ctx, db.ID, props)
			if err != nil {
				return err
			}

			return outputPageDetails(cmd.OutOrStdout(), page)
		},
	}

	cmd.Flags().StringVar(&status, "status", defaultTaskStatus, "initial status")

	return cmd
}

func taskProperties(db *notion.Database, title, status string) (map[string]notion.Value, error) {
	titleProp, ok := db.TitleProperty()
	if !ok {
		return nil, fmt.Errorf("%w: %q", constants.ErrNoTitleProperty, db.Title)
	}

	props := map[string]notion.Value{titleProp: notion.Title(title)}

	statusProp, kind, ok := db.PropertyKind(taskStatusProperty)
	if !ok || status == "" {
		return props, nil
	}

	switch kind {
	case notion.KindStatus:
		props[statusProp] = notion.Status(status)
	case notion.KindSelect:
		props[statusProp] = notion.Select(status)
	}

	return props, nil
}
