// Package notion provides types, interfaces, and helpers for working with
// Notion databases and pages.
//
// # Overview
//
// The notion package defines the property value union (Value), the domain
// records (Page, Database), query filters and sorts, the cursor paginator and
// the error taxonomy. A concrete Client is provided by the notionclient
// package, which wires configuration, transport and credentials.
//
// Getting a client
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/notion-client/pkg/notion"
//	  "github.com/fivetwenty-io/notion-client/pkg/notionclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := notionclient.New(ctx, &notion.Config{Token: "secret_..."})
//	  if err != nil { log.Fatal(err) }
//
//	  db, err := cli.FindDatabase(ctx, "Tasks")
//	  if err != nil { log.Fatal(err) }
//
//	  page, err := cli.CreatePage(ctx, db.ID, map[string]notion.Value{
//	    "Name":   notion.Title("Write report"),
//	    "Status": notion.Select("Todo"),
//	    "Tags":   notion.MultiSelect("work", "q3"),
//	  })
//	  if err != nil { log.Fatal(err) }
//	  _ = page
//	}
//
// # Property values
//
// Value is a closed union: one constructor per kind (Title, RichText, Number,
// Select, MultiSelect, Date, Checkbox, URL, Email, PhoneNumber, Status).
// Encode and Decode convert between values and the service's wire objects;
// Decode(Encode(v)) returns v for every kind, including empty values.
//
// # Queries and pagination
//
//	pages, err := cli.QueryDatabase(ctx, db.ID,
//	  &notion.Filter{Property: "Status", Kind: notion.KindSelect, Condition: "equals", Value: "Done"},
//	  []notion.Sort{notion.SortBy("Due", notion.Descending)})
//
// Listings are drained completely before returning. Paginator also exposes a
// lazy Iterator for callers that build their own requests.
//
// # Errors
//
// Every failure is an *APIError carrying an ErrorKind. Use errors.Is with the
// Err* sentinels, KindOf, or helpers such as IsNotFound to branch on it.
package notion
