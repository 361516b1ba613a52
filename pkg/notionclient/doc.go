// Package notionclient provides the main entry point for creating Notion API clients.
//
// The returned notion.Client lists, queries and edits databases shared with an
// internal integration:
//
//	client, err := notionclient.NewWithToken(ctx, token)
//	if err != nil {
//		return err
//	}
//
//	db, err := client.FindDatabase(ctx, "Tasks")
//	if err != nil {
//		return err
//	}
//
//	filter := notion.Where("Status", notion.KindStatus, "equals", "In progress")
//	pages, err := client.QueryDatabase(ctx, db.ID, &filter, nil)
//
// Every call completes its retries and pagination before returning. Failures
// are *notion.APIError values whose Kind can be matched with errors.Is against
// the notion.Err* sentinels.
package notionclient
