package etl

import (
	"context"
	"errors"
	"iter"

	"migrator/internal/domain"
)

// ── Source pages ───────────────────────────────────────────
// A collection is read page by page, threading the cursor forward
// until the service reports there is nothing left.

var errMissingCursor = errors.New("page reports more results but no next cursor")

// Pages yields every page of a collection in order. Iteration stops at the
// first error, which is yielded with a nil page.
func Pages(ctx context.Context, client domain.CollectionClient, collectionID string) iter.Seq2[*domain.Page, error] {
	return func(yield func(*domain.Page, error) bool) {
		cursor := ""
		for {
			page, err := client.FetchPage(ctx, collectionID, cursor)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if !page.HasMore {
				return
			}
			if page.NextCursor == "" {
				yield(nil, errMissingCursor)
				return
			}
			cursor = page.NextCursor
		}
	}
}

// FetchAll drains Pages into a single slice. onPage, when non-nil, is
// called with the running record count after every page.
func FetchAll(ctx context.Context, client domain.CollectionClient, collectionID string, onPage func(loaded int)) ([]domain.Record, error) {
	records := make([]domain.Record, 0, domain.PageSize)
	for page, err := range Pages(ctx, client, collectionID) {
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if onPage != nil {
			onPage(len(records))
		}
	}
	return records, nil
}
