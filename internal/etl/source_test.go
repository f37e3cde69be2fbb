package etl_test

import (
	"context"
	"testing"

	"migrator/internal/domain"
	"migrator/internal/etl"
	"migrator/internal/etl/etltest"
)

type brokenCursorClient struct {
	*etltest.FakeClient
}

func (b brokenCursorClient) FetchPage(ctx context.Context, id, cursor string) (*domain.Page, error) {
	page, err := b.FakeClient.FetchPage(ctx, id, cursor)
	if err != nil {
		return nil, err
	}
	page.NextCursor = ""
	return page, nil
}

func TestFetchAll_ReportsRunningCount(t *testing.T) {
	client := etltest.NewFakeClient()
	client.PageSize = 4
	client.Records["c"] = fakeRecords(10)

	var counts []int
	records, err := etl.FetchAll(context.Background(), client, "c", func(n int) { counts = append(counts, n) })
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(records) != 10 {
		t.Errorf("expected 10 records, got %d", len(records))
	}
	if len(counts) != 3 || counts[0] != 4 || counts[1] != 8 || counts[2] != 10 {
		t.Errorf("unexpected running counts %v", counts)
	}
	for i, r := range records {
		if r.ID != client.Records["c"][i].ID {
			t.Fatalf("record %d out of order", i)
		}
	}
}

func TestFetchAll_EmptyCollection(t *testing.T) {
	client := etltest.NewFakeClient()

	records, err := etl.FetchAll(context.Background(), client, "empty", nil)
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(records) != 0 || client.FetchCalls != 1 {
		t.Errorf("expected one call and no records, got %d calls, %d records", client.FetchCalls, len(records))
	}
}

func TestPages_StopsWhenConsumerBreaks(t *testing.T) {
	client := etltest.NewFakeClient()
	client.PageSize = 1
	client.Records["c"] = fakeRecords(5)

	for range etl.Pages(context.Background(), client, "c") {
		break
	}
	if client.FetchCalls != 1 {
		t.Errorf("expected 1 fetch, got %d", client.FetchCalls)
	}
}

func TestPages_MissingCursorIsAnError(t *testing.T) {
	fake := etltest.NewFakeClient()
	fake.PageSize = 1
	fake.Records["c"] = fakeRecords(3)

	_, err := etl.FetchAll(context.Background(), brokenCursorClient{fake}, "c", nil)
	if err == nil {
		t.Fatal("expected error for has_more without cursor")
	}
	if fake.FetchCalls != 1 {
		t.Errorf("expected the loop to stop after the first page, got %d calls", fake.FetchCalls)
	}
}
