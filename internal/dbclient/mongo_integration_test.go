package dbclient_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"migrator/internal/dbclient"
	"migrator/internal/domain"
)

// Runs against a real server when MIGRATOR_TEST_MONGO_URI is set, e.g.
// mongodb://localhost:27017/migrator_test.
func newMongoClient(t *testing.T) *dbclient.MongoClient {
	t.Helper()
	uri := os.Getenv("MIGRATOR_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("MIGRATOR_TEST_MONGO_URI not set")
	}
	logger, _ := logtest.NewNullLogger()
	c, err := dbclient.NewMongoClient(uri, "", logger)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMongoClient_RoundTrip(t *testing.T) {
	c := newMongoClient(t)
	ctx := context.Background()
	collection := "records_" + uuid.NewString()[:8]

	for i := 0; i < 150; i++ {
		if _, err := c.CreateRecord(ctx, collection, map[string]domain.Value{
			"Score": domain.NumberOf(float64(i)),
			"Done":  domain.Checkbox(i%2 == 0),
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	first, err := c.FetchPage(ctx, collection, "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Records) != domain.PageSize || !first.HasMore {
		t.Fatalf("unexpected first page: %d records, hasMore=%v", len(first.Records), first.HasMore)
	}
	second, err := c.FetchPage(ctx, collection, first.NextCursor)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Records) != 50 || second.HasMore {
		t.Fatalf("unexpected second page: %d records, hasMore=%v", len(second.Records), second.HasMore)
	}
	last := second.Records[49].Properties["Score"].(domain.Number)
	if last.Value == nil || *last.Value != 149 {
		t.Errorf("expected last score 149, got %+v", last)
	}

	if _, err := c.FetchSchema(ctx, collection); err == nil {
		t.Error("expected error before the schema is stored")
	}
	schema := domain.NewSchema(
		domain.PropertySchema{Name: "Score", Kind: domain.KindNumber},
		domain.PropertySchema{Name: "Done", Kind: domain.KindCheckbox},
	)
	if err := c.PutSchema(ctx, collection, schema); err != nil {
		t.Fatalf("put schema: %v", err)
	}
	got, err := c.FetchSchema(ctx, collection)
	if err != nil {
		t.Fatalf("fetch schema: %v", err)
	}
	if got.Len() != 2 {
		t.Errorf("expected 2 properties, got %v", got.Names())
	}
}
