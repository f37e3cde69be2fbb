package storage_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"migrator/internal/domain"
	"migrator/internal/etl"
	"migrator/internal/etl/etltest"
	"migrator/internal/storage"
)

func openStore(t *testing.T) *storage.CollectionStore {
	t.Helper()
	db, err := storage.Open(storage.MemoryPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewCollectionStore(db)
}

func seed(t *testing.T, s *storage.CollectionStore, collection string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := s.CreateRecord(ctx, collection, map[string]domain.Value{
			"Name":  domain.Title{domain.TextSpan(fmt.Sprintf("Task %d", i))},
			"Score": domain.NumberOf(float64(i)),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "collections.db")
	db, err := storage.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.Conn().Ping(); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestCollectionStore_Pagination(t *testing.T) {
	s := openStore(t)
	seed(t, s, "source", 150)
	seed(t, s, "other", 3)
	ctx := context.Background()

	first, err := s.FetchPage(ctx, "source", "")
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Records) != domain.PageSize || !first.HasMore || first.NextCursor == "" {
		t.Fatalf("unexpected first page: %d records, hasMore=%v, cursor=%q",
			len(first.Records), first.HasMore, first.NextCursor)
	}

	second, err := s.FetchPage(ctx, "source", first.NextCursor)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Records) != 50 || second.HasMore {
		t.Fatalf("unexpected second page: %d records, hasMore=%v", len(second.Records), second.HasMore)
	}

	last := second.Records[len(second.Records)-1]
	if got := domain.PlainText(last.Properties["Name"].(domain.Title)); got != "Task 149" {
		t.Errorf("expected last record 'Task 149', got %q", got)
	}
}

func TestCollectionStore_InvalidCursor(t *testing.T) {
	s := openStore(t)
	if _, err := s.FetchPage(context.Background(), "source", "not-a-number"); err == nil {
		t.Fatal("expected error for invalid cursor")
	}
}

func TestCollectionStore_Schema(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.FetchSchema(ctx, "missing"); err == nil {
		t.Fatal("expected error for unknown schema")
	}

	schema := domain.NewSchema(
		domain.PropertySchema{Name: "Score", Kind: domain.KindNumber},
		domain.PropertySchema{Name: "Name", Kind: domain.KindTitle},
	)
	if err := s.PutSchema(ctx, "target", schema); err != nil {
		t.Fatalf("put schema: %v", err)
	}
	// Replacing keeps a single row.
	schema = domain.NewSchema(
		domain.PropertySchema{Name: "Score", Kind: domain.KindNumber},
		domain.PropertySchema{Name: "Name", Kind: domain.KindTitle},
		domain.PropertySchema{Name: "Done", Kind: domain.KindCheckbox},
	)
	if err := s.PutSchema(ctx, "target", schema); err != nil {
		t.Fatalf("replace schema: %v", err)
	}

	got, err := s.FetchSchema(ctx, "target")
	if err != nil {
		t.Fatalf("fetch schema: %v", err)
	}
	if names := fmt.Sprint(got.Names()); names != "[Score Name Done]" {
		t.Errorf("unexpected schema %s", names)
	}
}

// ─────────────────────────────────────────────────────────────
// End-to-end: engine between two SQLite collections
// ─────────────────────────────────────────────────────────────

func TestEngine_MigratesBetweenCollections(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	seed(t, s, "source", 120)
	if err := s.PutSchema(ctx, "target", domain.NewSchema(
		domain.PropertySchema{Name: "Name", Kind: domain.KindTitle},
		domain.PropertySchema{Name: "Done", Kind: domain.KindCheckbox},
	)); err != nil {
		t.Fatalf("put schema: %v", err)
	}

	logger, _ := logtest.NewNullLogger()
	engine := &etl.Engine{Client: s, Pacer: &etltest.CountingPacer{}, Logger: logger}

	dry, err := engine.Run(ctx, "source", "target", etl.Options{DryRun: true, BatchSize: 25})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if n, _ := s.Count(ctx, "target"); n != 0 || dry.Simulated != 120 {
		t.Fatalf("dry run wrote %d records (simulated %d)", n, dry.Simulated)
	}

	live, err := engine.Run(ctx, "source", "target", etl.Options{BatchSize: 25})
	if err != nil {
		t.Fatalf("live run: %v", err)
	}
	if live.Succeeded != 120 || live.Failed != 0 {
		t.Errorf("unexpected result %+v", live)
	}
	if n, _ := s.Count(ctx, "target"); n != 120 {
		t.Errorf("expected 120 target records, got %d", n)
	}

	page, err := s.FetchPage(ctx, "target", "")
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	first := page.Records[0]
	if _, ok := first.Properties["Score"]; ok {
		t.Error("Score is not in the target schema and must not be copied")
	}
	if first.Properties["Done"] != domain.Checkbox(false) {
		t.Errorf("expected Done=false, got %#v", first.Properties["Done"])
	}
	if got := domain.PlainText(first.Properties["Name"].(domain.Title)); got != "Task 0" {
		t.Errorf("expected 'Task 0', got %q", got)
	}
}
