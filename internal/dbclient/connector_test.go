package dbclient_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"migrator/internal/config"
	"migrator/internal/dbclient"
	"migrator/internal/domain"
	"migrator/internal/notion"
)

func TestNewConnector_SQLite(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	cfg := &config.Config{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "collections.db"),
	}

	conn, err := dbclient.NewConnector(cfg, logger)
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	defer conn.Close()

	page, err := conn.FetchPage(context.Background(), "empty", "")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Records) != 0 || page.HasMore {
		t.Errorf("expected an empty page, got %+v", page)
	}
}

func TestNewConnector_Notion(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	cfg := &config.Config{
		Backend:       config.BackendNotion,
		NotionAPIKey:  "secret",
		NotionVersion: notion.DefaultVersion,
		NotionBaseURL: notion.DefaultBaseURL,
		HTTPTimeout:   time.Second,
	}

	conn, err := dbclient.NewConnector(cfg, logger)
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	if _, ok := conn.(*notion.Client); !ok {
		t.Errorf("expected *notion.Client, got %T", conn)
	}
	_ = conn.Close()
}

func TestNewConnector_Errors(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	cases := map[string]*config.Config{
		"unknown backend": {Backend: "oracle"},
		"notion no token": {Backend: config.BackendNotion},
		"mongo no uri":    {Backend: config.BackendMongoDB},
	}
	for name, cfg := range cases {
		conn, err := dbclient.NewConnector(cfg, logger)
		if err == nil {
			t.Errorf("%s: expected error", name)
		}
		if conn != nil {
			t.Errorf("%s: expected nil connector, got %T", name, conn)
		}
	}
}

func TestPutSchema(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	ctx := context.Background()
	schema := domain.NewSchema(domain.PropertySchema{Name: "Done", Kind: domain.KindCheckbox})

	conn, err := dbclient.NewConnector(&config.Config{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "collections.db"),
	}, logger)
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	defer conn.Close()

	if err := dbclient.PutSchema(ctx, conn, "target", schema); err != nil {
		t.Fatalf("put schema: %v", err)
	}
	got, err := conn.FetchSchema(ctx, "target")
	if err != nil {
		t.Fatalf("fetch schema: %v", err)
	}
	if names := got.Names(); len(names) != 1 || names[0] != "Done" {
		t.Errorf("unexpected schema %v", names)
	}

	remote, err := dbclient.NewConnector(&config.Config{Backend: config.BackendNotion, NotionAPIKey: "secret"}, logger)
	if err != nil {
		t.Fatalf("connector: %v", err)
	}
	defer remote.Close()
	if err := dbclient.PutSchema(ctx, remote, "target", schema); err == nil {
		t.Error("expected the notion backend to refuse schema writes")
	}
}
