// Package etltest provides in-memory collaborators for migration tests.
package etltest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"migrator/internal/domain"
)

// CreateCall records one CreateRecord invocation.
type CreateCall struct {
	CollectionID string
	Properties   map[string]domain.Value
}

// FakeClient is an in-memory domain.CollectionClient that records calls.
type FakeClient struct {
	mu sync.Mutex

	Records  map[string][]domain.Record
	Schemas  map[string]*domain.Schema
	PageSize int // 0 means domain.PageSize

	FetchErr  error
	SchemaErr error
	// CreateErr, when set, decides whether a create fails.
	CreateErr func(collectionID string, props map[string]domain.Value) error

	FetchCalls  int
	Cursors     []string
	SchemaCalls int
	Creates     []CreateCall
}

// NewFakeClient returns an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Records: map[string][]domain.Record{},
		Schemas: map[string]*domain.Schema{},
	}
}

func (f *FakeClient) FetchPage(_ context.Context, collectionID, cursor string) (*domain.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FetchCalls++
	f.Cursors = append(f.Cursors, cursor)
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}

	size := f.PageSize
	if size == 0 {
		size = domain.PageSize
	}
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, fmt.Errorf("bad cursor %q", cursor)
		}
		start = n
	}

	all := f.Records[collectionID]
	end := min(start+size, len(all))
	page := &domain.Page{Records: append([]domain.Record(nil), all[start:end]...)}
	if end < len(all) {
		page.HasMore = true
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func (f *FakeClient) FetchSchema(_ context.Context, collectionID string) (*domain.Schema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SchemaCalls++
	if f.SchemaErr != nil {
		return nil, f.SchemaErr
	}
	s, ok := f.Schemas[collectionID]
	if !ok {
		return nil, fmt.Errorf("schema not found for collection %s", collectionID)
	}
	return s, nil
}

func (f *FakeClient) CreateRecord(_ context.Context, collectionID string, props map[string]domain.Value) (*domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Creates = append(f.Creates, CreateCall{CollectionID: collectionID, Properties: props})
	if f.CreateErr != nil {
		if err := f.CreateErr(collectionID, props); err != nil {
			return nil, err
		}
	}
	rec := domain.Record{ID: fmt.Sprintf("%s-%d", collectionID, len(f.Records[collectionID])+1), Properties: props}
	f.Records[collectionID] = append(f.Records[collectionID], rec)
	return &rec, nil
}

// CountingPacer counts waits without sleeping.
type CountingPacer struct {
	mu    sync.Mutex
	Waits int
}

func (p *CountingPacer) Wait(context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Waits++
}
