package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"migrator/internal/domain"
)

// CollectionStore implements domain.CollectionClient on SQLite.
// Each record is one row; properties are stored as JSON text.
type CollectionStore struct {
	db *DB
}

// NewCollectionStore creates a new CollectionStore.
func NewCollectionStore(db *DB) *CollectionStore {
	return &CollectionStore{db: db}
}

func (s *CollectionStore) FetchPage(ctx context.Context, collectionID, cursor string) (*domain.Page, error) {
	var after int64
	if cursor != "" {
		n, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor %q: %w", cursor, err)
		}
		after = n
	}

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT seq, id, properties FROM records
		 WHERE collection = ? AND seq > ?
		 ORDER BY seq LIMIT ?`,
		collectionID, after, domain.PageSize+1,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collectionID, err)
	}
	defer rows.Close()

	page := &domain.Page{Records: make([]domain.Record, 0, domain.PageSize)}
	var lastSeq int64
	for rows.Next() {
		if len(page.Records) == domain.PageSize {
			page.HasMore = true
			break
		}
		var (
			seq   int64
			id    string
			props string
		)
		if err := rows.Scan(&seq, &id, &props); err != nil {
			return nil, err
		}
		decoded, err := domain.DecodeProperties([]byte(props))
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		page.Records = append(page.Records, domain.Record{ID: id, Properties: decoded})
		lastSeq = seq
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if page.HasMore {
		page.NextCursor = strconv.FormatInt(lastSeq, 10)
	}
	return page, nil
}

func (s *CollectionStore) FetchSchema(ctx context.Context, collectionID string) (*domain.Schema, error) {
	var props string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT properties FROM schemas WHERE collection = ?`, collectionID,
	).Scan(&props)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schema not found for collection %s", collectionID)
	}
	if err != nil {
		return nil, err
	}
	return domain.DecodeSchema([]byte(props))
}

func (s *CollectionStore) CreateRecord(ctx context.Context, collectionID string, props map[string]domain.Value) (*domain.Record, error) {
	encoded, err := domain.EncodeProperties(props)
	if err != nil {
		return nil, err
	}
	id := uuid.New().String()
	if _, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO records (id, collection, properties, created_at) VALUES (?, ?, ?, ?)`,
		id, collectionID, string(encoded), time.Now(),
	); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collectionID, err)
	}
	return &domain.Record{ID: id, Properties: props}, nil
}

// PutSchema stores (or replaces) the schema of a collection.
func (s *CollectionStore) PutSchema(ctx context.Context, collectionID string, schema *domain.Schema) error {
	encoded, err := domain.EncodeSchema(schema)
	if err != nil {
		return err
	}
	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO schemas (collection, properties, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(collection) DO UPDATE SET properties = excluded.properties, updated_at = excluded.updated_at`,
		collectionID, string(encoded), time.Now(),
	)
	return err
}

// Count returns the number of records in a collection.
func (s *CollectionStore) Count(ctx context.Context, collectionID string) (int, error) {
	var n int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection = ?`, collectionID,
	).Scan(&n)
	return n, err
}
