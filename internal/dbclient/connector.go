package dbclient

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"migrator/internal/config"
	"migrator/internal/domain"
	"migrator/internal/notion"
	"migrator/internal/storage"
)

// Connector is a collection client owning a connection that must be closed.
type Connector interface {
	domain.CollectionClient

	// Close releases the connection.
	Close() error
}

// SchemaWriter is implemented by backends that keep collection schemas
// themselves. Notion owns its schemas, so only the database backends do.
type SchemaWriter interface {
	PutSchema(ctx context.Context, collectionID string, schema *domain.Schema) error
}

// PutSchema stores schema as the schema of collectionID when the backend
// behind conn supports it.
func PutSchema(ctx context.Context, conn Connector, collectionID string, schema *domain.Schema) error {
	w, ok := conn.(SchemaWriter)
	if !ok {
		return fmt.Errorf("backend does not store schemas; define %s in the service itself", collectionID)
	}
	return w.PutSchema(ctx, collectionID, schema)
}

// NewConnector creates the Connector selected by cfg.Backend.
func NewConnector(cfg *config.Config, logger logrus.FieldLogger) (Connector, error) {
	switch cfg.Backend {
	case config.BackendNotion:
		c, err := notion.New(cfg.NotionAPIKey,
			notion.WithBaseURL(cfg.NotionBaseURL),
			notion.WithVersion(cfg.NotionVersion),
			notion.WithTimeout(cfg.HTTPTimeout),
			notion.WithLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendMongoDB:
		c, err := NewMongoClient(cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendSQLite:
		db, err := storage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &sqliteConnector{CollectionStore: storage.NewCollectionStore(db), db: db}, nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Backend)
	}
}

type sqliteConnector struct {
	*storage.CollectionStore
	db *storage.DB
}

func (c *sqliteConnector) Close() error { return c.db.Close() }
