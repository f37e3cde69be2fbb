package domain

import (
	"context"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one item of a collection.
type Record struct {
	ID         string           `json:"id"`
	Properties map[string]Value `json:"-"`
}

// Page is a single slice of a paginated collection query.
type Page struct {
	Records    []Record
	HasMore    bool
	NextCursor string
}

// PageSize is the number of records the remote service returns per query.
const PageSize = 100

// PropertySchema describes one named slot of a collection.
// Config carries kind-specific metadata (select options, relation target, ...)
// and is never interpreted.
type PropertySchema struct {
	ID     string
	Name   string
	Kind   Kind
	Config json.RawMessage
}

// Schema is the ordered set of properties of a collection.
// Iteration follows the order the remote service declared the properties in.
type Schema struct {
	props *orderedmap.OrderedMap[string, PropertySchema]
}

// NewSchema builds a schema from properties in declaration order.
func NewSchema(props ...PropertySchema) *Schema {
	s := &Schema{props: orderedmap.New[string, PropertySchema]()}
	for _, p := range props {
		s.props.Set(p.Name, p)
	}
	return s
}

// Len returns the number of properties.
func (s *Schema) Len() int {
	if s == nil || s.props == nil {
		return 0
	}
	return s.props.Len()
}

// Get returns the property with the given name.
func (s *Schema) Get(name string) (PropertySchema, bool) {
	if s == nil || s.props == nil {
		return PropertySchema{}, false
	}
	return s.props.Get(name)
}

// Properties returns the properties in declaration order.
func (s *Schema) Properties() []PropertySchema {
	out := make([]PropertySchema, 0, s.Len())
	if s.Len() == 0 {
		return out
	}
	for pair := s.props.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Names returns the property names in declaration order.
func (s *Schema) Names() []string {
	props := s.Properties()
	names := make([]string, len(props))
	for i, p := range props {
		names[i] = p.Name
	}
	return names
}

// ── Collection client ──────────────────────────────────────

// CollectionClient is the contract every backend fulfils.
// Network, auth and storage concerns live entirely behind it.
type CollectionClient interface {
	// FetchPage returns up to PageSize records starting at cursor.
	// An empty cursor starts from the beginning.
	FetchPage(ctx context.Context, collectionID, cursor string) (*Page, error)

	// FetchSchema returns the property schema of a collection.
	FetchSchema(ctx context.Context, collectionID string) (*Schema, error)

	// CreateRecord creates one record in the collection.
	CreateRecord(ctx context.Context, collectionID string, props map[string]Value) (*Record, error)
}

// RemoteError is a failure reported by the remote service.
type RemoteError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("remote error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("remote error %d (%s): %s", e.Status, e.Code, e.Message)
}
