package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"migrator/internal/domain"
)

// ── Notion client ──────────────────────────────────────────
// Implements domain.CollectionClient over the Notion REST API.
// Collections are Notion databases, records are pages.

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2022-06-28"
)

// Client talks to the Notion API with a single integration token.
type Client struct {
	baseURL string
	token   string
	version string
	http    *http.Client
	logger  logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithVersion sets the Notion-Version header.
func WithVersion(v string) Option {
	return func(c *Client) { c.version = v }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client authenticated with token.
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("notion token is required")
	}
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		version: DefaultVersion,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Close drops idle keep-alive connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type queryRequest struct {
	PageSize    int    `json:"page_size"`
	StartCursor string `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []pageObject `json:"results"`
	HasMore    bool         `json:"has_more"`
	NextCursor *string      `json:"next_cursor"`
}

type pageObject struct {
	ID         string          `json:"id"`
	Properties json.RawMessage `json:"properties"`
}

type databaseObject struct {
	ID         string          `json:"id"`
	Properties json.RawMessage `json:"properties"`
}

type createPageRequest struct {
	Parent     parent          `json:"parent"`
	Properties json.RawMessage `json:"properties"`
}

type parent struct {
	DatabaseID string `json:"database_id"`
}

// FetchPage queries one page of a database.
func (c *Client) FetchPage(ctx context.Context, collectionID, cursor string) (*domain.Page, error) {
	req := queryRequest{PageSize: domain.PageSize, StartCursor: cursor}
	var resp queryResponse
	path := "/v1/databases/" + url.PathEscape(collectionID) + "/query"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("query database: %w", err)
	}

	page := &domain.Page{
		Records: make([]domain.Record, 0, len(resp.Results)),
		HasMore: resp.HasMore,
	}
	if resp.NextCursor != nil {
		page.NextCursor = *resp.NextCursor
	}
	for _, p := range resp.Results {
		rec, err := toRecord(p)
		if err != nil {
			return nil, err
		}
		page.Records = append(page.Records, rec)
	}
	return page, nil
}

// FetchSchema retrieves a database and returns its property schema.
func (c *Client) FetchSchema(ctx context.Context, collectionID string) (*domain.Schema, error) {
	var db databaseObject
	if err := c.do(ctx, http.MethodGet, "/v1/databases/"+url.PathEscape(collectionID), nil, &db); err != nil {
		return nil, fmt.Errorf("retrieve database: %w", err)
	}
	return domain.DecodeSchema(db.Properties)
}

// CreateRecord creates a page inside the database.
func (c *Client) CreateRecord(ctx context.Context, collectionID string, props map[string]domain.Value) (*domain.Record, error) {
	encoded, err := domain.EncodeProperties(props)
	if err != nil {
		return nil, err
	}
	req := createPageRequest{
		Parent:     parent{DatabaseID: collectionID},
		Properties: encoded,
	}
	var created pageObject
	if err := c.do(ctx, http.MethodPost, "/v1/pages", req, &created); err != nil {
		return nil, err
	}
	rec, err := toRecord(created)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func toRecord(p pageObject) (domain.Record, error) {
	rec := domain.Record{ID: p.ID, Properties: map[string]domain.Value{}}
	if len(p.Properties) == 0 {
		return rec, nil
	}
	props, err := domain.DecodeProperties(p.Properties)
	if err != nil {
		return domain.Record{}, fmt.Errorf("page %s: %w", p.ID, err)
	}
	rec.Properties = props
	return rec, nil
}

// do sends a JSON request and decodes a JSON response into out.
// Non-2xx responses become *domain.RemoteError.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("notion request")

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	remote := &domain.RemoteError{Status: resp.StatusCode}
	if err := json.Unmarshal(data, remote); err != nil || remote.Message == "" {
		remote.Message = strings.TrimSpace(string(data))
	}
	// The body may carry its own status; the HTTP one wins.
	remote.Status = resp.StatusCode
	return remote
}
