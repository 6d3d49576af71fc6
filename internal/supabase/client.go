// Package supabase talks to a Supabase table through its PostgREST API.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// PageSize is the PostgREST default row cap and the Range window size.
	PageSize = 1000
	// DeleteBatchSize bounds the id list of one DELETE filter.
	DeleteBatchSize = 100
)

// ErrNoRowsUpdated is returned when a PATCH matched nothing.
var ErrNoRowsUpdated = errors.New("no rows updated")

// APIError is a non-2xx PostgREST response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase api error (%d): %s", e.Status, e.Message)
}

// Client is a PostgREST client authenticated with one API key.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(baseURL, key string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) tableURL(table string, query url.Values) string {
	u := c.baseURL + "/rest/v1/" + url.PathEscape(table)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Select reads columns from table. With limit <= 0 every row is fetched by
// paging through Range windows of PageSize until a short page comes back.
// Rows are ordered by id so pages stay stable.
func (c *Client) Select(ctx context.Context, table, columns string, limit int) ([]Row, error) {
	if columns == "" {
		columns = "*"
	}
	q := url.Values{"select": {columns}, "order": {"id.asc"}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
		var rows []Row
		if err := c.do(ctx, http.MethodGet, c.tableURL(table, q), nil, nil, &rows); err != nil {
			return nil, fmt.Errorf("select %s: %w", table, err)
		}
		return rows, nil
	}

	var all []Row
	for start := 0; ; start += PageSize {
		var page []Row
		headers := map[string]string{"Range": fmt.Sprintf("%d-%d", start, start+PageSize-1)}
		if err := c.do(ctx, http.MethodGet, c.tableURL(table, q), headers, nil, &page); err != nil {
			return nil, fmt.Errorf("select %s at offset %d: %w", table, start, err)
		}
		all = append(all, page...)
		if len(page) < PageSize {
			return all, nil
		}
	}
}

// Update patches the row with the given id and returns the updated rows.
func (c *Client) Update(ctx context.Context, table string, id int64, fields map[string]any) ([]Row, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	q := url.Values{"id": {"eq." + strconv.FormatInt(id, 10)}}
	headers := map[string]string{"Prefer": "return=representation"}

	var rows []Row
	if err := c.do(ctx, http.MethodPatch, c.tableURL(table, q), headers, body, &rows); err != nil {
		return nil, fmt.Errorf("update %s id=%d: %w", table, id, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRowsUpdated
	}
	return rows, nil
}

// Delete removes rows by id in batches of DeleteBatchSize and returns how
// many ids were sent in successful requests.
func (c *Client) Delete(ctx context.Context, table string, ids []int64) (int, error) {
	deleted := 0
	for start := 0; start < len(ids); start += DeleteBatchSize {
		end := start + DeleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		parts := make([]string, len(batch))
		for i, id := range batch {
			parts[i] = strconv.FormatInt(id, 10)
		}
		q := url.Values{"id": {"in.(" + strings.Join(parts, ",") + ")"}}
		if err := c.do(ctx, http.MethodDelete, c.tableURL(table, q), nil, nil, nil); err != nil {
			return deleted, fmt.Errorf("delete %s batch %d: %w", table, start/DeleteBatchSize+1, err)
		}
		deleted += len(batch)
	}
	return deleted, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, headers map[string]string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Details string `json:"details"`
		Hint    string `json:"hint"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		if body.Details != "" {
			return body.Message + ": " + body.Details
		}
		return body.Message
	}
	return strings.TrimSpace(string(raw))
}
