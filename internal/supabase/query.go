package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// From starts a query against a table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table}
}

// Query builds a single PostgREST request. Filters compose; the terminal
// methods (Fetch, Insert, Upsert, Update) execute it.
type Query struct {
	client      *Client
	table       string
	columns     string
	filters     []string
	orders      []string
	single      bool
	accessToken string
}

// Select names the columns to return.
func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column string, value any) *Query {
	q.filters = append(q.filters, fmt.Sprintf("%s=eq.%v", column, value))
	return q
}

// Order adds an ordering clause.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, fmt.Sprintf("%s.%s", column, dir))
	return q
}

// Single requests exactly one row; zero rows become an error.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

// Auth executes the query with the user's access token so row-level
// security applies to it.
func (q *Query) Auth(accessToken string) *Query {
	q.accessToken = accessToken
	return q
}

// Fetch executes the select and unmarshals the result into dest.
func (q *Query) Fetch(ctx context.Context, dest any) error {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", q.client.baseURL, q.table)

	params := url.Values{}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	q.applyFilters(params)
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q.client.setHeaders(req, q.accessToken)
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}

	resp, err := q.client.do(req)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return resp.JSON(dest)
}

// Insert writes new rows.
func (q *Query) Insert(ctx context.Context, data any) (*Response, error) {
	return q.write(ctx, http.MethodPost, data, "return=representation")
}

// Upsert inserts-or-updates rows keyed by the table's conflict target.
func (q *Query) Upsert(ctx context.Context, data any) (*Response, error) {
	return q.write(ctx, http.MethodPost, data, "resolution=merge-duplicates,return=representation")
}

// Update patches the rows matched by the filters.
func (q *Query) Update(ctx context.Context, data any) (*Response, error) {
	return q.write(ctx, http.MethodPatch, data, "return=representation")
}

func (q *Query) write(ctx context.Context, method string, data any, prefer string) (*Response, error) {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", q.client.baseURL, q.table)

	params := url.Values{}
	q.applyFilters(params)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	q.client.setHeaders(req, q.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", prefer)

	resp, err := q.client.do(req)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (q *Query) applyFilters(params url.Values) {
	for _, f := range q.filters {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) == 2 {
			params.Add(parts[0], parts[1])
		}
	}
}
