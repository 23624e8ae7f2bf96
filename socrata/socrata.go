// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
)

// TokenParam is the query parameter carrying the app token.
const TokenParam = "$$app_token"

// Client for querying datasets of a single Socrata domain.
type Client struct {
	baseURL  string // e.g. https://data.lcb.wa.gov
	appToken string // optional
}

// NewClient creates a new client for the domain at baseURL. The app token may
// be empty, in which case requests are sent anonymously.
func NewClient(baseURL, appToken string) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		appToken: appToken,
	}
}

// BaseURL of the domain the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AppToken the client was created with.
func (c *Client) AppToken() string {
	return c.appToken
}

// authorize adds the app token, if any, to the query values.
func (c *Client) authorize(query url.Values) url.Values {
	if query == nil {
		query = make(url.Values)
	}
	if c.appToken != "" {
		query.Set(TokenParam, c.appToken)
	}
	return query
}

// Value is an arbitrary value of a row cell, as decoded by encoding/json.
type Value = interface{}

// Row is a single dataset row: a map of {field name -> value}. Socrata omits
// fields with null values, so a row may have fewer fields than the dataset.
type Row = map[string]Value

// Query is a builder for a SoQL query against a single dataset.
type Query struct {
	dataset string
	options queryOptions
}

// queryOptions are the SoQL clauses. Zero values are omitted from the query.
type queryOptions struct {
	Select []string
	Where  string
	Order  string
	Offset int
	Limit  int
}

// NewQuery creates a new query for the dataset.
func NewQuery(dataset string) *Query {
	return &Query{dataset: dataset}
}

// Copy creates a deep copy of the query. It is primarily used in its builder
// methods.
func (q *Query) Copy() *Query {
	q2 := Query{dataset: q.dataset, options: q.options}
	if q.options.Select != nil {
		q2.options.Select = make([]string, len(q.options.Select))
		copy(q2.options.Select, q.options.Select)
	}
	return &q2
}

// Dataset identifier the query is for.
func (q *Query) Dataset() string {
	return q.dataset
}

// Select sets the $select clause, e.g. Select("count(*)"). This and other
// builder methods always create a deep copy of the query, leaving the original
// intact.
func (q *Query) Select(columns ...string) *Query {
	q2 := q.Copy()
	q2.options.Select = columns
	return q2
}

// Where sets the $where clause.
func (q *Query) Where(clause string) *Query {
	q2 := q.Copy()
	q2.options.Where = clause
	return q2
}

// Order sets the $order clause, e.g. Order("date DESC").
func (q *Query) Order(order string) *Query {
	q2 := q.Copy()
	q2.options.Order = order
	return q2
}

// Offset sets the zero-based index of the first row to return. Negative values
// are treated as 0.
func (q *Query) Offset(offset int) *Query {
	if offset < 0 {
		offset = 0
	}
	q2 := q.Copy()
	q2.options.Offset = offset
	return q2
}

// Limit sets the maximum number of rows to return. Non-positive values remove
// the limit, and the server applies its default (1000 rows).
func (q *Query) Limit(limit int) *Query {
	if limit < 0 {
		limit = 0
	}
	q2 := q.Copy()
	q2.options.Limit = limit
	return q2
}

// Path returns the URL path to add to the base URL.
func (q *Query) Path() string {
	return "/resource/" + q.dataset + ".json"
}

// Values returns the SoQL parameters of the query. Each call creates a new
// object, so the caller is free to modify it without affecting the query.
func (q *Query) Values() url.Values {
	v := make(url.Values)
	if len(q.options.Select) > 0 {
		v.Set("$select", strings.Join(q.options.Select, ","))
	}
	if q.options.Where != "" {
		v.Set("$where", q.options.Where)
	}
	if q.options.Order != "" {
		v.Set("$order", q.options.Order)
	}
	if q.options.Offset > 0 {
		v.Set("$offset", strconv.Itoa(q.options.Offset))
	}
	if q.options.Limit > 0 {
		v.Set("$limit", strconv.Itoa(q.options.Limit))
	}
	return v
}

// FetchRows executes the query and returns the rows in the order sent by the
// server.
func (c *Client) FetchRows(ctx context.Context, q *Query) ([]Row, error) {
	var rows []Row
	uri := c.baseURL + q.Path()
	if err := fetch.FetchJSON(ctx, uri, &rows, c.authorize(q.Values()), nil); err != nil {
		return nil, errors.Annotate(err, "failed to fetch rows of %s", q.dataset)
	}
	return rows, nil
}

// FetchCount returns the total number of rows in the dataset.
func (c *Client) FetchCount(ctx context.Context, dataset string) (int, error) {
	rows, err := c.FetchRows(ctx, NewQuery(dataset).Select("count(*)"))
	if err != nil {
		return 0, errors.Annotate(err, "failed to fetch count")
	}
	if len(rows) == 0 {
		return 0, errors.Reason("empty count result for %s", dataset)
	}
	v, ok := rows[0]["count"]
	if !ok {
		return 0, errors.Reason("no 'count' field in the result for %s: %v",
			dataset, rows[0])
	}
	n, err := parseCount(v)
	if err != nil {
		return 0, errors.Annotate(err, "failed to parse count for %s", dataset)
	}
	return n, nil
}

// parseCount accepts a count as a decimal string, which is how SODA 2.x sends
// it, or as a JSON number.
func parseCount(v Value) (int, error) {
	switch c := v.(type) {
	case string:
		n, err := strconv.Atoi(c)
		if err != nil {
			return 0, errors.Annotate(err, "not an integer: '%s'", c)
		}
		if n < 0 {
			return 0, errors.Reason("negative count: %d", n)
		}
		return n, nil
	case float64:
		if c != float64(int(c)) {
			return 0, errors.Reason("not an integer: %v", c)
		}
		if c < 0 {
			return 0, errors.Reason("negative count: %v", c)
		}
		return int(c), nil
	}
	return 0, errors.Reason("count %v is of the wrong type: %T", v, v)
}

// Column of a dataset, as described in its metadata.
type Column struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	FieldName    string `json:"fieldName"`
	DataTypeName string `json:"dataTypeName"`
	Description  string `json:"description"`
	Position     int    `json:"position"`
}

// Metadata is the dataset view record returned by the views API. Timestamps
// are in seconds since Unix epoch. Optional timestamps are nil when the
// server omits them.
type Metadata struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Attribution      string   `json:"attribution"`
	Category         string   `json:"category"`
	CreatedAt        int64    `json:"createdAt"`
	RowsUpdatedAt    *int64   `json:"rowsUpdatedAt"`
	ViewLastModified *int64   `json:"viewLastModified"`
	Columns          []Column `json:"columns"`
}

// FieldNames lists column field names in the order of their position.
func (m *Metadata) FieldNames() []string {
	cols := make([]Column, len(m.Columns))
	copy(cols, m.Columns)
	sort.SliceStable(cols, func(i, j int) bool {
		return cols[i].Position < cols[j].Position
	})
	res := make([]string, len(cols))
	for i, c := range cols {
		res[i] = c.FieldName
	}
	return res
}

// FetchMetadata obtains the metadata of the dataset.
func (c *Client) FetchMetadata(ctx context.Context, dataset string) (*Metadata, error) {
	var m Metadata
	uri := c.baseURL + "/api/views/" + dataset + ".json"
	if err := fetch.FetchJSON(ctx, uri, &m, c.authorize(nil), nil); err != nil {
		return nil, errors.Annotate(err, "failed to fetch metadata of %s", dataset)
	}
	return &m, nil
}

// TestRows generates the JSON string in a format as returned by the resource
// API. For use in tests.
func TestRows(rows ...Row) (string, error) {
	if rows == nil {
		rows = []Row{}
	}
	bytes, err := json.Marshal(rows)
	return string(bytes), err
}

// TestCount generates the JSON response to a count(*) query. For use in tests.
func TestCount(n int) string {
	return fmt.Sprintf(`[{"count":"%d"}]`, n)
}
