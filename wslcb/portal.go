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

package wslcb

import (
	"context"
	"os"
	"time"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/opendata/socrata"
	"github.com/stockparfait/opendata/table"
)

const (
	// Domain of the WSLCB Socrata portal.
	Domain = "data.lcb.wa.gov"
	// TokenEnv is the environment variable with the default app token.
	TokenEnv = "WSLCB_APP_TOKEN"
	// PageSize is the maximum number of rows requested at once.
	PageSize = 100000
)

// URL is the default base URL of the portal. It may be overwritten in tests
// before creating a new Portal.
var URL = "https://" + Domain

// Portal is the WSLCB open data portal client. It is not safe for concurrent
// use.
type Portal struct {
	appToken string
	remote   *socrata.Client // created on first use
}

// NewPortal creates a new Portal. When appToken is empty, it is read from the
// TokenEnv environment variable, if set.
func NewPortal(appToken string) *Portal {
	if appToken == "" {
		appToken = os.Getenv(TokenEnv)
	}
	return &Portal{appToken: appToken}
}

// AppToken used, or to be used, by the portal's requests.
func (p *Portal) AppToken() string {
	return p.appToken
}

// SetAppToken replaces the app token. It is an error to change the token after
// the first request was made, since the remote client already uses the old
// one.
func (p *Portal) SetAppToken(token string) error {
	if p.remote != nil && token != p.appToken {
		return errors.Reason("cannot change app token after the portal is in use")
	}
	p.appToken = token
	return nil
}

// client returns the remote client, creating it on the first call.
func (p *Portal) client() *socrata.Client {
	if p.remote == nil {
		p.remote = socrata.NewClient(URL, p.appToken)
	}
	return p.remote
}

// DatasetMetadata returns the dataset's metadata.
func (p *Portal) DatasetMetadata(ctx context.Context, id DatasetID) (*socrata.Metadata, error) {
	return p.client().FetchMetadata(ctx, id)
}

// DatasetCount returns the dataset's total number of rows.
func (p *Portal) DatasetCount(ctx context.Context, id DatasetID) (int, error) {
	return p.client().FetchCount(ctx, id)
}

// Dataset returns the first rows of the dataset, at most PageSize of them.
func (p *Portal) Dataset(ctx context.Context, id DatasetID) ([]socrata.Row, error) {
	return p.client().FetchRows(ctx, socrata.NewQuery(id).Limit(PageSize))
}

// PageOffsets returns the offsets of consecutive pages of the given size
// covering count rows: 0, size, 2*size, ... while offset < count.
func PageOffsets(count, size int) []int {
	if count <= 0 || size <= 0 {
		return nil
	}
	offsets := make([]int, 0, (count+size-1)/size)
	for offset := 0; offset < count; offset += size {
		offsets = append(offsets, offset)
	}
	return offsets
}

// EntireDataset returns all the rows of the dataset ordered by the orderBy
// column, fetching them page by page. Any failed page request fails the whole
// call, and no rows are returned.
func (p *Portal) EntireDataset(ctx context.Context, id DatasetID, orderBy string) ([]socrata.Row, error) {
	count, err := p.DatasetCount(ctx, id)
	if err != nil {
		return nil, errors.Annotate(err, "failed to count rows of %s", id)
	}
	offsets := PageOffsets(count, PageSize)
	logging.Debugf(ctx, "WSLCB: %s has %d rows in %d pages", id, count, len(offsets))

	rows := []socrata.Row{}
	q := socrata.NewQuery(id).Order(orderBy).Limit(PageSize)
	it := iterator.FromSlice(offsets)
	for page := 1; ; page++ {
		offset, ok := it.Next()
		if !ok {
			break
		}
		pageRows, err := p.client().FetchRows(ctx, q.Offset(offset))
		if err != nil {
			return nil, errors.Annotate(err, "failed to fetch page %d of %s at offset %d",
				page, id, offset)
		}
		rows = append(rows, pageRows...)
		logging.Infof(ctx, "WSLCB: fetched page %d/%d of %s with %d rows",
			page, len(offsets), id, len(pageRows))
	}
	return rows, nil
}

// DataFrame returns the first page of the dataset (see Dataset) as a table
// with the dataset's canonical columns.
func (p *Portal) DataFrame(ctx context.Context, id DatasetID) (*table.Table, error) {
	cols, err := Columns(id)
	if err != nil {
		return nil, err
	}
	rows, err := p.Dataset(ctx, id)
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch %s", id)
	}
	return table.FromRecords(rows, cols...), nil
}

// EntireDataFrame is like DataFrame, but with all of the dataset's rows (see
// EntireDataset).
func (p *Portal) EntireDataFrame(ctx context.Context, id DatasetID, orderBy string) (*table.Table, error) {
	cols, err := Columns(id)
	if err != nil {
		return nil, err
	}
	rows, err := p.EntireDataset(ctx, id, orderBy)
	if err != nil {
		return nil, err
	}
	return table.FromRecords(rows, cols...), nil
}

// DatasetLastUpdated returns the time the dataset's rows were last updated, in
// the local time zone.
func (p *Portal) DatasetLastUpdated(ctx context.Context, id DatasetID) (time.Time, error) {
	m, err := p.DatasetMetadata(ctx, id)
	if err != nil {
		return time.Time{}, errors.Annotate(err, "failed to fetch metadata")
	}
	if m.RowsUpdatedAt == nil {
		return time.Time{}, errors.Reason("metadata of %s has no rowsUpdatedAt", id)
	}
	return LocalTime(*m.RowsUpdatedAt), nil
}

// LocalTime converts seconds since Unix epoch to the local time zone.
func LocalTime(epoch int64) time.Time {
	return time.Unix(epoch, 0).In(time.Local)
}
