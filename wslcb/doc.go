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

// Package wslcb is a client of the Washington State Liquor and Cannabis Board
// (WSLCB) open data portal at https://data.lcb.wa.gov .
//
// The portal is a Socrata domain. This package knows the identifiers of the
// WSLCB cannabis datasets and their column order, and wraps the generic
// socrata client with methods for fetching a dataset's metadata, row count, a
// single page of rows, or the entire dataset.
//
// A single request returns at most PageSize rows. EntireDataset first counts
// the rows and then requests consecutive pages ordered by a caller supplied
// column. Rows added or removed between the count and the last page request
// may be skipped or duplicated; the portal offers no snapshot to page over.
package wslcb
