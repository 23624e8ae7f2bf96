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

// Package socrata implements a minimal client of the Socrata Open Data API
// (SODA) version 2.
//
// Official documentation is at https://dev.socrata.com/docs/endpoints.html .
//
// A Socrata domain publishes datasets identified by a short "four-by-four"
// code, e.g. 3qmf-vgdg. Rows of a dataset are queried with SoQL parameters
// ($select, $where, $order, $offset, $limit) against the resource endpoint,
// and each row is returned as a JSON object keyed by column field names. The
// dataset metadata (name, columns, update timestamps) is served by the views
// endpoint.
//
// The API does not page transparently: a single request returns at most
// $limit rows starting at $offset. Paging over a full dataset is left to the
// caller.
//
// Requests are authenticated with an optional app token, sent as the
// $$app_token query parameter, which raises the throttling limits: https://dev.socrata.com/docs/app-tokens.html .
package socrata
