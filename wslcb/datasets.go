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
	"github.com/stockparfait/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DatasetID is the Socrata identifier of a dataset.
type DatasetID = string

// datasetColumns is the column order of each known dataset. The portal itself
// returns fields in no particular order.
var datasetColumns = map[DatasetID][]string{
	"3qmf-vgdg": {"date", "license_number", "county_name", "city_name",
		"action"},
	"8rrd-wvpk": {"sales_date", "sales_year_month", "pounds_harvested",
		"grams_harvested"},
	"bhbp-x4eb": {"license", "type", "createdate", "active", "organization",
		"address", "address_line_2", "city", "state", "zip", "county", "dayphone",
		"ubi"},
	"dgm4-3cm6": {"visit_date", "license_number", "county_name", "city_name",
		"case", "violation_code", "wac_code", "penalty_type"},
	"kdyh-jjfc": {"sales_date", "sales_year_month", "type",
		"child_usableweight_grams", "child_usableweight_pounds"},
	"msk5-ts9q": {"sessiontimedate", "orgname", "inventory_type",
		"usableweight_grams", "usableweight_pounds", "price"},
	"w7wg-8m52": {"date", "license_number", "city_name", "county_name",
		"activity"},
	"vbqh-2tf4": {"sales_date", "sales_year_month", "organization",
		"type", "childweight_pounds", "childweight_grams"},
}

// DatasetIDs lists all the known datasets in lexicographic order.
func DatasetIDs() []DatasetID {
	ids := maps.Keys(datasetColumns)
	slices.Sort(ids)
	return ids
}

// Columns of the dataset in their canonical order. The result is a copy which
// the caller may modify.
func Columns(id DatasetID) ([]string, error) {
	cols, ok := datasetColumns[id]
	if !ok {
		return nil, errors.Reason("unknown dataset: '%s'", id)
	}
	return slices.Clone(cols), nil
}
