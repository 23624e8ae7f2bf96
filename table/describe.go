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

package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/stockparfait/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary statistics of a numeric column.
type Summary struct {
	Column  string
	Count   int // number of numeric cells
	Missing int // number of empty cells
	Mean    float64
	StdDev  float64 // sample standard deviation; 0 when Count < 2
	Min     float64
	Median  float64
	Max     float64
}

// SummaryHeader is the Table header matching Summary.CSV.
func SummaryHeader() []string {
	return []string{"Column", "Count", "Missing", "Mean", "Std Dev", "Min",
		"Median", "Max"}
}

var _ Row = Summary{}

func (s Summary) CSV() []string {
	f := func(x float64) string { return fmt.Sprintf("%.4g", x) }
	return []string{s.Column, strconv.Itoa(s.Count), strconv.Itoa(s.Missing),
		f(s.Mean), f(s.StdDev), f(s.Min), f(s.Median), f(s.Max)}
}

// Describe computes summary statistics of the named column. Empty cells are
// counted as missing, any other cell must parse as a number. Statistics of a
// column without numbers are all zero.
func (t *Table) Describe(name string) (*Summary, error) {
	cells, err := t.Column(name)
	if err != nil {
		return nil, errors.Annotate(err, "cannot describe column")
	}
	s := Summary{Column: name}
	var xs []float64
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			s.Missing++
			continue
		}
		x, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, errors.Annotate(err, "row %d of column '%s' is not a number",
				i, name)
		}
		xs = append(xs, x)
	}
	s.Count = len(xs)
	if s.Count == 0 {
		return &s, nil
	}
	sort.Float64s(xs)
	s.Mean = stat.Mean(xs, nil)
	if s.Count > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)
	s.Median = stat.Quantile(0.5, stat.Empirical, xs, nil)
	return &s, nil
}
