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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/opendata/socrata"
	"github.com/stockparfait/opendata/table"
	"github.com/stockparfait/opendata/wslcb"

	toml "github.com/pelletier/go-toml/v2"
)

type Flags struct {
	ConfigFile string // optional; default: ~/.wslcb/config.toml
	EnvFile    string // default: .env
	LogLevel   logging.Level
	// Exactly one of the actions must be present.
	List     bool
	Meta     bool
	Count    bool
	Updated  bool
	Page     bool
	All      bool
	Dataset  string // required for all actions except -list
	Order    string // for -all
	Format   string // text, csv or xlsx
	Out      string // default: stdout
	Rows     int    // max. rows to print; 0 = all
	Describe string // column to summarize instead of printing rows
}

var formats = []string{"text", "csv", "xlsx"}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("wslcb", flag.ExitOnError)
	fs.StringVar(&flags.ConfigFile, "config", "",
		"configuration file (default ~/.wslcb/config.toml, if present)")
	fs.StringVar(&flags.EnvFile, "env", ".env",
		"dotenv file to load variables such as "+wslcb.TokenEnv+" from")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.BoolVar(&flags.List, "list", false, "list known datasets and their columns")
	fs.BoolVar(&flags.Meta, "meta", false, "print dataset metadata")
	fs.BoolVar(&flags.Count, "count", false, "print the number of rows in the dataset")
	fs.BoolVar(&flags.Updated, "updated", false, "print the time the dataset was last updated")
	fs.BoolVar(&flags.Page, "page", false,
		fmt.Sprintf("print the first %d rows of the dataset", wslcb.PageSize))
	fs.BoolVar(&flags.All, "all", false, "print the entire dataset")
	fs.StringVar(&flags.Dataset, "dataset", "", "dataset ID, e.g. 3qmf-vgdg")
	fs.StringVar(&flags.Order, "order", ":id", "column to order rows by, for -all")
	fs.StringVar(&flags.Format, "format", "text",
		"output format: "+strings.Join(formats, ", "))
	fs.StringVar(&flags.Out, "out", "", "output file; default: stdout")
	fs.IntVar(&flags.Rows, "rows", 0, "max. number of rows to print; 0 = all")
	fs.StringVar(&flags.Describe, "describe", "",
		"print statistics of this numeric column instead of the rows")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	actions := 0
	for _, a := range []bool{flags.List, flags.Meta, flags.Count, flags.Updated,
		flags.Page, flags.All} {
		if a {
			actions++
		}
	}
	if actions != 1 {
		return nil, errors.Reason(
			"expected exactly one of -list, -meta, -count, -updated, -page or -all")
	}
	if !flags.List && flags.Dataset == "" {
		return nil, errors.Reason("missing required -dataset argument")
	}
	if flags.All && flags.Order == "" {
		return nil, errors.Reason("-all requires a non-empty -order")
	}
	known := false
	for _, f := range formats {
		if flags.Format == f {
			known = true
		}
	}
	if !known {
		return nil, errors.Reason("unsupported -format '%s'", flags.Format)
	}
	if flags.Rows < 0 {
		return nil, errors.Reason("-rows must be >= 0")
	}
	return &flags, nil
}

type Config struct {
	AppToken string `toml:"app_token"` // Socrata app token for the portal
}

// parseConfig reads the config file. A missing file is an empty config unless
// required is set.
func parseConfig(filePath string, required bool) (*Config, error) {
	var c Config
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !required {
				return &c, nil
			}
			sample := `app_token = "YourSocrataAppToken"
`
			return nil, errors.Annotate(err,
				"config file '%s' does not exist.\nPlease create config file containing:\n%s",
				filePath, sample)
		}
		return nil, errors.Annotate(err,
			"cannot check config file for existence: '%s'", filePath)
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open config file %s", filePath)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	d.DisallowUnknownFields()
	if err := d.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", filePath)
	}
	return &c, nil
}

// loadEnv loads the dotenv file, if present. Variables already set in the
// environment take precedence.
func loadEnv(ctx context.Context, filePath string) error {
	if filePath == "" {
		return nil
	}
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		logging.Debugf(ctx, "no dotenv file '%s'", filePath)
		return nil
	}
	if err := godotenv.Load(filePath); err != nil {
		return errors.Annotate(err, "failed to load dotenv file '%s'", filePath)
	}
	return nil
}

func datasetsTable() *table.Table {
	tbl := table.NewTable("Dataset", "Columns")
	for _, id := range wslcb.DatasetIDs() {
		cols, _ := wslcb.Columns(id)
		tbl.AddRow(table.Record{id, strings.Join(cols, ",")})
	}
	return tbl
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05 MST")
}

func formatTimestamp(t *int64) string {
	if t == nil {
		return ""
	}
	return formatTime(wslcb.LocalTime(*t))
}

func metadataTable(m *socrata.Metadata) *table.Table {
	tbl := table.NewTable("Field", "Value")
	tbl.AddRow(
		table.Record{"ID", m.ID},
		table.Record{"Name", m.Name},
		table.Record{"Category", m.Category},
		table.Record{"Attribution", m.Attribution},
		table.Record{"Created", formatTimestamp(&m.CreatedAt)},
		table.Record{"Rows updated", formatTimestamp(m.RowsUpdatedAt)},
		table.Record{"View modified", formatTimestamp(m.ViewLastModified)},
		table.Record{"Columns", strings.Join(m.FieldNames(), ",")},
	)
	return tbl
}

func fetchTable(ctx context.Context, p *wslcb.Portal, flags *Flags) (*table.Table, error) {
	switch {
	case flags.List:
		return datasetsTable(), nil
	case flags.Meta:
		m, err := p.DatasetMetadata(ctx, flags.Dataset)
		if err != nil {
			return nil, errors.Annotate(err, "failed to fetch metadata")
		}
		return metadataTable(m), nil
	case flags.Count:
		n, err := p.DatasetCount(ctx, flags.Dataset)
		if err != nil {
			return nil, errors.Annotate(err, "failed to count rows")
		}
		tbl := table.NewTable("Dataset", "Rows")
		tbl.AddRow(table.Record{flags.Dataset, fmt.Sprintf("%d", n)})
		return tbl, nil
	case flags.Updated:
		t, err := p.DatasetLastUpdated(ctx, flags.Dataset)
		if err != nil {
			return nil, errors.Annotate(err, "failed to fetch last update time")
		}
		tbl := table.NewTable("Dataset", "Last updated")
		tbl.AddRow(table.Record{flags.Dataset, formatTime(t)})
		return tbl, nil
	case flags.Page:
		tbl, err := p.DataFrame(ctx, flags.Dataset)
		if err != nil {
			return nil, errors.Annotate(err, "failed to fetch dataset")
		}
		return tbl, nil
	case flags.All:
		tbl, err := p.EntireDataFrame(ctx, flags.Dataset, flags.Order)
		if err != nil {
			return nil, errors.Annotate(err, "failed to fetch entire dataset")
		}
		return tbl, nil
	}
	return nil, errors.Reason("no action")
}

func writeTable(tbl *table.Table, flags *Flags, w io.Writer) error {
	params := table.Params{Rows: flags.Rows}
	switch flags.Format {
	case "csv":
		if err := tbl.WriteCSV(w, params); err != nil {
			return errors.Annotate(err, "failed to print CSV")
		}
	case "xlsx":
		if err := tbl.WriteXLSX(w, flags.Dataset, params); err != nil {
			return errors.Annotate(err, "failed to write XLSX")
		}
	default:
		if err := tbl.WriteText(w, params); err != nil {
			return errors.Annotate(err, "failed to print text")
		}
	}
	return nil
}

func run(ctx context.Context, flags *Flags, w io.Writer) error {
	if err := loadEnv(ctx, flags.EnvFile); err != nil {
		return err
	}
	configFile := flags.ConfigFile
	if configFile == "" {
		configFile = filepath.Join(os.Getenv("HOME"), ".wslcb", "config.toml")
	}
	config, err := parseConfig(configFile, flags.ConfigFile != "")
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	p := wslcb.NewPortal(config.AppToken)
	if p.AppToken() == "" {
		logging.Warningf(ctx, "no app token, requests may be throttled; set %s",
			wslcb.TokenEnv)
	}

	tbl, err := fetchTable(ctx, p, flags)
	if err != nil {
		return err
	}
	if flags.Describe != "" {
		s, err := tbl.Describe(flags.Describe)
		if err != nil {
			return errors.Annotate(err, "failed to describe %s", flags.Describe)
		}
		tbl = table.NewTable(table.SummaryHeader()...)
		tbl.AddRow(*s)
	}

	if flags.Out != "" {
		f, err := os.Create(flags.Out)
		if err != nil {
			return errors.Annotate(err, "failed to create output file '%s'", flags.Out)
		}
		if err := writeTable(tbl, flags, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return errors.Annotate(err, "failed to close output file '%s'", flags.Out)
		}
		return nil
	}
	return writeTable(tbl, flags, w)
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := run(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
