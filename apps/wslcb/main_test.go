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
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
	"github.com/stockparfait/opendata/socrata"
	"github.com/stockparfait/opendata/wslcb"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

// testPortal serves two rows of any dataset and records the app tokens.
type testPortal struct {
	mu     sync.Mutex
	tokens []string
}

func (p *testPortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.tokens = append(p.tokens, r.URL.Query().Get(socrata.TokenParam))
	p.mu.Unlock()
	if strings.HasPrefix(r.URL.Path, "/api/views/") {
		w.Write([]byte(`{"id": "3qmf-vgdg", "name": "Test", "createdAt": 1500000000,
  "columns": [{"fieldName": "date", "position": 1}]}`))
		return
	}
	if r.URL.Query().Get("$select") == "count(*)" {
		w.Write([]byte(socrata.TestCount(2)))
		return
	}
	page, _ := socrata.TestRows(
		socrata.Row{"date": "2020-01-02", "license_number": "412345",
			"county_name": "THURSTON", "city_name": "OLYMPIA", "action": "warning"},
		socrata.Row{"date": "2020-01-03", "license_number": "412347",
			"county_name": "KING", "city_name": "SEATTLE", "action": "fine",
			"ignored": "x"},
	)
	w.Write([]byte(page))
}

func (p *testPortal) lastToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.tokens) == 0 {
		return "<none>"
	}
	return p.tokens[len(p.tokens)-1]
}

func TestApp(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_wslcb_app")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		Convey("valid flags", func() {
			flags, err := parseFlags([]string{
				"-config", "path/to/config.toml", "-log-level", "warning",
				"-all", "-dataset", "3qmf-vgdg", "-order", "date", "-format", "csv",
				"-rows", "5"})
			So(err, ShouldBeNil)
			So(flags.ConfigFile, ShouldEqual, "path/to/config.toml")
			So(flags.LogLevel, ShouldEqual, logging.Warning)
			So(flags.All, ShouldBeTrue)
			So(flags.Dataset, ShouldEqual, "3qmf-vgdg")
			So(flags.Order, ShouldEqual, "date")
			So(flags.Format, ShouldEqual, "csv")
			So(flags.Rows, ShouldEqual, 5)
		})

		Convey("defaults", func() {
			flags, err := parseFlags([]string{"-list"})
			So(err, ShouldBeNil)
			So(flags.Format, ShouldEqual, "text")
			So(flags.Order, ShouldEqual, ":id")
			So(flags.EnvFile, ShouldEqual, ".env")
		})

		Convey("invalid flags", func() {
			_, err := parseFlags([]string{"-dataset", "3qmf-vgdg"})
			So(err, ShouldNotBeNil)
			_, err = parseFlags([]string{"-count", "-page", "-dataset", "3qmf-vgdg"})
			So(err, ShouldNotBeNil)
			_, err = parseFlags([]string{"-count"})
			So(err, ShouldNotBeNil)
			_, err = parseFlags([]string{"-list", "-format", "pdf"})
			So(err, ShouldNotBeNil)
			_, err = parseFlags([]string{"-list", "-rows", "-1"})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("run works", t, func() {
		portal := &testPortal{}
		server := httptest.NewServer(portal)
		defer server.Close()
		wslcb.URL = server.URL
		ctx := fetch.UseClient(context.Background(), server.Client())

		Convey("list", func() {
			flags, err := parseFlags([]string{"-list", "-format", "csv", "-rows", "2"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(writeTable(datasetsTable(), flags, &buf), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
Dataset,Columns
3qmf-vgdg,"date,license_number,county_name,city_name,action"
8rrd-wvpk,"sales_date,sales_year_month,pounds_harvested,grams_harvested"
`)
		})

		Convey("count", func() {
			missing := filepath.Join(tmpdir, "missing.toml")
			flags, err := parseFlags([]string{"-count", "-dataset", "3qmf-vgdg",
				"-format", "csv", "-env", "", "-config", missing})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			err = run(ctx, flags, &buf)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "does not exist")

			emptyConfig := filepath.Join(tmpdir, "empty.toml")
			So(testutil.WriteFile(emptyConfig, ""), ShouldBeNil)
			flags.ConfigFile = emptyConfig
			So(run(ctx, flags, &buf), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
Dataset,Rows
3qmf-vgdg,2
`)
		})

		Convey("with a config file", func() {
			configFile := filepath.Join(tmpdir, "config.toml")
			flags, err := parseFlags([]string{
				"-count", "-dataset", "3qmf-vgdg", "-env", "", "-config", configFile})
			So(err, ShouldBeNil)

			Convey("token from the config", func() {
				So(testutil.WriteFile(configFile, `app_token = "config-token"`), ShouldBeNil)
				var buf bytes.Buffer
				So(run(ctx, flags, &buf), ShouldBeNil)
				So(portal.lastToken(), ShouldEqual, "config-token")
			})

			Convey("unknown config fields", func() {
				So(testutil.WriteFile(configFile, `key = "x"`), ShouldBeNil)
				var buf bytes.Buffer
				err := run(ctx, flags, &buf)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to read config file")
			})

			Convey("page as CSV", func() {
				So(testutil.WriteFile(configFile, ""), ShouldBeNil)
				flags.Count = false
				flags.Page = true
				flags.Format = "csv"
				var buf bytes.Buffer
				So(run(ctx, flags, &buf), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
date,license_number,county_name,city_name,action
2020-01-02,412345,THURSTON,OLYMPIA,warning
2020-01-03,412347,KING,SEATTLE,fine
`)
			})

			Convey("entire dataset as text", func() {
				So(testutil.WriteFile(configFile, ""), ShouldBeNil)
				flags.Count = false
				flags.All = true
				flags.Rows = 1
				var buf bytes.Buffer
				So(run(ctx, flags, &buf), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
      date | license_number | county_name | city_name |  action
---------- | -------------- | ----------- | --------- | -------
2020-01-02 |         412345 |    THURSTON |   OLYMPIA | warning
`)
			})

			Convey("describe a column", func() {
				So(testutil.WriteFile(configFile, ""), ShouldBeNil)
				flags.Count = false
				flags.Page = true
				flags.Format = "csv"
				flags.Describe = "license_number"
				var buf bytes.Buffer
				So(run(ctx, flags, &buf), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
Column,Count,Missing,Mean,Std Dev,Min,Median,Max
license_number,2,0,4.123e+05,1.414,4.123e+05,4.123e+05,4.123e+05
`)
			})

			Convey("metadata", func() {
				So(testutil.WriteFile(configFile, ""), ShouldBeNil)
				flags.Count = false
				flags.Meta = true
				flags.Format = "csv"
				var buf bytes.Buffer
				So(run(ctx, flags, &buf), ShouldBeNil)
				So(buf.String(), ShouldContainSubstring, "ID,3qmf-vgdg\n")
				So(buf.String(), ShouldContainSubstring, "Rows updated,\n")
				So(buf.String(), ShouldContainSubstring, "Columns,date\n")
			})

			Convey("updated fails without the timestamp", func() {
				So(testutil.WriteFile(configFile, ""), ShouldBeNil)
				flags.Count = false
				flags.Updated = true
				var buf bytes.Buffer
				err := run(ctx, flags, &buf)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "no rowsUpdatedAt")
			})

			Convey("CSV to a file", func() {
				So(testutil.WriteFile(configFile, ""), ShouldBeNil)
				flags.Format = "csv"
				flags.Out = filepath.Join(tmpdir, "out.csv")
				var buf bytes.Buffer
				So(run(ctx, flags, &buf), ShouldBeNil)
				So(buf.Len(), ShouldEqual, 0)
				data, err := os.ReadFile(flags.Out)
				So(err, ShouldBeNil)
				So("\n"+string(data), ShouldEqual, `
Dataset,Rows
3qmf-vgdg,2
`)

				flags.Out = tmpdir // a directory cannot be created as a file
				err = run(ctx, flags, &buf)
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to create output file")
			})

			Convey("XLSX to a file", func() {
				So(testutil.WriteFile(configFile, ""), ShouldBeNil)
				flags.Count = false
				flags.Page = true
				flags.Format = "xlsx"
				flags.Out = filepath.Join(tmpdir, "out.xlsx")
				var buf bytes.Buffer
				So(run(ctx, flags, &buf), ShouldBeNil)
				So(buf.Len(), ShouldEqual, 0)
				info, err := os.Stat(flags.Out)
				So(err, ShouldBeNil)
				So(info.Size(), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestDotenv(t *testing.T) {
	tmpdir := t.TempDir()
	// Restored when the test ends; unset so that the dotenv file can set it.
	t.Setenv(wslcb.TokenEnv, "")
	os.Unsetenv(wslcb.TokenEnv)

	Convey("dotenv file provides the default app token", t, func() {
		portal := &testPortal{}
		server := httptest.NewServer(portal)
		defer server.Close()
		wslcb.URL = server.URL
		ctx := fetch.UseClient(context.Background(), server.Client())

		envFile := filepath.Join(tmpdir, "test.env")
		So(testutil.WriteFile(envFile, wslcb.TokenEnv+"=dotenv-token\n"), ShouldBeNil)
		configFile := filepath.Join(tmpdir, "config.toml")
		So(testutil.WriteFile(configFile, ""), ShouldBeNil)

		flags, err := parseFlags([]string{"-count", "-dataset", "3qmf-vgdg",
			"-env", envFile, "-config", configFile})
		So(err, ShouldBeNil)
		var buf bytes.Buffer
		So(run(ctx, flags, &buf), ShouldBeNil)
		So(portal.lastToken(), ShouldEqual, "dotenv-token")

		Convey("config token takes precedence", func() {
			So(testutil.WriteFile(configFile, `app_token = "config-token"`), ShouldBeNil)
			So(run(ctx, flags, &buf), ShouldBeNil)
			So(portal.lastToken(), ShouldEqual, "config-token")
		})

		Convey("missing dotenv file is ignored", func() {
			os.Unsetenv(wslcb.TokenEnv)
			flags.EnvFile = filepath.Join(tmpdir, "missing.env")
			So(run(ctx, flags, &buf), ShouldBeNil)
			So(portal.lastToken(), ShouldEqual, "")
		})
	})
}
