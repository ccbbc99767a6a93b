/*
Copyright © 2019 the magfile authors.
This file is part of magfile.

magfile is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

magfile is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with magfile.  If not, see <http://www.gnu.org/licenses/>.
*/

package magfile

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/spatialmodel/magfile/magtime"
)

func TestFindParameterGroups(t *testing.T) {
	groups := findParameterGroups([]string{
		"CORE_CLIMATESENSITIVITY",
		"OUT_ZERO_TEMP_PERIOD_2",
		"OUT_ZERO_TEMP_PERIOD_1",
		"FILE_EMISSCEN_2",
	})
	want := map[string][]string{
		"OUT_ZERO_TEMP_PERIOD": {"OUT_ZERO_TEMP_PERIOD_1", "OUT_ZERO_TEMP_PERIOD_2"},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("groups = %v, want %v", groups, want)
	}
}

// The text fixture deliberately scrambles the year and tuple-member
// column order; the reader must restore both.
var compactCSV = `"SURFACE_TEMP__GLOBAL__2001","SURFACE_TEMP__GLOBAL__2000","CORE_CLIMATESENSITIVITY","OUT_ZERO_TEMP_PERIOD_2","OUT_ZERO_TEMP_PERIOD_1",
1.5,1.25,3.0,1900.0,1850.0,
1.75,1.5,2.5,1901.0,1851.0,
`

func checkCompactFile(t *testing.T, f *File) {
	t.Helper()
	wantTimes := annualTimes(2000, 2001)
	if len(f.Table.Times) != 2 || !f.Table.Times[0].Equal(wantTimes[0]) || !f.Table.Times[1].Equal(wantTimes[1]) {
		t.Errorf("times = %v", f.Table.Times)
	}
	if len(f.Table.Series) != 2 {
		t.Fatalf("got %d series, want 2", len(f.Table.Series))
	}
	wantValues := [][]float64{{1.25, 1.5}, {1.5, 1.75}}
	for run := 0; run < 2; run++ {
		found := false
		for _, s := range f.Table.Series {
			if s.Meta.RunID != run {
				continue
			}
			found = true
			if s.Meta.Region != "World" || s.Meta.Variable != "Surface Temperature" {
				t.Errorf("run %d: region, variable = %q, %q", run, s.Meta.Region, s.Meta.Variable)
			}
			if s.Meta.Unit != "unknown" || s.Meta.Todo != "N/A" {
				t.Errorf("run %d: unit, todo = %q, %q", run, s.Meta.Unit, s.Meta.Todo)
			}
			if !valuesEqual(s.Values, wantValues[run], 0) {
				t.Errorf("run %d: values = %v, want %v", run, s.Values, wantValues[run])
			}
		}
		if !found {
			t.Errorf("no series for run %d", run)
		}
		params := f.Runs[run]
		if params == nil {
			t.Fatalf("no parameters for run %d", run)
		}
		wantCS := []float64{3.0 - 0.5*float64(run)}
		if !valuesEqual(params["CORE_CLIMATESENSITIVITY"], wantCS, 0) {
			t.Errorf("run %d: climate sensitivity = %v, want %v", run,
				params["CORE_CLIMATESENSITIVITY"], wantCS)
		}
		wantPeriod := []float64{1850 + float64(run), 1900 + float64(run)}
		if !valuesEqual(params["OUT_ZERO_TEMP_PERIOD"], wantPeriod, 0) {
			t.Errorf("run %d: zero-temp period = %v, want %v", run,
				params["OUT_ZERO_TEMP_PERIOD"], wantPeriod)
		}
	}
}

func TestCompactTextRead(t *testing.T) {
	reg := testRegistry(t)
	f, err := reg.Read([]byte(compactCSV), "TESTRUN_COMPACT.OUT")
	if err != nil {
		t.Fatal(err)
	}
	checkCompactFile(t, f)
}

func TestCompactBinaryRead(t *testing.T) {
	reg := testRegistry(t)
	var buf bytes.Buffer
	appendStringRecord(&buf, "COMPACT_V1")
	appendStringRecord(&buf, "HEAD")
	for _, name := range []string{
		"SURFACE_TEMP__GLOBAL__2001",
		"SURFACE_TEMP__GLOBAL__2000",
		"CORE_CLIMATESENSITIVITY",
		"OUT_ZERO_TEMP_PERIOD_2",
		"OUT_ZERO_TEMP_PERIOD_1",
	} {
		appendStringRecord(&buf, name)
	}
	appendStringRecord(&buf, "END")
	appendFloat32sRecord(&buf, []float64{1.5, 1.25, 3.0, 1900, 1850})
	appendStringRecord(&buf, "END")
	appendFloat32sRecord(&buf, []float64{1.75, 1.5, 2.5, 1901, 1851})
	appendStringRecord(&buf, "END")

	f, err := reg.Read(buf.Bytes(), "TESTRUN_COMPACT.BINOUT")
	if err != nil {
		t.Fatal(err)
	}
	checkCompactFile(t, f)
}

func TestCompactBinaryBadSentinel(t *testing.T) {
	reg := testRegistry(t)
	var buf bytes.Buffer
	appendStringRecord(&buf, "NOT_COMPACT")
	_, err := reg.Read(buf.Bytes(), "TESTRUN_COMPACT.BINOUT")
	var merr *MalformedDataBlockError
	if !errors.As(err, &merr) {
		t.Fatalf("got %v, want MalformedDataBlockError", err)
	}
}

func TestCompactSubAnnualColumn(t *testing.T) {
	reg := testRegistry(t)
	csv := `"SURFACE_TEMP__GLOBAL__20005","CORE_CLIMATESENSITIVITY"
1.5,3.0
`
	_, err := reg.Read([]byte(csv), "TESTRUN_COMPACT.OUT")
	var terr *magtime.UnrecognizedTemporalResolutionError
	if !errors.As(err, &terr) {
		t.Fatalf("got %v, want UnrecognizedTemporalResolutionError", err)
	}
}
