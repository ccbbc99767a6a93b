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
	"strings"
	"testing"
)

func TestRCPDATEmissionsRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	f := &File{Metadata: Metadata{Fields: map[string]string{
		"content":        "emissions data",
		"run":            "Historical",
		"contact":        "someone@example.com",
		"magicc-version": "MAGICC6",
		"note":           "first note line\nsecond note line",
	}}}
	f.Table.Times = annualTimes(2000, 2001)
	f.Table.Series = []Timeseries{
		{
			Meta: SeriesMeta{Region: "World",
				Variable: "Emissions|CO2|MAGICC Fossil and Industrial",
				Unit:     "Gt C / yr", Todo: "SET"},
			Values: []float64{6.735, 6.896},
		},
		{
			Meta: SeriesMeta{Region: "World", Variable: "Emissions|CH4",
				Unit: "Mt CH4 / yr", Todo: "SET"},
			Values: []float64{300.25, 305.5},
		},
	}

	var buf bytes.Buffer
	if _, err := reg.Write(&buf, f, "20THCENTURY_EMISSIONS.DAT"); err != nil {
		t.Fatal(err)
	}
	text := buf.String()
	for _, want := range []string{
		"RUN: Historical",
		columnDescriptionMarker,
		"UNITS:",
		"GtC",
		`THISFILE_DATTYPE = "RCPDAT"`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	got, err := reg.Read(buf.Bytes(), "20THCENTURY_EMISSIONS.DAT")
	if err != nil {
		t.Fatal(err)
	}
	if got.Metadata.Fields["note"] != "first note line\nsecond note line" {
		t.Errorf("note = %q", got.Metadata.Fields["note"])
	}
	for _, want := range f.Table.Series {
		s := findSeries(t, &got.Table, "World", want.Meta.Variable)
		if s.Meta.Unit != want.Meta.Unit {
			t.Errorf("%s: unit = %q, want %q", want.Meta.Variable, s.Meta.Unit, want.Meta.Unit)
		}
		if s.Meta.Scenario != "Historical" || s.Meta.ClimateModel != "MAGICC6" {
			t.Errorf("%s: scenario, climate model = %q, %q", want.Meta.Variable,
				s.Meta.Scenario, s.Meta.ClimateModel)
		}
		if !valuesEqual(s.Values, want.Values, 0) {
			t.Errorf("%s: values = %v, want %v", want.Meta.Variable, s.Values, want.Values)
		}
	}
}

func TestRCPDATForcingRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	f := &File{Metadata: Metadata{Fields: map[string]string{"run": "RCP3PD"}}}
	f.Table.Times = annualTimes(2000, 2001)
	f.Table.Series = []Timeseries{
		{
			Meta: SeriesMeta{Region: "World", Variable: "Radiative Forcing",
				Unit: "W / m^2", Todo: "SET"},
			Values: []float64{1.625, 1.75},
		},
		{
			Meta: SeriesMeta{Region: "World", Variable: "Radiative Forcing|Anthropogenic",
				Unit: "W / m^2", Todo: "SET"},
			Values: []float64{1.5, 1.5625},
		},
	}

	var buf bytes.Buffer
	if _, err := reg.Write(&buf, f, "RCP3PD_MIDYEAR_RADFORCING.DAT"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "W/m2") {
		t.Errorf("forcing unit not written in its file spelling:\n%s", buf.String())
	}

	got, err := reg.Read(buf.Bytes(), "RCP3PD_MIDYEAR_RADFORCING.DAT")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range f.Table.Series {
		s := findSeries(t, &got.Table, "World", want.Meta.Variable)
		if s.Meta.Unit != "W / m^2" {
			t.Errorf("%s: unit = %q, want W / m^2", want.Meta.Variable, s.Meta.Unit)
		}
		if !valuesEqual(s.Values, want.Values, 0) {
			t.Errorf("%s: values = %v, want %v", want.Meta.Variable, s.Values, want.Values)
		}
	}
}

// The first column decides the file kind, so a file led by a
// non-sentinel species cannot be decoded.
func TestRCPDATUnknownSentinel(t *testing.T) {
	reg := testRegistry(t)
	f := &File{Metadata: Metadata{Fields: map[string]string{"run": "TEST"}}}
	f.Table.Times = annualTimes(2000, 2001)
	f.Table.Series = []Timeseries{{
		Meta: SeriesMeta{Region: "World", Variable: "Emissions|CH4",
			Unit: "Mt CH4 / yr", Todo: "SET"},
		Values: []float64{300, 305},
	}}

	var buf bytes.Buffer
	if _, err := reg.Write(&buf, f, "TEST_EMISSIONS.DAT"); err != nil {
		t.Fatal(err)
	}
	_, err := reg.Read(buf.Bytes(), "TEST_EMISSIONS.DAT")
	var merr *MalformedDataBlockError
	if !errors.As(err, &merr) {
		t.Fatalf("got %v, want MalformedDataBlockError", err)
	}
	if !strings.Contains(merr.Reason, "kind sentinel") {
		t.Errorf("unexpected reason %q", merr.Reason)
	}
}

func TestRCPDATRejectsMixedKinds(t *testing.T) {
	reg := testRegistry(t)
	f := &File{}
	f.Table.Times = annualTimes(2000, 2001)
	f.Table.Series = []Timeseries{
		{
			Meta: SeriesMeta{Region: "World",
				Variable: "Emissions|CO2|MAGICC Fossil and Industrial",
				Unit:     "Gt C / yr", Todo: "SET"},
			Values: []float64{6.735, 6.896},
		},
		{
			Meta: SeriesMeta{Region: "World", Variable: "Radiative Forcing",
				Unit: "W / m^2", Todo: "SET"},
			Values: []float64{1.5, 1.625},
		},
	}
	var buf bytes.Buffer
	_, err := reg.Write(&buf, f, "TEST_EMISSIONS.DAT")
	var merr *MalformedDataBlockError
	if !errors.As(err, &merr) {
		t.Fatalf("got %v, want MalformedDataBlockError", err)
	}
	if !strings.Contains(merr.Reason, "same kind") {
		t.Errorf("unexpected reason %q", merr.Reason)
	}
}
