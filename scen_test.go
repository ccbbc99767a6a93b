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

	"github.com/spatialmodel/magfile/definitions"
)

func TestSpecialScenCode(t *testing.T) {
	sres := []string{"WORLD", "OECD90", "REF", "ASIA", "ALM"}
	bunkers := []string{"WORLD", "R5OECD", "R5REF", "R5ASIA", "R5MAF", "R5LAM", "BUNKERS"}
	tests := []struct {
		regions []string
		full    bool
		want    int
	}{
		{[]string{"WORLD"}, false, 10},
		{[]string{"WORLD"}, true, 11},
		{sres, true, 21},
		{bunkers, true, 41},
	}
	for _, test := range tests {
		got, err := SpecialScenCode(test.regions, definitions.ScenSpecies(test.full))
		if err != nil {
			t.Errorf("regions %v: %v", test.regions, err)
			continue
		}
		if got != test.want {
			t.Errorf("regions %v, full %v: code = %d, want %d", test.regions, test.full, got, test.want)
		}
	}
}

func TestSpecialScenCodeUnknownSets(t *testing.T) {
	species := definitions.ScenSpecies(true)
	_, err := SpecialScenCode([]string{"WORLD", "MARS"}, species)
	var rerr *definitions.UnrecognizedRegionSetError
	if !errors.As(err, &rerr) {
		t.Errorf("got %v, want UnrecognizedRegionSetError", err)
	}
	_, err = SpecialScenCode([]string{"WORLD"}, species[:len(species)-1])
	var merr *MalformedDataBlockError
	if !errors.As(err, &merr) {
		t.Errorf("got %v, want MalformedDataBlockError", err)
	}
}

// scenTestFile builds a World-only table carrying the 20-species set
// (no aerosols).
func scenTestFile(t *testing.T, reg *Registry) *File {
	t.Helper()
	f := &File{Metadata: Metadata{Fields: map[string]string{
		"name":        "TESTSCEN",
		"description": "synthetic scenario for codec checks",
		"notes":       "not for science",
	}}}
	f.Table.Times = annualTimes(2000, 2010)
	for i, sp := range definitions.ScenSpecies(false) {
		unit := "Mt " + sp + " / yr"
		values := []float64{float64(i) + 0.25, float64(i) + 0.75}
		if sp == "CO2I" {
			unit = "Gt C / yr"
			values = []float64{6.735, 7.125}
		} else if sp == "CO2B" {
			unit = "Gt C / yr"
		}
		f.Table.Series = append(f.Table.Series, Timeseries{
			Meta: SeriesMeta{
				Region:   "World",
				Variable: reg.Definitions().VariableToCanonical(sp + "_EMIS").Value,
				Unit:     unit,
				Todo:     "SET",
			},
			Values: values,
		})
	}
	return f
}

func TestSCENRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	f := scenTestFile(t, reg)

	var buf bytes.Buffer
	advisories, err := reg.Write(&buf, f, "TESTSCEN.SCEN")
	if err != nil {
		t.Fatal(err)
	}
	if len(advisories) != 0 {
		t.Errorf("unexpected advisories: %v", advisories)
	}
	lines := splitLines(buf.Bytes())
	if strings.TrimSpace(lines[0]) != "2" || strings.TrimSpace(lines[1]) != "10" {
		t.Errorf("preamble = %q, %q, want row count 2 and code 10", lines[0], lines[1])
	}

	got, err := reg.Read(buf.Bytes(), "TESTSCEN.SCEN")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Table.Series) != len(f.Table.Series) {
		t.Fatalf("got %d series, want %d", len(got.Table.Series), len(f.Table.Series))
	}
	for _, want := range f.Table.Series {
		s := findSeries(t, &got.Table, want.Meta.Region, want.Meta.Variable)
		if s.Meta.Unit != want.Meta.Unit {
			t.Errorf("%s: unit = %q, want %q", want.Meta.Variable, s.Meta.Unit, want.Meta.Unit)
		}
		if !valuesEqual(s.Values, want.Values, 0) {
			t.Errorf("%s: values = %v, want %v", want.Meta.Variable, s.Values, want.Values)
		}
	}
	for _, key := range []string{"name", "description", "notes"} {
		if got.Metadata.Fields[key] != f.Metadata.Fields[key] {
			t.Errorf("%s = %q, want %q", key, got.Metadata.Fields[key], f.Metadata.Fields[key])
		}
	}
}

func TestSCENCodeMismatch(t *testing.T) {
	reg := testRegistry(t)
	f := scenTestFile(t, reg)

	var buf bytes.Buffer
	if _, err := reg.Write(&buf, f, "TESTSCEN.SCEN"); err != nil {
		t.Fatal(err)
	}
	// Claim the full 23-species set while carrying only 20 species.
	text := strings.Replace(buf.String(), "\n   10\n", "\n   11\n", 1)
	_, err := reg.Read([]byte(text), "TESTSCEN.SCEN")
	var merr *MalformedDataBlockError
	if !errors.As(err, &merr) {
		t.Fatalf("got %v, want MalformedDataBlockError", err)
	}
	if !strings.Contains(merr.Reason, "implies 10") {
		t.Errorf("unexpected reason %q", merr.Reason)
	}
}

func TestSCENRejectsNonEmissions(t *testing.T) {
	reg := testRegistry(t)
	f := &File{}
	f.Table.Times = annualTimes(2000, 2001)
	f.Table.Series = []Timeseries{{
		Meta: SeriesMeta{Region: "World", Variable: "Atmospheric Concentrations|CO2",
			Unit: "ppm", Todo: "SET"},
		Values: []float64{368.1, 369.5},
	}}
	var buf bytes.Buffer
	_, err := reg.Write(&buf, f, "TESTSCEN.SCEN")
	var merr *MalformedDataBlockError
	if !errors.As(err, &merr) {
		t.Fatalf("got %v, want MalformedDataBlockError", err)
	}
}
