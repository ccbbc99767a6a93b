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
	"encoding/binary"
	"errors"
	"testing"

	"github.com/spatialmodel/magfile/magtime"
)

func binoutHeaderRecords(buf *bytes.Buffer, columns, firstYear, lastYear, steps int32) {
	appendInt32Record(buf, columns)
	appendInt32Record(buf, firstYear)
	appendInt32Record(buf, lastYear)
	appendInt32Record(buf, steps)
}

func TestBinoutLegacyGlobal(t *testing.T) {
	reg := testRegistry(t)
	var buf bytes.Buffer
	binoutHeaderRecords(&buf, 1, 2000, 2002, 1)
	appendFloat64sRecord(&buf, []float64{0.5, 0.625, 0.75})

	f, err := reg.Read(buf.Bytes(), "DAT_SURFACE_TEMP.BINOUT")
	if err != nil {
		t.Fatal(err)
	}
	wantTimes := annualTimes(2000, 2001, 2002)
	for i, tm := range f.Table.Times {
		if !tm.Equal(wantTimes[i]) {
			t.Errorf("time %d = %v, want %v", i, tm, wantTimes[i])
		}
	}
	if len(f.Table.Series) != 1 {
		t.Fatalf("got %d series, want 1", len(f.Table.Series))
	}
	s := findSeries(t, &f.Table, "World", "Surface Temperature")
	if s.Meta.Unit != "unknown" || s.Meta.Todo != "N/A" {
		t.Errorf("unit, todo = %q, %q, want unknown, N/A", s.Meta.Unit, s.Meta.Todo)
	}
	if !valuesEqual(s.Values, []float64{0.5, 0.625, 0.75}, 0) {
		t.Errorf("values = %v", s.Values)
	}
}

// The legacy box array is stored column-major: all years of one box,
// then the next box, in the order NH Ocean, NH Land, SH Ocean, SH Land.
func TestBinoutLegacyFourBox(t *testing.T) {
	reg := testRegistry(t)
	var buf bytes.Buffer
	binoutHeaderRecords(&buf, 5, 2000, 2001, 1)
	appendFloat64sRecord(&buf, []float64{0.5, 0.75}) // World
	appendFloat64sRecord(&buf, []float64{
		1.0, 1.25, // NH Ocean
		2.0, 2.25, // NH Land
		3.0, 3.25, // SH Ocean
		4.0, 4.25, // SH Land
	})

	f, err := reg.Read(buf.Bytes(), "DAT_SURFACE_TEMP.BINOUT")
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Table.Series) != 5 {
		t.Fatalf("got %d series, want 5", len(f.Table.Series))
	}
	want := map[string][]float64{
		"World":                           {0.5, 0.75},
		"World|Northern Hemisphere|Ocean": {1.0, 1.25},
		"World|Northern Hemisphere|Land":  {2.0, 2.25},
		"World|Southern Hemisphere|Ocean": {3.0, 3.25},
		"World|Southern Hemisphere|Land":  {4.0, 4.25},
	}
	for region, values := range want {
		s := findSeries(t, &f.Table, region, "Surface Temperature")
		if !valuesEqual(s.Values, values, 0) {
			t.Errorf("%s: values = %v, want %v", region, s.Values, values)
		}
	}
}

func TestBinoutVersion2(t *testing.T) {
	reg := testRegistry(t)
	var buf bytes.Buffer
	appendStringRecord(&buf, binoutMagic)
	appendInt16Record(&buf, 2)
	binoutHeaderRecords(&buf, 2, 2000, 2001, 1)
	appendStringRecord(&buf, "DAT_SURFACE_TEMP")
	appendStringRecord(&buf, "GLOBAL")
	appendStringRecord(&buf, "K")
	appendFloat64sRecord(&buf, []float64{0.5, 0.75})
	appendStringRecord(&buf, "DAT_CO2_CONC")
	appendStringRecord(&buf, "NHOCEAN")
	appendStringRecord(&buf, "ppm")
	appendFloat64sRecord(&buf, []float64{368.1, 369.5})

	f, err := reg.Read(buf.Bytes(), "DAT_SURFACE_TEMP.BINOUT")
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Table.Series) != 2 {
		t.Fatalf("got %d series, want 2", len(f.Table.Series))
	}
	s := findSeries(t, &f.Table, "World", "Surface Temperature")
	if s.Meta.Unit != "K" {
		t.Errorf("unit = %q, want K", s.Meta.Unit)
	}
	if !valuesEqual(s.Values, []float64{0.5, 0.75}, 0) {
		t.Errorf("values = %v", s.Values)
	}
	s = findSeries(t, &f.Table, "World|Northern Hemisphere|Ocean", "Atmospheric Concentrations|CO2")
	if s.Meta.Unit != "ppm" {
		t.Errorf("unit = %q, want ppm", s.Meta.Unit)
	}
	if !valuesEqual(s.Values, []float64{368.1, 369.5}, 0) {
		t.Errorf("values = %v", s.Values)
	}
}

func TestBinoutSubAnnual(t *testing.T) {
	reg := testRegistry(t)
	var buf bytes.Buffer
	binoutHeaderRecords(&buf, 1, 2000, 2001, 12)
	appendFloat64sRecord(&buf, []float64{0.5, 0.75})

	_, err := reg.Read(buf.Bytes(), "DAT_SURFACE_TEMP.BINOUT")
	var terr *magtime.UnrecognizedTemporalResolutionError
	if !errors.As(err, &terr) {
		t.Fatalf("got %v, want UnrecognizedTemporalResolutionError", err)
	}
}

func TestBinoutUnknownVersion(t *testing.T) {
	reg := testRegistry(t)
	var buf bytes.Buffer
	appendStringRecord(&buf, binoutMagic)
	appendInt16Record(&buf, 3)
	if _, err := reg.Read(buf.Bytes(), "DAT_SURFACE_TEMP.BINOUT"); err == nil {
		t.Fatal("expected an error for an unknown binary format version")
	}
}

func TestBinoutBadFraming(t *testing.T) {
	reg := testRegistry(t)
	var buf bytes.Buffer
	binoutHeaderRecords(&buf, 1, 2000, 2001, 1)
	appendFloat64sRecord(&buf, []float64{0.5, 0.75})
	data := buf.Bytes()
	binary.LittleEndian.PutUint32(data[len(data)-4:], 7)

	_, err := reg.Read(data, "DAT_SURFACE_TEMP.BINOUT")
	var ferr *FramingMismatchError
	if !errors.As(err, &ferr) {
		t.Fatalf("got %v, want FramingMismatchError", err)
	}
}
