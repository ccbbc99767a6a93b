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
	"math"
	"testing"
	"time"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func annualTimes(years ...int) []time.Time {
	out := make([]time.Time, len(years))
	for i, y := range years {
		out[i] = time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return out
}

// findSeries returns the series with the given region and variable, or
// fails the test.
func findSeries(t *testing.T, tab *Table, region, variable string) *Timeseries {
	t.Helper()
	for i := range tab.Series {
		if tab.Series[i].Meta.Region == region && tab.Series[i].Meta.Variable == variable {
			return &tab.Series[i]
		}
	}
	t.Fatalf("no series for region %q variable %q", region, variable)
	return nil
}

func valuesEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

// Binary fixture builders, framing values the way the model's Fortran
// writer does.

func appendInt32Record(buf *bytes.Buffer, v int32) {
	var p [4]byte
	binary.LittleEndian.PutUint32(p[:], uint32(v))
	writeRecord(buf, p[:])
}

func appendInt16Record(buf *bytes.Buffer, v int16) {
	var p [2]byte
	binary.LittleEndian.PutUint16(p[:], uint16(v))
	writeRecord(buf, p[:])
}

func appendStringRecord(buf *bytes.Buffer, s string) {
	writeRecord(buf, []byte(s))
}

func appendFloat64sRecord(buf *bytes.Buffer, vals []float64) {
	p := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(p[i*8:], math.Float64bits(v))
	}
	writeRecord(buf, p)
}

func appendFloat32sRecord(buf *bytes.Buffer, vals []float64) {
	p := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(float32(v)))
	}
	writeRecord(buf, p)
}
