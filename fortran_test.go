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
)

func TestRecordRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	appendStringRecord(&buf, "magicc")
	appendInt16Record(&buf, 2)
	appendInt32Record(&buf, 1765)
	appendFloat64sRecord(&buf, []float64{1.5, -2.25, 0})

	r := newRecordReader(buf.Bytes())
	s, err := r.nextString()
	if err != nil {
		t.Fatal(err)
	}
	if s != "magicc" {
		t.Errorf("string record = %q, want %q", s, "magicc")
	}
	v16, err := r.nextInt16()
	if err != nil {
		t.Fatal(err)
	}
	if v16 != 2 {
		t.Errorf("int16 record = %d, want 2", v16)
	}
	ints, err := r.nextInt32s()
	if err != nil {
		t.Fatal(err)
	}
	if len(ints) != 1 || ints[0] != 1765 {
		t.Errorf("int32 record = %v, want [1765]", ints)
	}
	floats, err := r.nextFloat64s()
	if err != nil {
		t.Fatal(err)
	}
	if !valuesEqual(floats, []float64{1.5, -2.25, 0}, 0) {
		t.Errorf("float record = %v", floats)
	}
	if r.more() {
		t.Error("reader reports more data after final record")
	}
}

func TestRecordFramingMismatch(t *testing.T) {
	var buf bytes.Buffer
	appendFloat64sRecord(&buf, []float64{1, 2, 3})
	data := buf.Bytes()
	// Corrupt the trailing length marker.
	binary.LittleEndian.PutUint32(data[len(data)-4:], 999)

	r := newRecordReader(data)
	_, err := r.next()
	var ferr *FramingMismatchError
	if !errors.As(err, &ferr) {
		t.Fatalf("got %v, want FramingMismatchError", err)
	}
	if ferr.Leading != 24 || ferr.Trailing != 999 {
		t.Errorf("leading, trailing = %d, %d, want 24, 999", ferr.Leading, ferr.Trailing)
	}
}

func TestRecordTruncated(t *testing.T) {
	var buf bytes.Buffer
	appendFloat64sRecord(&buf, []float64{1, 2})
	data := buf.Bytes()[:len(buf.Bytes())-6]

	r := newRecordReader(data)
	_, err := r.next()
	var ferr *FramingMismatchError
	if !errors.As(err, &ferr) {
		t.Fatalf("got %v, want FramingMismatchError", err)
	}
}
