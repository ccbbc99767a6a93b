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
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// The model's binary outputs are Fortran sequential-access files: each
// record is framed by a little-endian int32 byte count before and after
// the payload, and the two counts must agree.

// FramingMismatchError reports a record whose leading and trailing length
// fields disagree, or a record that runs past the end of the file.
type FramingMismatchError struct {
	Offset   int
	Leading  int32
	Trailing int32
	Reason   string
}

func (e *FramingMismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("magfile: bad record framing at byte %d: %s", e.Offset, e.Reason)
	}
	return fmt.Sprintf("magfile: bad record framing at byte %d: leading length %d != trailing length %d",
		e.Offset, e.Leading, e.Trailing)
}

// A recordReader walks the framed records of an in-memory sequential file.
type recordReader struct {
	data []byte
	pos  int
}

func newRecordReader(data []byte) *recordReader {
	return &recordReader{data: data}
}

// more reports whether any bytes remain.
func (r *recordReader) more() bool { return r.pos < len(r.data) }

// next returns the payload of the next record.
func (r *recordReader) next() ([]byte, error) {
	start := r.pos
	if len(r.data)-r.pos < 4 {
		return nil, &FramingMismatchError{Offset: start, Reason: "truncated leading length field"}
	}
	n := int32(binary.LittleEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	if n < 0 || len(r.data)-r.pos < int(n)+4 {
		return nil, &FramingMismatchError{Offset: start, Leading: n,
			Reason: fmt.Sprintf("record of %d bytes runs past end of file", n)}
	}
	payload := r.data[r.pos : r.pos+int(n)]
	r.pos += int(n)
	trailing := int32(binary.LittleEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	if trailing != n {
		return nil, &FramingMismatchError{Offset: start, Leading: n, Trailing: trailing}
	}
	return payload, nil
}

// nextInt32s returns the next record decoded as int32 values.
func (r *recordReader) nextInt32s() ([]int32, error) {
	p, err := r.next()
	if err != nil {
		return nil, err
	}
	if len(p)%4 != 0 {
		return nil, &FramingMismatchError{Offset: r.pos,
			Reason: fmt.Sprintf("record length %d is not a multiple of 4", len(p))}
	}
	out := make([]int32, len(p)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(p[i*4:]))
	}
	return out, nil
}

// nextInt16 returns the next record decoded as a single int16.
func (r *recordReader) nextInt16() (int16, error) {
	p, err := r.next()
	if err != nil {
		return 0, err
	}
	if len(p) != 2 {
		return 0, &FramingMismatchError{Offset: r.pos,
			Reason: fmt.Sprintf("expected a 2-byte record, got %d bytes", len(p))}
	}
	return int16(binary.LittleEndian.Uint16(p)), nil
}

// nextString returns the next record as a string with NUL padding removed.
func (r *recordReader) nextString() (string, error) {
	p, err := r.next()
	if err != nil {
		return "", err
	}
	return stripNUL(string(p)), nil
}

// nextFloat64s returns the next record decoded as float64 values.
func (r *recordReader) nextFloat64s() ([]float64, error) {
	p, err := r.next()
	if err != nil {
		return nil, err
	}
	if len(p)%8 != 0 {
		return nil, &FramingMismatchError{Offset: r.pos,
			Reason: fmt.Sprintf("record length %d is not a multiple of 8", len(p))}
	}
	out := make([]float64, len(p)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(p[i*8:]))
	}
	return out, nil
}

// nextFloat32s returns the next record decoded as float32 values, widened
// to float64.
func (r *recordReader) nextFloat32s() ([]float64, error) {
	p, err := r.next()
	if err != nil {
		return nil, err
	}
	if len(p)%4 != 0 {
		return nil, &FramingMismatchError{Offset: r.pos,
			Reason: fmt.Sprintf("record length %d is not a multiple of 4", len(p))}
	}
	out := make([]float64, len(p)/4)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:])))
	}
	return out, nil
}

// writeRecord frames payload as one sequential-access record. It is used
// by the tests to build fixture files the way the model writes them.
func writeRecord(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("magfile.writeRecord: %v", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("magfile.writeRecord: %v", err)
	}
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("magfile.writeRecord: %v", err)
	}
	return nil
}
