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
	"fmt"
	"strings"
	"time"

	"github.com/ctessum/sparse"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// DAT_*.BINOUT files come in two layouts. Legacy files start directly
// with four header records (datacolumns, firstyear, lastyear,
// annualsteps, each one uint32) followed by a global float64 array and,
// for four-box files, one concatenated column-major array of the box
// values. Version-2 files prefix the same header with a "magicc" magic
// record and an int16 version record, and replace the positional arrays
// with self-describing per-column records (variable, region, unit
// strings, then the values). Read-only: the model writes these.

const binoutMagic = "magicc"

// fourBoxRegions is the column order of the box array in legacy files.
var fourBoxRegions = []string{
	"World|Northern Hemisphere|Ocean",
	"World|Northern Hemisphere|Land",
	"World|Southern Hemisphere|Ocean",
	"World|Southern Hemisphere|Land",
}

func newBinoutReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &binoutReader{defs: defs}
}

type binoutReader struct {
	defs *definitions.Set
}

type binoutHeader struct {
	dataColumns int
	firstYear   int
	lastYear    int
}

func (r *binoutReader) Read(data []byte, path string) (*File, error) {
	rr := newRecordReader(data)

	version, err := binVersion(rr)
	if err != nil {
		return nil, err
	}
	if version != 0 && version != 2 {
		return nil, fmt.Errorf("magfile: %s: no decoder for binary format version %d", path, version)
	}

	h, err := r.readHeader(rr, path)
	if err != nil {
		return nil, err
	}

	f := &File{Metadata: Metadata{Fields: make(map[string]string)}}
	nyears := h.lastYear - h.firstYear + 1
	for y := 0; y < nyears; y++ {
		f.Table.Times = append(f.Table.Times,
			time.Date(h.firstYear+y, time.January, 1, 0, 0, 0, 0, time.UTC))
	}

	if version == 2 {
		err = r.readColumns(rr, h, f)
	} else {
		err = r.readLegacy(rr, h, f, path)
	}
	if err != nil {
		return nil, err
	}
	return f, f.Table.Validate()
}

// binVersion consumes the magic and version records of a version-2 file.
// Legacy files have no magic record, so the reader resets to the start.
func binVersion(rr *recordReader) (int16, error) {
	start := rr.pos
	magic, err := rr.nextString()
	if err != nil || magic != binoutMagic {
		rr.pos = start
		return 0, nil
	}
	return rr.nextInt16()
}

func (r *binoutReader) readHeader(rr *recordReader, path string) (*binoutHeader, error) {
	var fields [4]int
	for i := range fields {
		v, err := rr.nextInt32s()
		if err != nil {
			return nil, err
		}
		if len(v) != 1 {
			return nil, &FramingMismatchError{Offset: rr.pos,
				Reason: fmt.Sprintf("expected a single header value, got %d", len(v))}
		}
		fields[i] = int(v[0])
	}
	if steps := fields[3]; steps != 1 {
		return nil, &magtime.UnrecognizedTemporalResolutionError{
			Reason: fmt.Sprintf("%s: %d steps per year; only annual binary files can be read", path, steps)}
	}
	return &binoutHeader{dataColumns: fields[0], firstYear: fields[1], lastYear: fields[2]}, nil
}

// readLegacy decodes the positional layout: a global array, then for
// four-box files one concatenated column-major box array.
func (r *binoutReader) readLegacy(rr *recordReader, h *binoutHeader, f *File, path string) error {
	variable, err := r.legacyVariable(path, f)
	if err != nil {
		return err
	}

	nyears := len(f.Table.Times)
	globe, err := rr.nextFloat64s()
	if err != nil {
		return err
	}
	if len(globe) != nyears {
		return &MalformedDataBlockError{
			Reason: fmt.Sprintf("binout: global array has %d values for %d years", len(globe), nyears)}
	}
	addSeries := func(region string, values []float64) {
		f.Table.Series = append(f.Table.Series, Timeseries{
			Meta: SeriesMeta{
				Model:        "unspecified",
				Scenario:     "unspecified",
				ClimateModel: "unspecified",
				Region:       region,
				Variable:     variable,
				Unit:         "unknown",
				Todo:         "N/A",
			},
			Values: values,
		})
	}
	addSeries("World", globe)

	if h.dataColumns == 1 {
		return nil
	}
	flat, err := rr.nextFloat64s()
	if err != nil {
		return err
	}
	if len(flat)%nyears != 0 {
		return &MalformedDataBlockError{
			Reason: fmt.Sprintf("binout: box array of %d values is not a multiple of %d years", len(flat), nyears)}
	}
	nboxes := len(flat) / nyears
	if nboxes != len(fourBoxRegions) {
		return &MalformedDataBlockError{
			Reason: fmt.Sprintf("binout: expected %d box columns, got %d", len(fourBoxRegions), nboxes)}
	}
	boxes := sparse.ZerosDense(nyears, nboxes)
	for b := 0; b < nboxes; b++ {
		for t := 0; t < nyears; t++ {
			boxes.Set(flat[b*nyears+t], t, b)
		}
	}
	for b, region := range fourBoxRegions {
		values := make([]float64, nyears)
		for t := range values {
			values[t] = boxes.Get(t, b)
		}
		addSeries(region, values)
	}
	return nil
}

// readColumns decodes the version-2 self-describing layout.
func (r *binoutReader) readColumns(rr *recordReader, h *binoutHeader, f *File) error {
	nyears := len(f.Table.Times)
	for c := 0; c < h.dataColumns; c++ {
		rawVariable, err := rr.nextString()
		if err != nil {
			return err
		}
		rawRegion, err := rr.nextString()
		if err != nil {
			return err
		}
		unit, err := rr.nextString()
		if err != nil {
			return err
		}
		values, err := rr.nextFloat64s()
		if err != nil {
			return err
		}
		if len(values) != nyears {
			return &MalformedDataBlockError{
				Reason: fmt.Sprintf("binout: column %d has %d values for %d years", c+1, len(values), nyears)}
		}

		variable := r.defs.VariableToCanonical(strings.TrimPrefix(rawVariable, "DAT_"))
		f.Advisories = append(f.Advisories, variable.Advisories...)
		region := r.defs.RegionToCanonical(rawRegion)
		f.Advisories = append(f.Advisories, region.Advisories...)

		f.Table.Series = append(f.Table.Series, Timeseries{
			Meta: SeriesMeta{
				Model:        "unspecified",
				Scenario:     "unspecified",
				ClimateModel: "unspecified",
				Region:       region.Value,
				Variable:     variable.Value,
				Unit:         definitions.FromFortranSafe(unit),
				Todo:         "N/A",
			},
			Values: values,
		})
	}
	return nil
}

// legacyVariable infers the variable from the filename, the only place a
// legacy file records it.
func (r *binoutReader) legacyVariable(path string, f *File) (string, error) {
	m := binoutVariablePattern.FindStringSubmatch(strings.ToUpper(baseName(path)))
	if m == nil {
		return "", fmt.Errorf("magfile: cannot infer the variable from filename %q", path)
	}
	c := r.defs.VariableToCanonical(m[1])
	f.Advisories = append(f.Advisories, c.Advisories...)
	return c.Value, nil
}
