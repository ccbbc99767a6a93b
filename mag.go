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
	"io"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// The .MAG free format: a wide table with a sectioned header, an explicit
// THISFILE_TIMESERIESTYPE flag, and tolerance for region sets outside the
// canonical ones (written with REGIONMODE=NONE and unabbreviated names).

// timeSeriesTypes are the accepted THISFILE_TIMESERIESTYPE values.
var timeSeriesTypes = []string{
	"MONTHLY",
	"POINT_START_YEAR", "POINT_MID_YEAR", "POINT_END_YEAR",
	"AVERAGE_YEAR_START_YEAR", "AVERAGE_YEAR_MID_YEAR", "AVERAGE_YEAR_END_YEAR",
}

func newMAGReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &magReader{defs: defs, conv: conv}
}

type magReader struct {
	defs *definitions.Set
	conv *magtime.Converter
}

func (r *magReader) Read(data []byte, path string) (*File, error) {
	tr := &textReader{
		defs: r.defs, conv: r.conv,
		name:            "mag",
		defaultTodo:     "SET",
		sectionedHeader: true,
	}
	f, err := tr.Read(data, path)
	if err != nil {
		return nil, err
	}
	shape, _, _, err := parseNamelist(splitLines(data))
	if err != nil {
		return nil, err
	}
	if shape != nil && shape.TimeSeriesType != "" {
		tst := shape.TimeSeriesType
		f.Metadata.setField("timeseriestype", tst)
		// Annual rows are written as integer years; the timeseries type
		// says where within the year each point sits.
		if allAnnual(f.Table.Times) {
			switch {
			case strings.HasSuffix(tst, "_MID_YEAR"):
				for i, tm := range f.Table.Times {
					mid, err := r.conv.ToTime(float64(tm.Year()) + 0.5)
					if err != nil {
						return nil, err
					}
					f.Table.Times[i] = mid
				}
			case strings.HasSuffix(tst, "_END_YEAR"):
				for i, tm := range f.Table.Times {
					f.Table.Times[i] = time.Date(tm.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
				}
			}
		}
		if err := validateTimeSeriesType(tst, f.Table.Times, r.conv); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func allAnnual(times []time.Time) bool {
	for _, tm := range times {
		if _, ok := annualYear(tm); !ok {
			return false
		}
	}
	return len(times) > 0
}

func newMAGWriter(defs *definitions.Set, conv *magtime.Converter) Writer {
	return &magWriter{defs: defs, conv: conv}
}

type magWriter struct {
	defs *definitions.Set
	conv *magtime.Converter
}

func (w *magWriter) Write(out io.Writer, f *File) ([]string, error) {
	tst := f.Metadata.Fields["timeseriestype"]
	if tst == "" {
		return nil, &MalformedDataBlockError{
			Reason: fmt.Sprintf("mag: metadata key \"timeseriestype\" is required; accepted values are %s",
				strings.Join(timeSeriesTypes, ", "))}
	}
	if err := validateTimeSeriesType(tst, f.Table.Times, w.conv); err != nil {
		return nil, err
	}
	if strings.HasSuffix(tst, "_END_YEAR") {
		// End-of-year timestamps have no decimal-year anchor; they are
		// written as integer years and reconstructed on read.
		g := *f
		g.Table = *f.Table.DeepCopy()
		for i, tm := range g.Table.Times {
			g.Table.Times[i] = time.Date(tm.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		}
		f = &g
	}
	ww := &wideWriter{
		defs: w.defs, conv: w.conv,
		name:            "mag",
		datType:         "MAG",
		sectionedHeader: true,
		regionFallback:  true,
		timeSeriesType:  tst,
	}
	return ww.Write(out, f)
}

// validateTimeSeriesType checks that the declared timeseries type matches
// the actual time axis.
func validateTimeSeriesType(tst string, times []time.Time, conv *magtime.Converter) error {
	known := false
	for _, t := range timeSeriesTypes {
		if tst == t {
			known = true
			break
		}
	}
	if !known {
		return &MalformedDataBlockError{
			Reason: fmt.Sprintf("mag: unknown timeseriestype %q; accepted values are %s",
				tst, strings.Join(timeSeriesTypes, ", "))}
	}
	mismatch := func(reason string) error {
		return &MalformedDataBlockError{
			Reason: fmt.Sprintf("mag: timeseriestype %s does not match the data: %s", tst, reason)}
	}
	switch tst {
	case "MONTHLY":
		steps, err := annualSteps(times, conv)
		if err != nil {
			return err
		}
		if steps != 12 {
			return mismatch(fmt.Sprintf("expected 12 steps per year, found %d", steps))
		}
	case "POINT_START_YEAR", "AVERAGE_YEAR_START_YEAR":
		for _, tm := range times {
			if _, ok := annualYear(tm); !ok {
				return mismatch(fmt.Sprintf("%v is not a start-of-year timestamp", tm))
			}
		}
	case "POINT_MID_YEAR", "AVERAGE_YEAR_MID_YEAR":
		for _, tm := range times {
			d, err := conv.DecimalYear(tm)
			if err != nil {
				return err
			}
			if !scalar.EqualWithinAbs(d-math.Floor(d), 0.5, 0.005) {
				return mismatch(fmt.Sprintf("%v is not a mid-year timestamp", tm))
			}
		}
	case "POINT_END_YEAR", "AVERAGE_YEAR_END_YEAR":
		for _, tm := range times {
			if tm.Month() != time.December || tm.Day() != 31 {
				return mismatch(fmt.Sprintf("%v is not an end-of-year timestamp", tm))
			}
		}
	}
	return nil
}
