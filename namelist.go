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
	"strconv"
	"strings"
)

// fileShape holds the file-shape metadata carried by the
// &THISFILE_SPECIFICATIONS namelist block. Writers always derive these
// values from the assembled output; they are never caller-set.
type fileShape struct {
	DataColumns    int
	DataRows       int
	FirstYear      int
	LastYear       int
	AnnualSteps    int
	Units          string
	DatType        string
	RegionMode     string
	FirstDataRow   int
	TimeSeriesType string
}

// escapeNamelist rewrites characters that the Fortran namelist reader
// cannot carry. The replacements are unambiguous so unescapeNamelist can
// invert them.
func escapeNamelist(s string) string {
	s = strings.ReplaceAll(s, "W/m", "Wperm")
	return strings.ReplaceAll(s, "^", "superscript")
}

func unescapeNamelist(s string) string {
	s = strings.ReplaceAll(s, "Wperm", "W/m")
	return strings.ReplaceAll(s, "superscript", "^")
}

// parseNamelist finds and parses the first &NAME ... / block in lines.
// It returns the parsed shape and the zero-based index range [start, end]
// of the block, or a nil shape if the lines contain no namelist.
func parseNamelist(lines []string) (shape *fileShape, start, end int, err error) {
	start = -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "&") {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, -1, -1, nil
	}
	shape = &fileShape{}
	seen := make(map[string]int)
	for i := start + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "/" {
			return shape, start, i, nil
		}
		if line == "" {
			continue
		}
		line = strings.TrimSuffix(line, ",")
		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, -1, -1, &MalformedNamelistError{Line: i + 1,
				Reason: fmt.Sprintf("expected KEY = VALUE, got %q", line)}
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		if prev, dup := seen[key]; dup {
			return nil, -1, -1, &MalformedNamelistError{Line: i + 1,
				Reason: fmt.Sprintf("key %s already set at line %d", key, prev)}
		}
		seen[key] = i + 1
		value = strings.TrimSpace(value)
		if err := shape.set(key, value, i+1); err != nil {
			return nil, -1, -1, err
		}
	}
	return nil, -1, -1, &MalformedNamelistError{Line: start + 1,
		Reason: "namelist block has no terminating /"}
}

func (s *fileShape) set(key, value string, line int) error {
	unquote := func() string {
		value = strings.Trim(value, `"'`)
		return unescapeNamelist(value)
	}
	integer := func() (int, error) {
		n, err := strconv.Atoi(strings.Trim(value, `"'`))
		if err != nil {
			return 0, &MalformedNamelistError{Line: line,
				Reason: fmt.Sprintf("%s: expected integer, got %q", key, value)}
		}
		return n, nil
	}
	var err error
	switch key {
	case "THISFILE_DATACOLUMNS":
		s.DataColumns, err = integer()
	case "THISFILE_DATAROWS":
		s.DataRows, err = integer()
	case "THISFILE_FIRSTYEAR":
		s.FirstYear, err = integer()
	case "THISFILE_LASTYEAR":
		s.LastYear, err = integer()
	case "THISFILE_ANNUALSTEPS":
		s.AnnualSteps, err = integer()
	case "THISFILE_FIRSTDATAROW":
		s.FirstDataRow, err = integer()
	case "THISFILE_UNITS":
		s.Units = unquote()
	case "THISFILE_DATTYPE":
		s.DatType = unquote()
	case "THISFILE_REGIONMODE":
		s.RegionMode = unquote()
	case "THISFILE_TIMESERIESTYPE":
		s.TimeSeriesType = unquote()
	default:
		// Unknown keys are tolerated; the model adds keys over time.
	}
	return err
}

// namelistLines formats the shape as a namelist block. magicc6 targets
// omit the keys the older model rejects.
func (s *fileShape) namelistLines(magicc6 bool) []string {
	lines := []string{"&THISFILE_SPECIFICATIONS"}
	add := func(key string, v interface{}) {
		switch v := v.(type) {
		case int:
			lines = append(lines, fmt.Sprintf(" %s = %d ,", key, v))
		case string:
			lines = append(lines, fmt.Sprintf(" %s = %q ,", key, escapeNamelist(v)))
		}
	}
	add("THISFILE_DATACOLUMNS", s.DataColumns)
	if !magicc6 {
		add("THISFILE_DATAROWS", s.DataRows)
	}
	add("THISFILE_FIRSTYEAR", s.FirstYear)
	add("THISFILE_LASTYEAR", s.LastYear)
	add("THISFILE_ANNUALSTEPS", s.AnnualSteps)
	add("THISFILE_FIRSTDATAROW", s.FirstDataRow)
	add("THISFILE_UNITS", s.Units)
	add("THISFILE_DATTYPE", s.DatType)
	if !magicc6 {
		add("THISFILE_REGIONMODE", s.RegionMode)
	}
	if s.TimeSeriesType != "" {
		add("THISFILE_TIMESERIESTYPE", s.TimeSeriesType)
	}
	lines = append(lines, "/")
	return lines
}
