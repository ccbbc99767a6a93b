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
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// Reader decodes one dialect. The file is fully materialized before
// parsing; path is only used for filename-based inference.
type Reader interface {
	Read(data []byte, path string) (*File, error)
}

// Writer encodes one dialect, returning any advisories generated while
// translating names. The input File is not modified.
type Writer interface {
	Write(w io.Writer, f *File) ([]string, error)
}

func stripNUL(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

// splitLines splits a whole file into lines, dropping carriage returns
// and the NUL bytes the model's Fortran writer sometimes emits.
func splitLines(data []byte) []string {
	s := stripNUL(strings.ReplaceAll(string(data), "\r\n", "\n"))
	lines := strings.Split(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// parseFloat parses a numeric token, accepting Fortran D-exponents.
func parseFloat(tok string) (float64, error) {
	tok = strings.ReplaceAll(strings.ReplaceAll(tok, "D", "E"), "d", "e")
	return strconv.ParseFloat(tok, 64)
}

// headerTags are the keys recognized in legacy free-text headers, where
// metadata appears as "tag: value" lines.
var headerTags = []string{
	"compiled by", "contact", "data", "date", "description", "gas",
	"source", "unit", "magicc-version", "run", "run_id", "normalisation",
	"timeseriestype",
}

// parseLegacyHeader separates "tag: value" lines from free header text.
func parseLegacyHeader(lines []string) Metadata {
	m := Metadata{Fields: make(map[string]string)}
	var free []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		tagged := false
		for _, tag := range headerTags {
			if strings.HasPrefix(lower, tag+":") {
				m.Fields[tag] = strings.TrimSpace(trimmed[len(tag)+1:])
				tagged = true
				break
			}
		}
		if !tagged && trimmed != "" {
			free = append(free, trimmed)
		}
	}
	m.Header = strings.Join(free, "\n")
	return m
}

const (
	headerSection   = "---- HEADER ----"
	metadataSection = "---- METADATA ----"
)

// parseSectionedHeader parses the "---- HEADER ----" / "---- METADATA ----"
// layout used by .MAG files, falling back to the legacy tag style when the
// section markers are absent.
func parseSectionedHeader(lines []string) Metadata {
	hasSections := false
	for _, line := range lines {
		if strings.TrimSpace(line) == headerSection {
			hasSections = true
			break
		}
	}
	if !hasSections {
		return parseLegacyHeader(lines)
	}
	m := Metadata{Fields: make(map[string]string)}
	var free []string
	section := ""
	lastKey := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch trimmed {
		case headerSection:
			section = "header"
			continue
		case metadataSection:
			section = "metadata"
			continue
		}
		switch section {
		case "header":
			if trimmed != "" {
				free = append(free, trimmed)
			}
		case "metadata":
			if trimmed == "" {
				continue
			}
			if key, value, found := strings.Cut(trimmed, ":"); found {
				key = strings.ToLower(strings.TrimSpace(key))
				m.Fields[key] = strings.TrimSpace(value)
				lastKey = key
			} else if lastKey != "" {
				// continuation of a multi-line value
				m.Fields[lastKey] += "\n" + trimmed
			}
		}
	}
	m.Header = strings.Join(free, "\n")
	return m
}

// wideHeader holds the parsed column-header rows of a wide-table data
// block. Slices are nil when the corresponding row is absent.
type wideHeader struct {
	variables []string
	todos     []string
	units     []string
	columns   []string // region codes, or variable names in some outputs
	rows      int      // header rows consumed
}

var wideHeaderLabels = []string{"VARIABLE", "GAS", "TODO", "UNITS", "YEARS", "COLCODE", "REGION"}

// parseWideHeader consumes the label rows (VARIABLE/GAS, TODO, UNITS,
// YEARS/COLCODE) preceding the numeric block. firstLine is the 1-based
// file line of lines[0], for error reporting.
func parseWideHeader(lines []string, firstLine int) (*wideHeader, error) {
	h := &wideHeader{}
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			h.rows++
			continue
		}
		if _, err := parseFloat(fields[0]); err == nil {
			break
		}
		label := strings.ToUpper(strings.TrimSuffix(fields[0], ":"))
		values := fields[1:]
		switch label {
		case "VARIABLE", "GAS":
			h.variables = values
		case "TODO":
			h.todos = values
		case "UNITS", "UNIT":
			h.units = values
		case "YEARS", "YEAR", "YRS", "COLCODE", "REGION", "REGIONS":
			h.columns = values
		default:
			return nil, &MalformedDataBlockError{Line: firstLine + i,
				Reason: fmt.Sprintf("unexpected column-header token %q; expected one of %s",
					fields[0], strings.Join(wideHeaderLabels, ", "))}
		}
		h.rows++
	}
	if h.columns == nil {
		return nil, &MalformedDataBlockError{Line: firstLine,
			Reason: fmt.Sprintf("no column-header row found; expected a row starting with one of %s",
				strings.Join(wideHeaderLabels, ", "))}
	}
	return h, nil
}

// parseWideData parses the numeric block into a time axis and per-column
// values. Rows after the first non-numeric line are tolerated as trailing
// notes. firstLine is the 1-based file line of lines[0].
func parseWideData(lines []string, firstLine, ncols int, conv *magtime.Converter) ([]time.Time, [][]float64, error) {
	var times []time.Time
	values := make([][]float64, ncols)
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		tv, err := parseFloat(fields[0])
		if err != nil {
			break // trailing free text
		}
		if len(fields)-1 != ncols {
			return nil, nil, &MalformedDataBlockError{Line: firstLine + i,
				Reason: fmt.Sprintf("expected %d data columns, got %d", ncols, len(fields)-1)}
		}
		tm, err := timeFromToken(fields[0], tv, conv)
		if err != nil {
			return nil, nil, err
		}
		times = append(times, tm)
		for c, tok := range fields[1:] {
			v, err := parseFloat(tok)
			if err != nil {
				if strings.EqualFold(tok, "nan") || strings.Trim(tok, "*") == "" {
					v = math.NaN()
				} else {
					return nil, nil, &MalformedDataBlockError{Line: firstLine + i,
						Reason: fmt.Sprintf("cannot parse value %q", tok)}
				}
			}
			values[c] = append(values[c], v)
		}
	}
	if len(times) == 0 {
		return nil, nil, &MalformedDataBlockError{Line: firstLine,
			Reason: "no data rows found"}
	}
	return times, values, nil
}

// timeFromToken maps a time token to a timestamp: integer tokens are
// start-of-year; fractional tokens are decimal years.
func timeFromToken(tok string, v float64, conv *magtime.Converter) (time.Time, error) {
	if !strings.ContainsAny(tok, ".eEdD") {
		return time.Date(int(v), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}
	if v == math.Trunc(v) {
		return time.Date(int(v), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return conv.ToTime(v)
}

// textReader decodes the wide-table text dialects. Each dialect assembles
// one from the capabilities it needs instead of subclassing a shared base.
type textReader struct {
	defs *definitions.Set
	conv *magtime.Converter
	name string

	// variable inference
	variableFromPath *regexp.Regexp // capture group 1 on the base filename
	fixedVariable    string
	kindSuffix       string   // appended to bare species tokens, e.g. "_EMIS"
	tokenStrips      []string // noise tokens removed from variable names

	// column interpretation
	columnsAreVariables bool
	columnVariable      func(tok string) string
	fixedRegion         string

	// unit handling
	emissions        bool
	opticalThickness bool

	defaultTodo      string
	sectionedHeader  bool
	namelistOptional bool
}

func (r *textReader) Read(data []byte, path string) (*File, error) {
	lines := splitLines(data)
	shape, nlStart, nlEnd, err := parseNamelist(lines)
	if err != nil {
		return nil, err
	}
	headerEnd := nlStart
	bodyStart := nlEnd + 1
	if shape == nil {
		if !r.namelistOptional {
			return nil, &MalformedNamelistError{
				Reason: fmt.Sprintf("%s: no &THISFILE_SPECIFICATIONS block found", r.name)}
		}
		shape = &fileShape{}
		// Header runs up to the column-header rows, found by scanning for
		// a recognized label row.
		headerEnd = -1
		for i, line := range lines {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			label := strings.ToUpper(strings.TrimSuffix(fields[0], ":"))
			for _, known := range wideHeaderLabels {
				if label == known {
					headerEnd = i
					break
				}
			}
			if headerEnd >= 0 {
				break
			}
		}
		if headerEnd < 0 {
			return nil, &MalformedDataBlockError{
				Reason: fmt.Sprintf("%s: no column-header row found; expected a row starting with one of %s",
					r.name, strings.Join(wideHeaderLabels, ", "))}
		}
		bodyStart = headerEnd
	}

	f := &File{}
	if r.sectionedHeader {
		f.Metadata = parseSectionedHeader(lines[:headerEnd])
	} else {
		f.Metadata = parseLegacyHeader(lines[:headerEnd])
	}

	h, err := parseWideHeader(lines[bodyStart:], bodyStart+1)
	if err != nil {
		return nil, err
	}
	ncols := len(h.columns)
	if shape.DataColumns > 0 && shape.DataColumns != ncols {
		return nil, &MalformedDataBlockError{
			Reason: fmt.Sprintf("%s: namelist declares %d data columns but the header row has %d",
				r.name, shape.DataColumns, ncols)}
	}

	dataStart := bodyStart + h.rows
	times, values, err := parseWideData(lines[dataStart:], dataStart+1, ncols, r.conv)
	if err != nil {
		return nil, err
	}

	variables, regions, err := r.columnDimensions(h, path, ncols)
	if err != nil {
		return nil, err
	}
	units := r.columnUnits(h, shape, ncols, f)

	f.Table.Times = times
	for c := 0; c < ncols; c++ {
		region := r.canonicalRegion(regions[c], f)
		variable := r.canonicalVariable(variables[c], f)
		todo := r.defaultTodo
		if h.todos != nil && c < len(h.todos) {
			todo = h.todos[c]
		}
		f.Table.Series = append(f.Table.Series, Timeseries{
			Meta: SeriesMeta{
				Model:        "unspecified",
				Scenario:     "unspecified",
				ClimateModel: "unspecified",
				Region:       region,
				Variable:     variable,
				Unit:         units[c],
				Todo:         todo,
			},
			Values: values[c],
		})
	}
	if err := f.Table.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// columnDimensions resolves the per-column raw variable and region names.
func (r *textReader) columnDimensions(h *wideHeader, path string, ncols int) (variables, regions []string, err error) {
	variables = make([]string, ncols)
	regions = make([]string, ncols)
	switch {
	case r.columnsAreVariables:
		for c, tok := range h.columns {
			if r.columnVariable != nil {
				variables[c] = r.columnVariable(tok)
			} else {
				variables[c] = tok
			}
			regions[c] = r.fixedRegion
		}
	default:
		copy(regions, h.columns)
		switch {
		case h.variables != nil:
			if len(h.variables) != ncols {
				return nil, nil, &MalformedDataBlockError{
					Reason: fmt.Sprintf("%s: VARIABLE row has %d entries for %d columns",
						r.name, len(h.variables), ncols)}
			}
			copy(variables, h.variables)
		case r.fixedVariable != "":
			for c := range variables {
				variables[c] = r.fixedVariable
			}
		case r.variableFromPath != nil:
			v, err := r.inferVariable(path)
			if err != nil {
				return nil, nil, err
			}
			for c := range variables {
				variables[c] = v
			}
		default:
			return nil, nil, &MalformedDataBlockError{
				Reason: fmt.Sprintf("%s: no VARIABLE/GAS row and no filename rule to infer the variable", r.name)}
		}
	}
	return variables, regions, nil
}

func (r *textReader) inferVariable(path string) (string, error) {
	base := filepath.Base(path)
	m := r.variableFromPath.FindStringSubmatch(base)
	if m == nil {
		return "", &MalformedDataBlockError{
			Reason: fmt.Sprintf("%s: cannot infer variable from filename %q (want %s)",
				r.name, base, r.variableFromPath)}
	}
	return m[1], nil
}

// columnUnits resolves per-column canonical units, using the namelist
// units string when the UNITS row is absent.
func (r *textReader) columnUnits(h *wideHeader, shape *fileShape, ncols int, f *File) []string {
	units := make([]string, ncols)
	for c := range units {
		raw := shape.Units
		if h.units != nil && c < len(h.units) {
			raw = h.units[c]
		}
		if raw == "" {
			raw = "unknown"
		}
		u := definitions.FromFortranSafe(raw)
		if r.emissions {
			u = definitions.ExpandEmissionsUnit(u)
		}
		if r.opticalThickness {
			// Optical-thickness data is dimensionless; the written unit
			// only records the normalisation.
			if u != "dimensionless" {
				f.Metadata.setField("normalisation", u)
			}
			u = "dimensionless"
		}
		units[c] = u
	}
	return units
}

func (r *textReader) canonicalRegion(raw string, f *File) string {
	c := r.defs.RegionToCanonical(raw)
	f.Advisories = append(f.Advisories, c.Advisories...)
	if c.Value == raw && strings.Contains(raw, "_") {
		// Unrecognized region written by the fallback spelling rule.
		return strings.ReplaceAll(raw, "_", " ")
	}
	return c.Value
}

func (r *textReader) canonicalVariable(raw string, f *File) string {
	for _, strip := range r.tokenStrips {
		raw = strings.ReplaceAll(raw, strip, "")
	}
	if r.kindSuffix != "" && !strings.HasSuffix(strings.ToUpper(raw), r.kindSuffix) {
		raw += r.kindSuffix
	}
	c := r.defs.VariableToCanonical(raw)
	f.Advisories = append(f.Advisories, c.Advisories...)
	return c.Value
}

func (m *Metadata) setField(key, value string) {
	if m.Fields == nil {
		m.Fields = make(map[string]string)
	}
	m.Fields[key] = value
}
