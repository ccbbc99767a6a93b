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
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// Compact run-ensemble outputs hold one row per model run. Columns mix
// variable__region__year timeseries values with scalar run parameters;
// nothing but the naming convention separates the two. The text variant
// is CSV with quoted headers; the binary variant reuses the sequential
// record framing with literal COMPACT_V1/HEAD/END sentinel records.
// Read-only: the model writes these.

// parameter families whose names legitimately end in an integer index
var ungroupedParameterFamilies = []string{
	"file_emisscen", "out_keydata", "file_tuningmodel",
}

// findParameterGroups finds the parameters that belong together as
// ordered tuples: names sharing a prefix plus a trailing integer index,
// e.g. OUT_ZERO_TEMP_PERIOD_1 and OUT_ZERO_TEMP_PERIOD_2. Members are
// ordered by their index.
func findParameterGroups(names []string) map[string][]string {
	groups := make(map[string][]string)
	for _, name := range names {
		i := strings.LastIndex(name, "_")
		if i < 0 {
			continue
		}
		prefix := name[:i]
		if containsString(ungroupedParameterFamilies, strings.ToLower(prefix)) {
			continue
		}
		if _, err := strconv.Atoi(name[i+1:]); err != nil {
			continue
		}
		groups[prefix] = append(groups[prefix], name)
	}
	for prefix, members := range groups {
		sort.Slice(members, func(i, j int) bool {
			a, _ := strconv.Atoi(members[i][len(prefix)+1:])
			b, _ := strconv.Atoi(members[j][len(prefix)+1:])
			return a < b
		})
	}
	return groups
}

// compactTable is a parsed run-ensemble file before the column split:
// one row of values per run, in header order.
type compactTable struct {
	headers []string
	rows    [][]float64
}

func newCompactReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &compactReader{defs: defs, binary: false}
}

func newBinaryCompactReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &compactReader{defs: defs, binary: true}
}

type compactReader struct {
	defs   *definitions.Set
	binary bool
}

func (r *compactReader) Read(data []byte, path string) (*File, error) {
	var t *compactTable
	var err error
	if r.binary {
		t, err = readBinaryCompactTable(data)
	} else {
		t, err = readTextCompactTable(data)
	}
	if err != nil {
		return nil, err
	}
	return r.assemble(t)
}

// readTextCompactTable parses the CSV variant: a quoted header line,
// then one line of float values per run. Trailing commas are tolerated.
func readTextCompactTable(data []byte) (*compactTable, error) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return nil, &MalformedDataBlockError{Line: 1, Reason: "compact: empty file"}
	}
	var headers []string
	for _, tok := range strings.Split(strings.Trim(strings.TrimSpace(lines[0]), ","), ",") {
		headers = append(headers, strings.Trim(strings.TrimSpace(tok), `"`))
	}
	t := &compactTable{headers: headers}
	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		toks := strings.Split(strings.Trim(strings.TrimSpace(line), ","), ",")
		if len(toks) != len(headers) {
			return nil, &MalformedDataBlockError{Line: i + 2,
				Reason: fmt.Sprintf("compact: %d values for %d headers", len(toks), len(headers))}
		}
		row := make([]float64, len(toks))
		for c, tok := range toks {
			v, err := parseFloat(strings.TrimSpace(tok))
			if err != nil {
				return nil, &MalformedDataBlockError{Line: i + 2,
					Reason: fmt.Sprintf("compact: cannot parse value %q", tok)}
			}
			row[c] = v
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// readBinaryCompactTable parses the framed binary variant: COMPACT_V1
// and HEAD sentinel records, header name records until END, then per
// run one float32 record terminated by an END record.
func readBinaryCompactTable(data []byte) (*compactTable, error) {
	rr := newRecordReader(data)
	for _, want := range []string{"COMPACT_V1", "HEAD"} {
		got, err := rr.nextString()
		if err != nil {
			return nil, err
		}
		if got != want {
			return nil, &MalformedDataBlockError{
				Reason: fmt.Sprintf("compact: expected %q sentinel record, got %q", want, got)}
		}
	}
	t := &compactTable{}
	for {
		name, err := rr.nextString()
		if err != nil {
			return nil, err
		}
		if name == "END" {
			break
		}
		t.headers = append(t.headers, name)
	}
	for rr.more() {
		row, err := rr.nextFloat32s()
		if err != nil {
			return nil, err
		}
		if len(row) != len(t.headers) {
			return nil, &MalformedDataBlockError{
				Reason: fmt.Sprintf("compact: %d values for %d headers", len(row), len(t.headers))}
		}
		terminator, err := rr.nextString()
		if err != nil {
			return nil, err
		}
		if terminator != "END" {
			return nil, &MalformedDataBlockError{
				Reason: fmt.Sprintf("compact: expected END row terminator, got %q", terminator)}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// assemble splits the columns into timeseries and run parameters and
// builds the File.
func (r *compactReader) assemble(t *compactTable) (*File, error) {
	type tsKey struct {
		variable string
		region   string
	}
	type tsColumn struct {
		column int
		year   int
	}
	series := make(map[tsKey][]tsColumn)
	var keys []tsKey
	var paramColumns []int
	yearSet := make(map[int]bool)
	for c, h := range t.headers {
		parts := strings.Split(h, "__")
		if len(parts) != 3 {
			paramColumns = append(paramColumns, c)
			continue
		}
		if len(parts[2]) != 4 {
			return nil, &magtime.UnrecognizedTemporalResolutionError{
				Reason: fmt.Sprintf("compact: year token %q in column %q is not a 4-digit year; only annual data can be read", parts[2], h)}
		}
		year, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, &MalformedDataBlockError{
				Reason: fmt.Sprintf("compact: cannot parse year from column %q", h)}
		}
		key := tsKey{variable: parts[0], region: parts[1]}
		if _, ok := series[key]; !ok {
			keys = append(keys, key)
		}
		series[key] = append(series[key], tsColumn{column: c, year: year})
		yearSet[year] = true
	}
	if len(keys) == 0 {
		return nil, &MalformedDataBlockError{
			Reason: "compact: no variable__region__year columns found"}
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)
	yearIndex := make(map[int]int, len(years))
	for i, y := range years {
		yearIndex[y] = i
	}

	f := &File{
		Metadata: Metadata{Fields: make(map[string]string)},
		Runs:     make(map[int]RunParameters, len(t.rows)),
	}
	for _, y := range years {
		f.Table.Times = append(f.Table.Times,
			time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC))
	}

	groups := findParameterGroups(headerSubset(t.headers, paramColumns))
	grouped := make(map[string]bool)
	for _, members := range groups {
		for _, m := range members {
			grouped[m] = true
		}
	}
	columnOf := make(map[string]int, len(paramColumns))
	for _, c := range paramColumns {
		columnOf[t.headers[c]] = c
	}

	for run, row := range t.rows {
		params := make(RunParameters)
		for _, c := range paramColumns {
			if name := t.headers[c]; !grouped[name] {
				params[name] = []float64{row[c]}
			}
		}
		// Tuple members in index order, whatever the column order.
		for prefix, members := range groups {
			values := make([]float64, len(members))
			for i, m := range members {
				values[i] = row[columnOf[m]]
			}
			params[prefix] = values
		}
		f.Runs[run] = params

		for _, key := range keys {
			columns := series[key]
			if len(columns) != len(years) {
				return nil, &MalformedDataBlockError{
					Reason: fmt.Sprintf("compact: series %s__%s covers %d of %d years",
						key.variable, key.region, len(columns), len(years))}
			}
			values := make([]float64, len(years))
			for _, tc := range columns {
				values[yearIndex[tc.year]] = row[tc.column]
			}
			variable := r.defs.VariableToCanonical(strings.TrimPrefix(key.variable, "DAT_"))
			f.Advisories = append(f.Advisories, variable.Advisories...)
			region := r.defs.RegionToCanonical(key.region)
			f.Advisories = append(f.Advisories, region.Advisories...)
			f.Table.Series = append(f.Table.Series, Timeseries{
				Meta: SeriesMeta{
					Model:        "unspecified",
					Scenario:     "unspecified",
					ClimateModel: "unspecified",
					Region:       region.Value,
					Variable:     variable.Value,
					Unit:         "unknown",
					Todo:         "N/A",
					RunID:        run,
				},
				Values: values,
			})
		}
	}
	return f, f.Table.Validate()
}

// headerSubset returns the header names at the given column indices.
func headerSubset(headers []string, columns []int) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = headers[c]
	}
	return out
}
