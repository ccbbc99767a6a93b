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
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// wideWriter encodes the wide-table text dialects. Like textReader, each
// dialect assembles one from capability flags rather than subclassing.
type wideWriter struct {
	defs *definitions.Set
	conv *magtime.Converter
	name string

	magicc6          bool
	scen7            bool
	datType          string // override, e.g. "MAG"
	emissions        bool
	opticalThickness bool
	sectionedHeader  bool

	// regionFallback writes unrecognized region sets with REGIONMODE=NONE
	// instead of rejecting them (.MAG only).
	regionFallback bool

	timeSeriesType string // set by the .MAG writer after validation
}

// column is one output column with its native (file) spellings resolved.
type column struct {
	series   Timeseries
	region   string // MAGICC-native spelling
	variable string // MAGICC7 spelling
	unit     string // Fortran-safe spelling
	todo     string
}

func (w *wideWriter) Write(out io.Writer, f *File) ([]string, error) {
	t := f.Table.DeepCopy()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := t.dropMissingRows(); err != nil {
		return nil, err
	}
	if len(t.Series) == 0 {
		return nil, &MalformedDataBlockError{Reason: w.name + ": table has no series"}
	}

	var advisories []string
	cols := make([]column, len(t.Series))
	for i, s := range t.Series {
		region := w.defs.RegionFromCanonical(s.Meta.Region)
		variable := w.defs.VariableFromCanonical(s.Meta.Variable)
		advisories = append(advisories, region.Advisories...)
		advisories = append(advisories, variable.Advisories...)
		unit := s.Meta.Unit
		if w.opticalThickness {
			unit = f.Metadata.Fields["normalisation"]
			if unit == "" {
				unit = "dimensionless"
			}
		}
		cols[i] = column{
			series:   s,
			region:   fileRegionToken(region.Value),
			variable: variable.Value,
			unit:     definitions.ToFortranSafe(unit),
			todo:     defaultString(s.Meta.Todo, "SET"),
		}
	}

	shape := &fileShape{DatType: "REGIONDATA"}
	regionOrder, rs, err := w.orderColumns(cols)
	if err != nil {
		return nil, err
	}
	if rs != nil {
		shape.DatType = rs.DatType
		shape.RegionMode = rs.RegionMode
	} else {
		shape.RegionMode = "NONE"
	}
	if w.datType != "" {
		shape.DatType = w.datType
	}
	cols = regionOrder

	shape.DataColumns = len(cols)
	shape.DataRows = len(t.Times)
	shape.FirstYear = t.Times[0].Year()
	shape.LastYear = t.Times[len(t.Times)-1].Year()
	shape.AnnualSteps, err = annualSteps(t.Times, w.conv)
	if err != nil {
		return nil, err
	}
	shape.Units = commonUnit(cols)
	shape.TimeSeriesType = w.timeSeriesType

	timeTokens, err := w.timeTokens(t.Times)
	if err != nil {
		return nil, err
	}

	headerLines := w.headerLines(&f.Metadata)
	columnRows := w.columnRows(cols)
	nlLines := shape.namelistLines(w.magicc6)
	// FIRSTDATAROW is the 1-based line number of the first data row; the
	// count must include every line above it.
	shape.FirstDataRow = len(headerLines) + len(nlLines) + len(columnRows) + 1
	nlLines = shape.namelistLines(w.magicc6)

	var b strings.Builder
	for _, group := range [][]string{headerLines, nlLines, columnRows} {
		for _, line := range group {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	for i := range t.Times {
		b.WriteString(timeTokens[i])
		for _, c := range cols {
			b.WriteString(fmt.Sprintf("%19.5e", c.series.Values[i]))
		}
		b.WriteString("\n")
	}
	if _, err := io.WriteString(out, b.String()); err != nil {
		return nil, fmt.Errorf("magfile.wideWriter.Write: %v", err)
	}
	return advisories, nil
}

// orderColumns sorts columns by variable (first appearance) and then by
// the canonical region order of the matched region set.
func (w *wideWriter) orderColumns(cols []column) ([]column, *definitions.RegionSet, error) {
	var regions []string
	seen := make(map[string]bool)
	for _, c := range cols {
		if !seen[c.region] {
			seen[c.region] = true
			regions = append(regions, c.region)
		}
	}
	rs, err := w.defs.RegionSetFor(regions, w.scen7)
	if err != nil {
		if !w.regionFallback {
			return nil, nil, err
		}
		rs = nil
	}
	regionRank := make(map[string]int)
	if rs != nil {
		for i, r := range rs.Regions {
			regionRank[r] = i
		}
	} else {
		for i, r := range regions {
			regionRank[r] = i
		}
	}
	variableRank := make(map[string]int)
	for _, c := range cols {
		if _, ok := variableRank[c.variable]; !ok {
			variableRank[c.variable] = len(variableRank)
		}
	}
	sorted := append([]column{}, cols...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if variableRank[sorted[i].variable] != variableRank[sorted[j].variable] {
			return variableRank[sorted[i].variable] < variableRank[sorted[j].variable]
		}
		return regionRank[sorted[i].region] < regionRank[sorted[j].region]
	})
	return sorted, rs, nil
}

func (w *wideWriter) headerLines(m *Metadata) []string {
	var lines []string
	if w.sectionedHeader {
		lines = append(lines, headerSection, "")
		if m.Header != "" {
			lines = append(lines, strings.Split(m.Header, "\n")...)
			lines = append(lines, "")
		}
		if len(m.Fields) > 0 {
			lines = append(lines, metadataSection, "")
			for _, key := range sortedKeys(m.Fields) {
				value := m.Fields[key]
				parts := strings.Split(value, "\n")
				lines = append(lines, fmt.Sprintf("%s: %s", key, parts[0]))
				for _, p := range parts[1:] {
					lines = append(lines, "\t"+p)
				}
			}
			lines = append(lines, "")
		}
		return lines
	}
	if m.Header != "" {
		lines = append(lines, strings.Split(m.Header, "\n")...)
	}
	for _, key := range sortedKeys(m.Fields) {
		lines = append(lines, fmt.Sprintf("%s: %s", key, strings.ReplaceAll(m.Fields[key], "\n", " ")))
	}
	return lines
}

func (w *wideWriter) columnRows(cols []column) []string {
	row := func(label string, value func(column) string) string {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("%11s", label))
		for _, c := range cols {
			b.WriteString(fmt.Sprintf("%19s", value(c)))
		}
		return b.String()
	}
	return []string{
		row("VARIABLE", func(c column) string { return c.variable }),
		row("TODO", func(c column) string { return c.todo }),
		row("UNITS", func(c column) string { return c.unit }),
		row("YEARS", func(c column) string { return c.region }),
	}
}

func (w *wideWriter) timeTokens(times []time.Time) ([]string, error) {
	tokens := make([]string, len(times))
	annual := true
	for _, tm := range times {
		if _, ok := annualYear(tm); !ok {
			annual = false
			break
		}
	}
	for i, tm := range times {
		if annual {
			tokens[i] = fmt.Sprintf("%11d", tm.Year())
			continue
		}
		d, err := w.conv.DecimalYear(tm)
		if err != nil {
			return nil, err
		}
		tokens[i] = fmt.Sprintf("%11.3f", d)
	}
	return tokens, nil
}

// annualSteps derives THISFILE_ANNUALSTEPS: the number of time steps per
// year, or 0 when the step is irregular. Steps are regular when each gap
// is within 2% of the mean gap.
func annualSteps(times []time.Time, conv *magtime.Converter) (int, error) {
	if len(times) < 2 {
		return 1, nil
	}
	decs := make([]float64, len(times))
	for i, tm := range times {
		if y, ok := annualYear(tm); ok {
			decs[i] = float64(y)
			continue
		}
		d, err := conv.DecimalYear(tm)
		if err != nil {
			return 0, err
		}
		decs[i] = d
	}
	mean := (decs[len(decs)-1] - decs[0]) / float64(len(decs)-1)
	if mean <= 0 {
		return 0, nil
	}
	for i := 1; i < len(decs); i++ {
		if !scalar.EqualWithinRel(decs[i]-decs[i-1], mean, 0.02) {
			return 0, nil
		}
	}
	steps := int(1/mean + 0.5)
	if steps < 1 {
		steps = 0
	}
	return steps, nil
}

func commonUnit(cols []column) string {
	unit := cols[0].unit
	for _, c := range cols[1:] {
		if c.unit != unit {
			return "MISC"
		}
	}
	return unit
}

// fileRegionToken makes a region name safe for whitespace-delimited
// column rows. Recognized regions never contain spaces; the fallback
// spelling for unrecognized ones replaces them.
func fileRegionToken(region string) string {
	return strings.ReplaceAll(region, " ", "_")
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

