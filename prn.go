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
	"strconv"
	"strings"
	"time"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// The .prn dialect has no structured header: values sit in fixed
// 10-character columns holding the fixed set of 16 halogenated species
// for the World region. A single unit token in the free header decides
// whether the file holds concentrations ("ppt") or emissions
// ("metric tons"); absent means emissions. The first line is an indicator
// (first-data-row, first-year, last-year) that the writer derives from
// the assembled file.

const prnColWidth = 10

func newPRNReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &prnReader{defs: defs}
}

type prnReader struct {
	defs *definitions.Set
}

func (r *prnReader) Read(data []byte, path string) (*File, error) {
	lines := splitLines(data)
	if len(lines) < 3 {
		return nil, &MalformedDataBlockError{Reason: "prn: file too short"}
	}

	firstDataRow := 0
	if ints, ok := intFields(lines[0], 3); ok {
		firstDataRow = ints[0]
	} else {
		// No indicator line; find the first row starting with a year.
		for i, line := range lines {
			if len(line) >= 4 {
				if _, err := strconv.Atoi(strings.TrimSpace(line[:4])); err == nil && i > 0 {
					firstDataRow = i + 1
					break
				}
			}
		}
	}
	if firstDataRow < 3 || firstDataRow > len(lines) {
		return nil, &MalformedDataBlockError{
			Reason: fmt.Sprintf("prn: cannot locate the first data row (indicator says %d)", firstDataRow)}
	}

	headerLines := lines[1 : firstDataRow-1]
	conc := false
	emis := false
	for _, line := range headerLines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "ppt") {
			conc = true
		}
		if strings.Contains(lower, "metric tons") {
			emis = true
		}
	}
	if conc && emis {
		return nil, &MalformedDataBlockError{
			Reason: "prn: header mentions both ppt and metric tons; cannot decide the data kind"}
	}

	species, err := r.speciesColumns(headerLines, firstDataRow)
	if err != nil {
		return nil, err
	}

	f := &File{Metadata: parseLegacyHeader(headerLines)}
	suffix, unit := "_EMIS", ""
	if conc {
		suffix, unit = "_CONC", "ppt"
	}
	values := make([][]float64, len(species))
	for li := firstDataRow - 1; li < len(lines); li++ {
		line := lines[li]
		if strings.TrimSpace(line) == "" {
			continue
		}
		yearWidth := 4
		if len(line) >= prnColWidth*(len(species)+1) {
			yearWidth = prnColWidth
		}
		if len(line) < yearWidth+prnColWidth*len(species) {
			break // trailing free text
		}
		year, err := strconv.Atoi(strings.TrimSpace(line[:yearWidth]))
		if err != nil {
			break
		}
		f.Table.Times = append(f.Table.Times,
			time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
		for c := range species {
			fieldStart := yearWidth + c*prnColWidth
			tok := strings.TrimSpace(line[fieldStart : fieldStart+prnColWidth])
			v, err := parseFloat(tok)
			if err != nil {
				return nil, &MalformedDataBlockError{Line: li + 1,
					Reason: fmt.Sprintf("prn: cannot parse value %q", tok)}
			}
			values[c] = append(values[c], v)
		}
	}
	if len(f.Table.Times) == 0 {
		return nil, &MalformedDataBlockError{Reason: "prn: no data rows found"}
	}

	for c, sp := range species {
		u := unit
		if u == "" {
			u = "t " + sp + " / yr"
		}
		variable := r.defs.VariableToCanonical(sp + suffix)
		f.Advisories = append(f.Advisories, variable.Advisories...)
		f.Table.Series = append(f.Table.Series, Timeseries{
			Meta: SeriesMeta{
				Model:        "unspecified",
				Scenario:     "unspecified",
				ClimateModel: "unspecified",
				Region:       "World",
				Variable:     variable.Value,
				Unit:         u,
				Todo:         "SET",
			},
			Values: values[c],
		})
	}
	return f, f.Table.Validate()
}

// speciesColumns reads the species header row (the last header line) and
// reconciles it against the fixed species set.
func (r *prnReader) speciesColumns(headerLines []string, firstDataRow int) ([]string, error) {
	want := definitions.PRNSpecies()
	if len(headerLines) == 0 {
		return nil, &MalformedDataBlockError{Reason: "prn: no species header row"}
	}
	fields := strings.Fields(headerLines[len(headerLines)-1])
	if len(fields) > 0 && strings.EqualFold(fields[0], "years") {
		fields = fields[1:]
	}
	species := make([]string, len(fields))
	for i, tok := range fields {
		species[i] = r.defs.SpeciesToMAGICC7(tok).Value
	}
	if !sameStringSet(species, want) {
		return nil, &MalformedDataBlockError{Line: firstDataRow - 1,
			Reason: fmt.Sprintf("prn: species columns %v do not match the fixed species set %v",
				species, want)}
	}
	return species, nil
}

func intFields(line string, n int) ([]int, bool) {
	fields := strings.Fields(line)
	if len(fields) < n {
		return nil, false
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func newPRNWriter(defs *definitions.Set, conv *magtime.Converter) Writer {
	return &prnWriter{defs: defs}
}

type prnWriter struct {
	defs *definitions.Set
}

func (w *prnWriter) Write(out io.Writer, f *File) ([]string, error) {
	t := f.Table.DeepCopy()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := t.dropMissingRows(); err != nil {
		return nil, err
	}
	if !t.isAnnual() {
		return nil, &MalformedDataBlockError{Reason: "prn: only annual data can be written"}
	}

	conc := true
	bySpecies := make(map[string][]float64)
	var species []string
	for _, s := range t.Series {
		if s.Meta.Region != "World" {
			return nil, &MalformedDataBlockError{
				Reason: fmt.Sprintf("prn: only World data can be written, got region %q", s.Meta.Region)}
		}
		if s.Meta.Unit != "ppt" {
			conc = false
		}
		m7 := w.defs.VariableFromCanonical(s.Meta.Variable).Value
		sp := strings.TrimSuffix(strings.TrimSuffix(m7, "_CONC"), "_EMIS")
		bySpecies[sp] = s.Values
		species = append(species, sp)
	}
	order := definitions.PRNSpecies()
	if !sameStringSet(species, order) {
		return nil, &MalformedDataBlockError{
			Reason: fmt.Sprintf("prn: species %v do not match the fixed species set %v", species, order)}
	}

	var headerLines []string
	if f.Metadata.Header != "" {
		headerLines = strings.Split(f.Metadata.Header, "\n")
	}
	if conc {
		headerLines = append(headerLines, "Unit: ppt")
	} else {
		headerLines = append(headerLines, "Unit: metric tons")
	}
	speciesRow := strings.Repeat(" ", prnColWidth)
	for _, sp := range order {
		speciesRow += fmt.Sprintf("%*s", prnColWidth, sp)
	}
	headerLines = append(headerLines, speciesRow)

	firstYear, _ := annualYear(t.Times[0])
	lastYear, _ := annualYear(t.Times[len(t.Times)-1])
	firstDataRow := 1 + len(headerLines) + 1

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%10d%10d%10d\n", firstDataRow, firstYear, lastYear))
	for _, line := range headerLines {
		b.WriteString(line + "\n")
	}
	for i, tm := range t.Times {
		b.WriteString(fmt.Sprintf("%10d", tm.Year()))
		for _, sp := range order {
			if conc {
				b.WriteString(fmt.Sprintf("%*.3e", prnColWidth, bySpecies[sp][i]))
			} else {
				b.WriteString(fmt.Sprintf("%*.0f", prnColWidth, bySpecies[sp][i]))
			}
		}
		b.WriteString("\n")
	}
	if _, err := io.WriteString(out, b.String()); err != nil {
		return nil, fmt.Errorf("magfile.prnWriter.Write: %v", err)
	}
	return nil, nil
}
