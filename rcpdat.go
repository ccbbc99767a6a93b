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
	"strings"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// RCP-style .DAT files: a free-form metadata block (CONTENT/RUN/CONTACT/
// multi-line NOTE) up to a COLUMN_DESCRIPTION marker, a namelist, then
// COLUMN:/UNITS:/YEARS header rows and world-only data. The file carries
// no type flag; the kind (emissions, concentrations, forcing, effective
// forcing) is inferred from the first data column's name.

type rcpKind int

const (
	rcpEmissions rcpKind = iota
	rcpConcentrations
	rcpForcing
	rcpEffectiveForcing
)

const columnDescriptionMarker = "COLUMN_DESCRIPTION"

var rcpKindSentinels = []string{
	"CO2I (emissions)", "CO2EQ (concentrations)",
	"TOTAL_INCLVOLCANIC_RF (forcing)", "TOTAL_INCLVOLCANIC_ERF (effective forcing)",
}

func newRCPDATReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &rcpdatReader{defs: defs, conv: conv}
}

type rcpdatReader struct {
	defs *definitions.Set
	conv *magtime.Converter
}

func (r *rcpdatReader) Read(data []byte, path string) (*File, error) {
	lines := splitLines(data)
	shape, nlStart, nlEnd, err := parseNamelist(lines)
	if err != nil {
		return nil, err
	}
	if shape == nil {
		return nil, &MalformedNamelistError{
			Reason: "rcpdat: no &THISFILE_SPECIFICATIONS block found"}
	}

	f := &File{Metadata: r.readMetadata(lines[:nlStart])}

	var units, columns []string
	body := lines[nlEnd+1:]
	rows := 0
	for _, line := range body {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			rows++
			continue
		}
		if _, err := parseFloat(fields[0]); err == nil {
			break
		}
		switch strings.ToUpper(strings.TrimSuffix(fields[0], ":")) {
		case "COLUMN":
			// column indices; nothing to keep
		case "UNITS":
			units = fields[1:]
		case "YEARS", "YEAR":
			columns = fields[1:]
		default:
			return nil, &MalformedDataBlockError{Line: nlEnd + 2 + rows,
				Reason: fmt.Sprintf("rcpdat: unexpected header token %q; expected COLUMN:, UNITS: or YEARS", fields[0])}
		}
		rows++
	}
	if columns == nil || units == nil {
		return nil, &MalformedDataBlockError{
			Reason: "rcpdat: missing UNITS: or YEARS header row"}
	}
	if len(units) != len(columns) {
		return nil, &MalformedDataBlockError{
			Reason: fmt.Sprintf("rcpdat: %d units for %d columns", len(units), len(columns))}
	}

	kind, err := r.kindOf(columns[0])
	if err != nil {
		return nil, err
	}

	dataStart := nlEnd + 1 + rows
	times, values, err := parseWideData(lines[dataStart:], dataStart+1, len(columns), r.conv)
	if err != nil {
		return nil, err
	}

	scenario := defaultString(f.Metadata.Fields["run"], "unspecified")
	climateModel := defaultString(f.Metadata.Fields["magicc-version"], "unspecified")
	f.Table.Times = times
	for c, tok := range columns {
		variable, err := r.variableFor(kind, tok, f)
		if err != nil {
			return nil, err
		}
		unit := definitions.FromFortranSafe(units[c])
		if kind == rcpEmissions {
			unit = definitions.ExpandEmissionsUnit(unit)
		}
		f.Table.Series = append(f.Table.Series, Timeseries{
			Meta: SeriesMeta{
				Model:        "unspecified",
				Scenario:     scenario,
				ClimateModel: climateModel,
				Region:       "World",
				Variable:     variable,
				Unit:         unit,
				Todo:         "SET",
			},
			Values: values[c],
		})
	}
	return f, f.Table.Validate()
}

// readMetadata parses the "KEY: value" block above the namelist. NOTE
// collects continuation lines, *CONTACT keys collapse to CONTACT, and
// everything from the COLUMN_DESCRIPTION marker on is free header text.
func (r *rcpdatReader) readMetadata(lines []string) Metadata {
	m := Metadata{Fields: make(map[string]string)}
	var free []string
	lastKey := ""
	descriptions := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, columnDescriptionMarker) {
			descriptions = true
			continue
		}
		if descriptions {
			free = append(free, trimmed)
			continue
		}
		key, value, found := strings.Cut(trimmed, ":")
		if found && len(key) <= 40 && !strings.Contains(key, " :") {
			key = strings.ToLower(strings.TrimSpace(key))
			if strings.HasSuffix(key, "contact") {
				key = "contact"
			}
			if prev, ok := m.Fields[key]; ok {
				m.Fields[key] = prev + "\n" + strings.TrimSpace(value)
			} else {
				m.Fields[key] = strings.TrimSpace(value)
			}
			lastKey = key
		} else if lastKey != "" {
			m.Fields[lastKey] += "\n" + trimmed
		} else {
			free = append(free, trimmed)
		}
	}
	m.Header = strings.Join(free, "\n")
	return m
}

// kindOf infers the file kind from the first column's name.
func (r *rcpdatReader) kindOf(first string) (rcpKind, error) {
	switch r.defs.SpeciesToMAGICC7(first).Value {
	case "CO2I":
		return rcpEmissions, nil
	case "CO2EQ":
		return rcpConcentrations, nil
	}
	switch strings.ToUpper(strings.NewReplacer("-", "", "_", "").Replace(first)) {
	case "TOTALINCLVOLCANICRF":
		return rcpForcing, nil
	case "TOTALINCLVOLCANICERF":
		return rcpEffectiveForcing, nil
	}
	return 0, &MalformedDataBlockError{
		Reason: fmt.Sprintf("rcpdat: first column %q is not a recognized kind sentinel; expected one of: %s",
			first, strings.Join(rcpKindSentinels, ", "))}
}

func (r *rcpdatReader) variableFor(kind rcpKind, tok string, f *File) (string, error) {
	switch kind {
	case rcpEmissions, rcpConcentrations:
		suffix := "_EMIS"
		if kind == rcpConcentrations {
			suffix = "_CONC"
		}
		sp := r.defs.SpeciesToMAGICC7(tok)
		f.Advisories = append(f.Advisories, sp.Advisories...)
		c := r.defs.VariableToCanonical(sp.Value + suffix)
		f.Advisories = append(f.Advisories, c.Advisories...)
		return c.Value, nil
	default:
		c := r.defs.VariableToCanonical(tok)
		f.Advisories = append(f.Advisories, c.Advisories...)
		return c.Value, nil
	}
}

func newRCPDATWriter(defs *definitions.Set, conv *magtime.Converter) Writer {
	return &rcpdatWriter{defs: defs}
}

type rcpdatWriter struct {
	defs *definitions.Set
}

// metadata keys written first, in the order the reference files use.
var rcpMetadataOrder = []string{
	"content", "run", "contact", "date", "magicc-version",
	"file produced by", "documentation", "cmip5 recommendation", "further info",
}

func (w *rcpdatWriter) Write(out io.Writer, f *File) ([]string, error) {
	t := f.Table.DeepCopy()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := t.dropMissingRows(); err != nil {
		return nil, err
	}
	if !t.isAnnual() {
		return nil, &MalformedDataBlockError{Reason: "rcpdat: only annual data can be written"}
	}
	if len(t.Series) == 0 {
		return nil, &MalformedDataBlockError{Reason: "rcpdat: table has no series"}
	}
	for _, s := range t.Series {
		if s.Meta.Region != "World" {
			return nil, &MalformedDataBlockError{
				Reason: fmt.Sprintf("rcpdat: only World data can be written, got region %q", s.Meta.Region)}
		}
	}

	var advisories []string
	type col struct {
		token string // file spelling in the YEARS row
		unit  string
		desc  string
		vals  []float64
	}
	kind := rcpKind(-1)
	cols := make([]col, len(t.Series))
	for i, s := range t.Series {
		m7 := w.defs.VariableFromCanonical(s.Meta.Variable)
		advisories = append(advisories, m7.Advisories...)
		var token string
		var k rcpKind
		switch {
		case strings.HasSuffix(m7.Value, "_EMIS"):
			k = rcpEmissions
			token = w.defs.SpeciesFromMAGICC7(strings.TrimSuffix(m7.Value, "_EMIS")).Value
		case strings.HasSuffix(m7.Value, "_CONC"):
			k = rcpConcentrations
			token = w.defs.SpeciesFromMAGICC7(strings.TrimSuffix(m7.Value, "_CONC")).Value
		case strings.HasSuffix(m7.Value, "_ERF"):
			k = rcpEffectiveForcing
			token = m7.Value
		case strings.HasSuffix(m7.Value, "_RF"):
			k = rcpForcing
			token = m7.Value
		default:
			return nil, &MalformedDataBlockError{
				Reason: fmt.Sprintf("rcpdat: cannot classify variable %q", s.Meta.Variable)}
		}
		if i == 0 {
			kind = k
		} else if k != kind {
			return nil, &MalformedDataBlockError{
				Reason: "rcpdat: all columns must have the same kind of data"}
		}
		unit := s.Meta.Unit
		switch {
		case kind == rcpEmissions:
			unit = strings.TrimSuffix(definitions.ToFortranSafe(unit), "_peryr")
		case unit == "W / m^2":
			unit = "W/m2"
		default:
			unit = definitions.ToFortranSafe(unit)
		}
		cols[i] = col{
			token: token,
			unit:  unit,
			desc:  s.Meta.Variable,
			vals:  s.Values,
		}
	}

	var header []string
	written := make(map[string]bool)
	addField := func(key string) {
		value, ok := f.Metadata.Fields[key]
		if !ok {
			return
		}
		written[key] = true
		parts := strings.Split(value, "\n")
		header = append(header, fmt.Sprintf("%s: %s", strings.ToUpper(key), parts[0]))
		for _, p := range parts[1:] {
			header = append(header, "        "+p)
		}
	}
	for _, key := range rcpMetadataOrder {
		addField(key)
	}
	for _, key := range sortedKeys(f.Metadata.Fields) {
		if !written[key] && key != "note" {
			addField(key)
		}
	}
	addField("note")
	header = append(header, columnDescriptionMarker+strings.Repeat("_", 40))
	for i, c := range cols {
		header = append(header, fmt.Sprintf(" %d. %s - %s", i+1, c.token, c.desc))
	}
	header = append(header, "")

	columnRow := fmt.Sprintf("%12s", "COLUMN:")
	unitsRow := fmt.Sprintf("%12s", "UNITS:")
	yearsRow := fmt.Sprintf("%12s", "YEARS")
	for i, c := range cols {
		columnRow += fmt.Sprintf("%13d", i+1)
		unitsRow += fmt.Sprintf("%13s", c.unit)
		yearsRow += fmt.Sprintf("%13s", c.token)
	}

	shape := &fileShape{
		DataColumns: len(cols),
		DataRows:    len(t.Times),
		FirstYear:   t.Times[0].Year(),
		LastYear:    t.Times[len(t.Times)-1].Year(),
		AnnualSteps: 1,
		DatType:     "RCPDAT",
		RegionMode:  "NONE",
	}
	nlLines := shape.namelistLines(false)
	// The units row position is referenced from the namelist, so the
	// namelist length must be fixed before computing it.
	unitsRowNumber := len(header) + len(nlLines) + 2
	shape.Units = fmt.Sprintf("SEE ROW %d", unitsRowNumber)
	shape.FirstDataRow = len(header) + len(nlLines) + 4
	nlLines = shape.namelistLines(false)

	var b strings.Builder
	for _, line := range header {
		b.WriteString(line + "\n")
	}
	for _, line := range nlLines {
		b.WriteString(line + "\n")
	}
	b.WriteString(columnRow + "\n" + unitsRow + "\n" + yearsRow + "\n")
	for i, tm := range t.Times {
		b.WriteString(fmt.Sprintf("%12d", tm.Year()))
		for _, c := range cols {
			if kind == rcpEmissions {
				b.WriteString(fmt.Sprintf("%13.3f", c.vals[i]))
			} else {
				b.WriteString(fmt.Sprintf("%13.5e", c.vals[i]))
			}
		}
		b.WriteString("\n")
	}
	if _, err := io.WriteString(out, b.String()); err != nil {
		return nil, fmt.Errorf("magfile.rcpdatWriter.Write: %v", err)
	}
	return advisories, nil
}
