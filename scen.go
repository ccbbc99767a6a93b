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
	"strconv"
	"strings"
	"time"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// SCEN files are not one wide table: after a five-line preamble (row
// count, special scen code, name, description, notes) the data repeats in
// per-region blocks, each with its own species and units rows. The
// special scen code jointly declares the region set (tens digit) and the
// species set (ones digit); readers check it against the actual content
// and writers recompute it.

// scenRegionSets maps the tens digit of the special scen code to its
// region set, in canonical write order (MAGICC-native names).
var scenRegionSets = map[int][]string{
	1: {"WORLD"},
	2: {"WORLD", "OECD90", "REF", "ASIA", "ALM"},
	3: {"WORLD", "R5OECD", "R5REF", "R5ASIA", "R5MAF", "R5LAM"},
	4: {"WORLD", "R5OECD", "R5REF", "R5ASIA", "R5MAF", "R5LAM", "BUNKERS"},
}

// SpecialScenCode computes the two-digit code for a region set (MAGICC
// native names) and species set (MAGICC7 base names). The code is
// tens*10+ones where tens identifies the region set and ones the species
// set.
func SpecialScenCode(regions, species []string) (int, error) {
	ones := -1
	for digit, withAerosols := range map[int]bool{0: false, 1: true} {
		if sameStringSet(species, definitions.ScenSpecies(withAerosols)) {
			ones = digit
			break
		}
	}
	if ones < 0 {
		return 0, &MalformedDataBlockError{
			Reason: fmt.Sprintf("scen: species %v match neither fixed species set", species)}
	}
	for _, tens := range []int{1, 2, 3, 4} {
		if sameStringSet(regions, scenRegionSets[tens]) {
			return tens*10 + ones, nil
		}
	}
	return 0, &definitions.UnrecognizedRegionSetError{Regions: regions}
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	norm := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToUpper(strings.NewReplacer("-", "", "_", "").Replace(s))
		}
		sort.Strings(out)
		return out
	}
	na, nb := norm(a), norm(b)
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

func newSCENReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &scenReader{defs: defs}
}

type scenReader struct {
	defs *definitions.Set
}

var scenYearLabels = map[string]bool{"YEARS": true, "YEAR": true, "YRS": true, "UNITS": true}

func (r *scenReader) Read(data []byte, path string) (*File, error) {
	lines := splitLines(data)
	pos := 0
	nextLine := func() (string, bool) {
		for pos < len(lines) {
			line := strings.TrimSpace(lines[pos])
			pos++
			if line != "" {
				return line, true
			}
		}
		return "", false
	}
	intLine := func(what string) (int, error) {
		line, ok := nextLine()
		if !ok {
			return 0, &MalformedDataBlockError{Line: pos,
				Reason: "scen: unexpected end of file reading " + what}
		}
		n, err := strconv.Atoi(strings.Fields(line)[0])
		if err != nil {
			return 0, &MalformedDataBlockError{Line: pos,
				Reason: fmt.Sprintf("scen: expected %s, got %q", what, line)}
		}
		return n, nil
	}

	ndata, err := intLine("the data-row count")
	if err != nil {
		return nil, err
	}
	code, err := intLine("the special scen code")
	if err != nil {
		return nil, err
	}
	regionSet, ok := scenRegionSets[code/10]
	if !ok {
		return nil, &MalformedDataBlockError{Line: pos,
			Reason: fmt.Sprintf("scen: special scen code %d has no region set (tens digit must be 1-4)", code)}
	}

	f := &File{Metadata: Metadata{Fields: make(map[string]string)}}
	for _, key := range []string{"name", "description", "notes"} {
		if line, ok := nextLine(); ok {
			f.Metadata.Fields[key] = line
		}
	}

	var times []time.Time
	for range regionSet {
		regionLine, ok := nextLine()
		if !ok {
			return nil, &MalformedDataBlockError{Line: pos,
				Reason: fmt.Sprintf("scen: expected %d region blocks, file ended early", len(regionSet))}
		}
		region := strings.Fields(regionLine)[0]

		speciesLine, ok := nextLine()
		if !ok {
			return nil, &MalformedDataBlockError{Line: pos,
				Reason: "scen: unexpected end of file reading species row"}
		}
		speciesFields := strings.Fields(speciesLine)
		if !scenYearLabels[strings.ToUpper(speciesFields[0])] {
			return nil, &MalformedDataBlockError{Line: pos,
				Reason: fmt.Sprintf("scen: species row must start with Years/Yrs, got %q", speciesFields[0])}
		}
		rawSpecies := speciesFields[1:]

		unitsLine, ok := nextLine()
		if !ok {
			return nil, &MalformedDataBlockError{Line: pos,
				Reason: "scen: unexpected end of file reading units row"}
		}
		unitsFields := strings.Fields(unitsLine)
		if !scenYearLabels[strings.ToUpper(unitsFields[0])] {
			return nil, &MalformedDataBlockError{Line: pos,
				Reason: fmt.Sprintf("scen: units row must start with Yrs/Years, got %q", unitsFields[0])}
		}
		units := unitsFields[1:]
		if len(units) != len(rawSpecies) {
			return nil, &MalformedDataBlockError{Line: pos,
				Reason: fmt.Sprintf("scen: %d units for %d species", len(units), len(rawSpecies))}
		}

		blockTimes, values, err := r.readBlock(nextLine, ndata, len(rawSpecies), &pos)
		if err != nil {
			return nil, err
		}
		if times == nil {
			times = blockTimes
			f.Table.Times = times
		} else if !sameTimes(times, blockTimes) {
			return nil, &MalformedDataBlockError{Line: pos,
				Reason: "scen: region blocks disagree about the years"}
		}

		regionC := r.defs.RegionToCanonical(region)
		f.Advisories = append(f.Advisories, regionC.Advisories...)
		for c, sp := range rawSpecies {
			m7 := r.defs.SpeciesToMAGICC7(sp)
			f.Advisories = append(f.Advisories, m7.Advisories...)
			variable := r.defs.VariableToCanonical(m7.Value + "_EMIS")
			f.Advisories = append(f.Advisories, variable.Advisories...)
			f.Table.Series = append(f.Table.Series, Timeseries{
				Meta: SeriesMeta{
					Model:        "unspecified",
					Scenario:     "unspecified",
					ClimateModel: "unspecified",
					Region:       regionC.Value,
					Variable:     variable.Value,
					Unit:         definitions.ExpandEmissionsUnit(definitions.FromFortranSafe(units[c])),
					Todo:         "SET",
				},
				Values: values[c],
			})
		}
	}

	// Whatever trails the last block is unconstrained free text.
	var notes []string
	for line, ok := nextLine(); ok; line, ok = nextLine() {
		notes = append(notes, line)
	}
	if len(notes) > 0 {
		f.Metadata.Header = strings.Join(notes, "\n")
	}

	if err := r.checkCode(code, f); err != nil {
		return nil, err
	}
	if err := f.Table.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (r *scenReader) readBlock(nextLine func() (string, bool), ndata, ncols int, pos *int) ([]time.Time, [][]float64, error) {
	times := make([]time.Time, 0, ndata)
	values := make([][]float64, ncols)
	for i := 0; i < ndata; i++ {
		line, ok := nextLine()
		if !ok {
			return nil, nil, &MalformedDataBlockError{Line: *pos,
				Reason: fmt.Sprintf("scen: expected %d data rows, got %d", ndata, i)}
		}
		fields := strings.Fields(line)
		if len(fields) != ncols+1 {
			return nil, nil, &MalformedDataBlockError{Line: *pos,
				Reason: fmt.Sprintf("scen: expected %d columns, got %d", ncols+1, len(fields))}
		}
		year, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, nil, &MalformedDataBlockError{Line: *pos,
				Reason: fmt.Sprintf("scen: cannot parse year %q", fields[0])}
		}
		times = append(times, time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC))
		for c, tok := range fields[1:] {
			v, err := parseFloat(tok)
			if err != nil {
				return nil, nil, &MalformedDataBlockError{Line: *pos,
					Reason: fmt.Sprintf("scen: cannot parse value %q", tok)}
			}
			values[c] = append(values[c], v)
		}
	}
	return times, values, nil
}

// checkCode verifies the declared code against the regions and species
// actually found in the file.
func (r *scenReader) checkCode(declared int, f *File) error {
	regions := make([]string, 0)
	speciesSeen := make(map[string]bool)
	var species []string
	for _, reg := range f.Table.Regions() {
		native := r.defs.RegionFromCanonical(reg).Value
		// SCEN predates the updated five-region naming.
		if strings.HasPrefix(native, "R5.2") {
			native = "R5" + strings.TrimPrefix(native, "R5.2")
		}
		regions = append(regions, native)
	}
	for _, v := range f.Table.Variables() {
		m7 := r.defs.VariableFromCanonical(v).Value
		sp := strings.TrimSuffix(m7, "_EMIS")
		if !speciesSeen[sp] {
			speciesSeen[sp] = true
			species = append(species, sp)
		}
	}
	computed, err := SpecialScenCode(regions, species)
	if err != nil {
		return err
	}
	if computed != declared {
		return &MalformedDataBlockError{
			Reason: fmt.Sprintf("scen: declared special scen code %d but the content implies %d",
				declared, computed)}
	}
	return nil
}

func sameTimes(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func newSCENWriter(defs *definitions.Set, conv *magtime.Converter) Writer {
	return &scenWriter{defs: defs}
}

type scenWriter struct {
	defs *definitions.Set
}

func (w *scenWriter) Write(out io.Writer, f *File) ([]string, error) {
	t := f.Table.DeepCopy()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := t.dropMissingRows(); err != nil {
		return nil, err
	}
	if !t.isAnnual() {
		return nil, &MalformedDataBlockError{Reason: "scen: only annual data can be written"}
	}

	var advisories []string
	type cell struct {
		unit   string
		values []float64
	}
	grid := make(map[string]map[string]cell) // region -> species -> cell
	var regions, species []string
	for _, s := range t.Series {
		region := w.defs.RegionFromCanonical(s.Meta.Region).Value
		// SCEN predates the updated five-region naming; downgrade it.
		if strings.HasPrefix(region, "R5.2") {
			old := region
			region = "R5" + strings.TrimPrefix(region, "R5.2")
			advisories = append(advisories,
				fmt.Sprintf("scen: region %q written with its older spelling %q", old, region))
		}
		m7 := w.defs.VariableFromCanonical(s.Meta.Variable)
		advisories = append(advisories, m7.Advisories...)
		sp := strings.TrimSuffix(m7.Value, "_EMIS")
		if sp == m7.Value {
			return nil, &MalformedDataBlockError{
				Reason: fmt.Sprintf("scen: %q is not an emissions variable", s.Meta.Variable)}
		}
		if grid[region] == nil {
			grid[region] = make(map[string]cell)
			regions = append(regions, region)
		}
		if _, ok := grid[region][sp]; !ok && !containsString(species, sp) {
			species = append(species, sp)
		}
		grid[region][sp] = cell{
			unit:   strings.TrimSuffix(definitions.ToFortranSafe(s.Meta.Unit), "_peryr"),
			values: s.Values,
		}
	}

	code, err := SpecialScenCode(regions, species)
	if err != nil {
		return nil, err
	}
	regionOrder := scenRegionSets[code/10]
	speciesOrder := definitions.ScenSpecies(code%10 == 1)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%5d\n%5d\n", len(t.Times), code))
	for _, key := range []string{"name", "description", "notes"} {
		value := f.Metadata.Fields[key]
		if value == "" {
			value = "NO " + strings.ToUpper(key) + " SPECIFIED"
		}
		b.WriteString(value + "\n")
	}
	b.WriteString("\n")

	for _, region := range regionOrder {
		cells := grid[region]
		if cells == nil {
			return nil, &MalformedDataBlockError{
				Reason: fmt.Sprintf("scen: no data for region %s", region)}
		}
		b.WriteString("\n" + region + "\n")
		speciesRow := fmt.Sprintf("%11s", "Years")
		unitsRow := fmt.Sprintf("%11s", "Yrs")
		for _, sp := range speciesOrder {
			c, ok := cells[sp]
			if !ok {
				return nil, &MalformedDataBlockError{
					Reason: fmt.Sprintf("scen: region %s is missing species %s", region, sp)}
			}
			speciesRow += fmt.Sprintf("%11s", w.defs.SpeciesFromMAGICC7(sp).Value)
			unitsRow += fmt.Sprintf("%11s", c.unit)
		}
		b.WriteString(speciesRow + "\n" + unitsRow + "\n")
		for i, tm := range t.Times {
			b.WriteString(fmt.Sprintf("%11d", tm.Year()))
			for _, sp := range speciesOrder {
				b.WriteString(fmt.Sprintf("%11.4f", cells[sp].values[i]))
			}
			b.WriteString("\n")
		}
	}
	if f.Metadata.Header != "" {
		b.WriteString("\n" + f.Metadata.Header + "\n")
	}
	if _, err := io.WriteString(out, b.String()); err != nil {
		return nil, fmt.Errorf("magfile.scenWriter.Write: %v", err)
	}
	return advisories, nil
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
