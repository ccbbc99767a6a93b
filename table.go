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
	"math"
	"time"
)

// SeriesMeta is the dimension tuple identifying one timeseries. Region,
// Variable and Unit use the canonical interchange vocabulary; Todo is the
// model's per-series status tag ("SET", "N/A", ...).
type SeriesMeta struct {
	Model        string
	Scenario     string
	ClimateModel string
	Region       string
	Variable     string
	Unit         string
	Todo         string

	// RunID distinguishes ensemble members in run-ensemble outputs.
	// Single-run formats leave it zero.
	RunID int
}

// A Timeseries is one column of data: its dimension tuple plus values
// aligned with the owning Table's time axis. Missing values are NaN.
type Timeseries struct {
	Meta   SeriesMeta
	Values []float64
}

// A Table is an ordered set of timeseries sharing one time axis. Annual
// data uses January 1 timestamps; sub-annual data uses the timestamps
// produced by the magtime converter.
type Table struct {
	Times  []time.Time
	Series []Timeseries
}

// Metadata holds a file's free-text header plus its open key-value
// fields (contact, date, source, note, ...). Multi-line values join their
// lines with newlines.
type Metadata struct {
	Header string
	Fields map[string]string
}

// A File is the result of reading one file: its metadata, its data table
// and any advisories (for example deprecated-name remappings) generated
// while decoding it.
type File struct {
	Metadata   Metadata
	Table      Table
	Advisories []string

	// Runs holds the scalar run parameters of run-ensemble outputs,
	// keyed by RunID. Parameters sharing a name prefix and a trailing
	// integer index arrive regrouped as ordered tuples under the
	// common prefix. Nil for every other format.
	Runs map[int]RunParameters
}

// RunParameters maps a parameter name to its value tuple. Ungrouped
// parameters hold a single value.
type RunParameters map[string][]float64

// Validate checks the Table invariants: every series has one value per
// time step, times strictly increase, and dimension tuples are unique.
func (t *Table) Validate() error {
	for i := 1; i < len(t.Times); i++ {
		if !t.Times[i].After(t.Times[i-1]) {
			return fmt.Errorf("magfile.Table.Validate: times out of order at index %d (%v, %v)",
				i, t.Times[i-1], t.Times[i])
		}
	}
	seen := make(map[SeriesMeta]bool)
	for _, s := range t.Series {
		if len(s.Values) != len(t.Times) {
			return fmt.Errorf("magfile.Table.Validate: series %s %s has %d values for %d times",
				s.Meta.Region, s.Meta.Variable, len(s.Values), len(t.Times))
		}
		if seen[s.Meta] {
			return fmt.Errorf("magfile.Table.Validate: duplicate series %+v", s.Meta)
		}
		seen[s.Meta] = true
	}
	return nil
}

// DeepCopy returns a copy sharing no memory with the receiver. Writers
// copy their input before reordering or renaming anything.
func (t *Table) DeepCopy() *Table {
	out := &Table{
		Times:  append([]time.Time{}, t.Times...),
		Series: make([]Timeseries, len(t.Series)),
	}
	for i, s := range t.Series {
		out.Series[i] = Timeseries{
			Meta:   s.Meta,
			Values: append([]float64{}, s.Values...),
		}
	}
	return out
}

// Regions returns the distinct regions in first-appearance order.
func (t *Table) Regions() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range t.Series {
		if !seen[s.Meta.Region] {
			seen[s.Meta.Region] = true
			out = append(out, s.Meta.Region)
		}
	}
	return out
}

// Variables returns the distinct variables in first-appearance order.
func (t *Table) Variables() []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range t.Series {
		if !seen[s.Meta.Variable] {
			seen[s.Meta.Variable] = true
			out = append(out, s.Meta.Variable)
		}
	}
	return out
}

// checkMissing verifies that at every time step values are either present
// for all series or missing for all series, and reports the indices of
// the fully missing rows.
func (t *Table) checkMissing() (allMissing map[int]bool, err error) {
	allMissing = make(map[int]bool)
	for i, tm := range t.Times {
		missing := 0
		for _, s := range t.Series {
			if math.IsNaN(s.Values[i]) {
				missing++
			}
		}
		switch missing {
		case 0:
		case len(t.Series):
			allMissing[i] = true
		default:
			return nil, &InconsistentMissingError{Time: tm.Format("2006-01-02 15:04:05")}
		}
	}
	return allMissing, nil
}

// dropMissingRows removes time steps at which every series is missing.
// A partial missing row is an error.
func (t *Table) dropMissingRows() error {
	drop, err := t.checkMissing()
	if err != nil {
		return err
	}
	if len(drop) == 0 {
		return nil
	}
	var times []time.Time
	keep := make([]int, 0, len(t.Times))
	for i, tm := range t.Times {
		if !drop[i] {
			times = append(times, tm)
			keep = append(keep, i)
		}
	}
	t.Times = times
	for si := range t.Series {
		vals := make([]float64, len(keep))
		for vi, i := range keep {
			vals[vi] = t.Series[si].Values[i]
		}
		t.Series[si].Values = vals
	}
	return nil
}

// annualYear reports the year if tm is a plain start-of-year timestamp.
func annualYear(tm time.Time) (int, bool) {
	if tm.Month() == time.January && tm.Day() == 1 &&
		tm.Hour() == 0 && tm.Minute() == 0 && tm.Second() == 0 {
		return tm.Year(), true
	}
	return 0, false
}

// isAnnual reports whether every time step is a start-of-year timestamp.
func (t *Table) isAnnual() bool {
	for _, tm := range t.Times {
		if _, ok := annualYear(tm); !ok {
			return false
		}
	}
	return len(t.Times) > 0
}
