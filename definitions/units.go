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

package definitions

import (
	"fmt"
	"strings"

	"github.com/ctessum/unit"
)

// massPrefixes maps the mass prefixes appearing in emissions units to
// their size in kilograms. Iteration order matters when parsing, so the
// parseable spellings are kept separately, longest first.
var massPrefixes = map[string]float64{
	"Pg": 1e12,
	"Gt": 1e12,
	"Mt": 1e9,
	"Gg": 1e6,
	"kt": 1e6,
	"Mg": 1e3,
	"t":  1e3,
	"kg": 1,
	"g":  1e-3,
}

var massPrefixOrder = []string{"Pg", "Gt", "Mt", "Gg", "kt", "Mg", "kg", "t", "g"}

// fortranSafeOverrides lists unit spellings whose Fortran-safe form does
// not follow the general rule, keyed by the safe spelling.
var fortranSafeOverrides = map[string]string{
	"Wperm2":  "W / m^2",
	"W/m2":    "W / m^2",
	"W/m^2":   "W / m^2",
	"W_perm2": "W / m^2",
}

// ToFortranSafe rewrites a unit into the compact spelling MAGICC writes
// into data files, which contains no spaces: "Gt C / yr" becomes
// "GtC_peryr" and "W / m^2" becomes "W_perm^2". Units already free of
// spaces and slashes pass through unchanged.
func ToFortranSafe(u string) string {
	u = strings.ReplaceAll(u, " / ", "_per")
	return strings.ReplaceAll(u, " ", "")
}

// FromFortranSafe is the inverse of ToFortranSafe. For emission rates it
// also restores the space between the mass prefix and the species token,
// so "GtC_peryr" becomes "Gt C / yr".
func FromFortranSafe(u string) string {
	if full, ok := fortranSafeOverrides[u]; ok {
		return full
	}
	u = strings.ReplaceAll(u, "_per", " / ")
	if species, ok := strings.CutSuffix(u, " / yr"); ok {
		for _, p := range massPrefixOrder {
			if rest, found := strings.CutPrefix(species, p); found && rest != "" {
				return p + " " + rest + " / yr"
			}
		}
	}
	return u
}

// DecomposeEmissionsUnit splits an emission-rate unit such as "Gt C / yr"
// into its mass prefix and species token. It reports false for units that
// are not emission rates.
func DecomposeEmissionsUnit(u string) (prefix, species string, ok bool) {
	body, found := strings.CutSuffix(u, " / yr")
	if !found {
		return "", "", false
	}
	body = strings.TrimSpace(body)
	for _, p := range massPrefixOrder {
		if rest, found := strings.CutPrefix(body, p); found {
			rest = strings.TrimSpace(rest)
			if rest != "" {
				return p, rest, true
			}
		}
	}
	return "", "", false
}

// ExpandEmissionsUnit rewrites compact emission-rate spellings such as
// "GtC" or "GtC/yr" into the canonical "Gt C / yr" form. Units that are
// not emission rates come back unchanged.
func ExpandEmissionsUnit(u string) string {
	if _, _, ok := DecomposeEmissionsUnit(u); ok {
		return u
	}
	body := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(u), "/yr"))
	for _, p := range massPrefixOrder {
		if rest, found := strings.CutPrefix(body, p); found && strings.TrimSpace(rest) != "" {
			return p + " " + strings.TrimSpace(rest) + " / yr"
		}
	}
	return u
}

// MassScale returns the mass of one unit of the given prefix.
func MassScale(prefix string) (*unit.Unit, error) {
	scale, ok := massPrefixes[prefix]
	if !ok {
		return nil, fmt.Errorf("definitions.MassScale: unknown mass prefix %q", prefix)
	}
	return unit.New(scale, unit.Kilogram), nil
}

// secondsPerYear is the length of a Julian year, which is what MAGICC
// assumes when integrating annual emission rates.
const secondsPerYear = 365.25 * 24 * 3600

// EmissionRateScale returns the rate corresponding to one prefix-mass per
// year, in SI units.
func EmissionRateScale(prefix string) (*unit.Unit, error) {
	scale, ok := massPrefixes[prefix]
	if !ok {
		return nil, fmt.Errorf("definitions.EmissionRateScale: unknown mass prefix %q", prefix)
	}
	return unit.New(scale/secondsPerYear, unit.Dimensions{
		unit.MassDim: 1,
		unit.TimeDim: -1,
	}), nil
}

// ConvertMass rescales a value between two mass prefixes, for example
// from "Mt" to "Gt".
func ConvertMass(value float64, from, to string) (float64, error) {
	fs, ok := massPrefixes[from]
	if !ok {
		return 0, fmt.Errorf("definitions.ConvertMass: unknown mass prefix %q", from)
	}
	ts, ok := massPrefixes[to]
	if !ok {
		return 0, fmt.Errorf("definitions.ConvertMass: unknown mass prefix %q", to)
	}
	return value * fs / ts, nil
}

// SpeciesFromVariable extracts the species segment from a canonical
// hierarchical variable name. The MAGICC CO2 split keeps the species one
// level above the final segment.
func SpeciesFromVariable(variable string) string {
	parts := strings.Split(variable, "|")
	if len(parts) == 0 {
		return variable
	}
	last := parts[len(parts)-1]
	if (last == "MAGICC AFOLU" || last == "MAGICC Fossil and Industrial") && len(parts) > 1 {
		return parts[len(parts)-2]
	}
	return last
}
