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

// Package definitions holds the vocabulary tables that relate the MAGICC6
// and MAGICC7 native naming conventions for regions, variables and units
// to the canonical interchange vocabulary, plus the region-set and species
// tables that the file codecs rely on.
package definitions

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed data.toml
var dataTOML string

// Converted is the result of a vocabulary translation: the translated name
// plus any advisories generated along the way, for example when a deprecated
// alias was recognized. Unknown names pass through unchanged and without
// advisories.
type Converted struct {
	Value      string
	Advisories []string
}

type entry struct {
	value    string
	advisory string
}

// Set is an immutable collection of vocabulary tables. Create one with
// NewSet and share it by reference among the codecs that need it.
type Set struct {
	regionToCanonical   map[string]entry
	regionFromCanonical map[string]entry
	speciesM6ToM7       map[string]entry
	speciesM7ToM6       map[string]string
	varToCanonical      map[string]string
	varFromCanonical    map[string]string
	regionSets          []RegionSet
}

type tomlData struct {
	Region []struct {
		MAGICC            string   `toml:"magicc"`
		Canonical         string   `toml:"canonical"`
		Aliases           []string `toml:"aliases"`
		DeprecatedAliases []string `toml:"deprecated_aliases"`
	} `toml:"region"`
	Species []struct {
		MAGICC7           string   `toml:"magicc7"`
		MAGICC6           string   `toml:"magicc6"`
		DeprecatedAliases []string `toml:"deprecated_aliases"`
	} `toml:"species"`
	Variable []struct {
		MAGICC7   string `toml:"magicc7"`
		Canonical string `toml:"canonical"`
	} `toml:"variable"`
}

// NewSet parses the embedded vocabulary tables. The tables are fixed at
// build time, so any error here indicates a broken build.
func NewSet() (*Set, error) {
	var d tomlData
	if _, err := toml.Decode(dataTOML, &d); err != nil {
		return nil, fmt.Errorf("definitions.NewSet: %v", err)
	}
	s := &Set{
		regionToCanonical:   make(map[string]entry),
		regionFromCanonical: make(map[string]entry),
		speciesM6ToM7:       make(map[string]entry),
		speciesM7ToM6:       make(map[string]string),
		varToCanonical:      make(map[string]string),
		varFromCanonical:    make(map[string]string),
	}
	for _, r := range d.Region {
		s.regionToCanonical[normalize(r.MAGICC)] = entry{value: r.Canonical}
		s.regionFromCanonical[normalizeCanonical(r.Canonical)] = entry{value: r.MAGICC}
		for _, a := range r.Aliases {
			s.regionToCanonical[normalize(a)] = entry{value: r.Canonical}
		}
		for _, a := range r.DeprecatedAliases {
			s.regionToCanonical[normalize(a)] = entry{
				value:    r.Canonical,
				advisory: deprecationAdvisory(a, r.MAGICC),
			}
		}
	}
	for _, sp := range d.Species {
		s.speciesM6ToM7[normalize(sp.MAGICC6)] = entry{value: sp.MAGICC7}
		s.speciesM7ToM6[normalize(sp.MAGICC7)] = sp.MAGICC6
		for _, a := range sp.DeprecatedAliases {
			s.speciesM6ToM7[normalize(a)] = entry{
				value:    sp.MAGICC7,
				advisory: deprecationAdvisory(a, sp.MAGICC6),
			}
		}
	}
	for _, v := range d.Variable {
		s.varToCanonical[normalize(v.MAGICC7)] = v.Canonical
		s.varFromCanonical[normalizeCanonical(v.Canonical)] = v.MAGICC7
	}
	s.regionSets = buildRegionSets()
	return s, nil
}

func deprecationAdvisory(old, current string) string {
	return fmt.Sprintf("%q is a deprecated name for %q", old, current)
}

// normalize produces the lookup key for MAGICC-native names. Lookups
// ignore case and hyphen/underscore differences so that historical
// spellings such as "HFC43-10" and "HFC4310" resolve identically.
func normalize(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, "_", "")
	return name
}

// normalizeCanonical produces the lookup key for canonical names, which
// keep their separators but compare case-insensitively.
func normalizeCanonical(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// RegionToCanonical translates a MAGICC-native region name to its
// canonical form.
func (s *Set) RegionToCanonical(name string) Converted {
	if e, ok := s.regionToCanonical[normalize(name)]; ok {
		c := Converted{Value: e.value}
		if e.advisory != "" {
			c.Advisories = []string{e.advisory}
		}
		return c
	}
	return Converted{Value: name}
}

// RegionFromCanonical translates a canonical region name to its
// MAGICC-native form.
func (s *Set) RegionFromCanonical(name string) Converted {
	if e, ok := s.regionFromCanonical[normalizeCanonical(name)]; ok {
		return Converted{Value: e.value}
	}
	return Converted{Value: name}
}

// SpeciesToMAGICC7 translates a MAGICC6 base species name to its MAGICC7
// spelling. Deprecated aliases resolve with an advisory.
func (s *Set) SpeciesToMAGICC7(name string) Converted {
	if e, ok := s.speciesM6ToM7[normalize(name)]; ok {
		c := Converted{Value: e.value}
		if e.advisory != "" {
			c.Advisories = []string{e.advisory}
		}
		return c
	}
	// A name already in MAGICC7 spelling stays as it is, modulo the
	// canonical capitalization.
	if m6, ok := s.speciesM7ToM6[normalize(name)]; ok {
		e := s.speciesM6ToM7[normalize(m6)]
		return Converted{Value: e.value}
	}
	return Converted{Value: name}
}

// SpeciesFromMAGICC7 translates a MAGICC7 base species name to its MAGICC6
// spelling.
func (s *Set) SpeciesFromMAGICC7(name string) Converted {
	if m6, ok := s.speciesM7ToM6[normalize(name)]; ok {
		return Converted{Value: m6}
	}
	return Converted{Value: name}
}

const (
	rfSuffix  = "_RF"
	erfSuffix = "_ERF"

	erfPrefix = "Effective "
)

// VariableToCanonical translates a full MAGICC7 variable name, including
// its kind suffix, to the canonical hierarchical name. Effective radiative
// forcing names are derived from the corresponding radiative forcing
// entries.
func (s *Set) VariableToCanonical(name string) Converted {
	key := normalize(name)
	if v, ok := s.varToCanonical[key]; ok {
		return Converted{Value: v}
	}
	if strings.HasSuffix(key, normalize(erfSuffix)) {
		base := strings.TrimSuffix(key, normalize(erfSuffix)) + normalize(rfSuffix)
		if v, ok := s.varToCanonical[base]; ok {
			return Converted{Value: erfPrefix + v}
		}
	}
	return Converted{Value: name}
}

// VariableFromCanonical translates a canonical variable name to its full
// MAGICC7 name.
func (s *Set) VariableFromCanonical(name string) Converted {
	key := normalizeCanonical(name)
	if v, ok := s.varFromCanonical[key]; ok {
		return Converted{Value: v}
	}
	if strings.HasPrefix(key, normalizeCanonical(erfPrefix)) {
		base := strings.TrimPrefix(key, normalizeCanonical(erfPrefix))
		if v, ok := s.varFromCanonical[base]; ok && strings.HasSuffix(v, rfSuffix) {
			return Converted{Value: strings.TrimSuffix(v, rfSuffix) + erfSuffix}
		}
	}
	return Converted{Value: name}
}
