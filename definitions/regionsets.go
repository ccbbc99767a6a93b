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
	"sort"
	"strings"
)

// A RegionSet is one of the fixed groups of regions that MAGICC files may
// carry, together with the THISFILE_DATTYPE and THISFILE_REGIONMODE flags
// that declare it in a file's namelist. Regions holds the MAGICC-native
// region names in their required column order.
type RegionSet struct {
	DatType    string
	RegionMode string
	SCEN7      bool
	Regions    []string
}

// UnrecognizedRegionSetError reports a group of regions that does not
// match any region set MAGICC accepts.
type UnrecognizedRegionSetError struct {
	Regions []string
	SCEN7   bool
}

func (e *UnrecognizedRegionSetError) Error() string {
	return fmt.Sprintf("definitions: no region set matches regions %v (scen7=%v)",
		e.Regions, e.SCEN7)
}

const (
	datTypeRegion = "REGIONDATA"
	datTypeSCEN7  = "SCEN7"
)

func buildRegionSets() []RegionSet {
	fourBox := []string{"WORLD", "NHOCEAN", "NHLAND", "SHOCEAN", "SHLAND"}
	sres := []string{"WORLD", "OECD90", "REF", "ASIA", "ALM"}
	rcp := []string{"WORLD", "R5OECD", "R5REF", "R5ASIA", "R5MAF", "R5LAM"}
	rcp7 := []string{"WORLD", "R5.2OECD", "R5.2REF", "R5.2ASIA", "R5.2MAF", "R5.2LAM"}

	var sets []RegionSet
	for _, scen7 := range []bool{false, true} {
		dt := datTypeRegion
		r5 := rcp
		if scen7 {
			dt = datTypeSCEN7
			r5 = rcp7
		}
		sets = append(sets,
			RegionSet{DatType: dt, RegionMode: "NONE", SCEN7: scen7,
				Regions: []string{"WORLD"}},
			RegionSet{DatType: dt, RegionMode: "FOURBOX", SCEN7: scen7,
				Regions: fourBox},
			RegionSet{DatType: dt, RegionMode: "SRES", SCEN7: scen7,
				Regions: sres},
			RegionSet{DatType: dt, RegionMode: "RCP", SCEN7: scen7,
				Regions: r5},
			RegionSet{DatType: dt, RegionMode: "RCPPLUSBUNKERS", SCEN7: scen7,
				Regions: append(append([]string{}, r5...), "BUNKERS")},
		)
	}
	return sets
}

// RegionSetFor finds the region set containing exactly the given
// MAGICC-native region names, ignoring order, case and hyphenation. The
// returned set's Regions field gives the column order files must use.
func (s *Set) RegionSetFor(regions []string, scen7 bool) (*RegionSet, error) {
	want := regionKey(regions)
	for i := range s.regionSets {
		rs := &s.regionSets[i]
		if rs.SCEN7 != scen7 {
			continue
		}
		if regionKey(rs.Regions) == want {
			return rs, nil
		}
	}
	return nil, &UnrecognizedRegionSetError{Regions: regions, SCEN7: scen7}
}

func regionKey(regions []string) string {
	keys := make([]string, len(regions))
	for i, r := range regions {
		keys[i] = normalize(r)
	}
	sort.Strings(keys)
	return strings.Join(keys, "|")
}
