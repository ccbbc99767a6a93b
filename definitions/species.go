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

// scenSpeciesFull is the full emissions species list carried by SCEN
// files, in their required column order, using MAGICC7 base names.
var scenSpeciesFull = []string{
	"CO2I", "CO2B", "CH4", "N2O", "SOX", "CO", "NMVOC", "NOX",
	"BC", "OC", "NH3",
	"CF4", "C2F6", "C6F14",
	"HFC23", "HFC32", "HFC4310", "HFC125", "HFC134A", "HFC143A",
	"HFC227EA", "HFC245FA", "SF6",
}

// aerosolSpecies are the species present only in the larger of the two
// SCEN species sets.
var aerosolSpecies = map[string]bool{"BC": true, "OC": true, "NH3": true}

// ScenSpecies returns the emissions species a SCEN file carries, in
// column order, as MAGICC7 base names. The larger set includes the
// aerosol species BC, OC and NH3; the smaller set omits them.
func ScenSpecies(withAerosols bool) []string {
	out := make([]string, 0, len(scenSpeciesFull))
	for _, sp := range scenSpeciesFull {
		if !withAerosols && aerosolSpecies[sp] {
			continue
		}
		out = append(out, sp)
	}
	return out
}

// prnSpecies lists the ozone-depleting species carried by .prn files, in
// their fixed column order.
var prnSpecies = []string{
	"CFC11", "CFC12", "CFC113", "CFC114", "CFC115",
	"CCL4", "CH3CCL3",
	"HCFC22", "HCFC141B", "HCFC142B",
	"HALON1211", "HALON1202", "HALON1301", "HALON2402",
	"CH3BR", "CH3CL",
}

// PRNSpecies returns the species carried by .prn files, in column order,
// as MAGICC7 base names.
func PRNSpecies() []string {
	return append([]string{}, prnSpecies...)
}
