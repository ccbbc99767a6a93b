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

// Package magfile reads and writes the family of time-series file formats
// used to exchange scenario and output data with the MAGICC climate model:
// wide text input files (concentrations, emissions, radiative forcing,
// optical thickness, surface temperature), SCEN and SCEN7 scenario files,
// legacy fixed-width .prn files, RCP-style .DAT files, the .MAG free
// format, text and binary model outputs, and compact run-ensemble outputs.
//
// A Registry dispatches a filename to the matching codec. Readers produce
// a File holding free-text and keyed metadata plus a canonical Table of
// timeseries; Writers format a File back into a dialect. Vocabulary
// translation between the MAGICC6, MAGICC7 and canonical naming
// conventions lives in the definitions subpackage, and decimal-year time
// handling in the magtime subpackage.
package magfile
