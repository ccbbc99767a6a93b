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
	"testing"
)

// Output files are tolerated without a namelist; the reader locates the
// column-header row by its label.
var surfaceTempOut = ` Surface temperature

  COLCODE              GLOBAL             NHOCEAN
     2000         5.00000e-01         1.00000e+00
     2001         7.50000e-01         1.25000e+00
`

func TestOutRead(t *testing.T) {
	reg := testRegistry(t)
	f, err := reg.Read([]byte(surfaceTempOut), "DAT_SURFACE_TEMP.OUT")
	if err != nil {
		t.Fatal(err)
	}
	s := findSeries(t, &f.Table, "World", "Surface Temperature")
	if s.Meta.Unit != "unknown" || s.Meta.Todo != "N/A" {
		t.Errorf("unit, todo = %q, %q, want unknown, N/A", s.Meta.Unit, s.Meta.Todo)
	}
	if !valuesEqual(s.Values, []float64{0.5, 0.75}, 0) {
		t.Errorf("values = %v", s.Values)
	}
	s = findSeries(t, &f.Table, "World|Northern Hemisphere|Ocean", "Surface Temperature")
	if !valuesEqual(s.Values, []float64{1.0, 1.25}, 0) {
		t.Errorf("values = %v", s.Values)
	}
}

var emisOut = ` Fossil CO2 emissions

&THISFILE_SPECIFICATIONS
 THISFILE_DATACOLUMNS = 1 ,
 THISFILE_DATAROWS = 2 ,
 THISFILE_FIRSTYEAR = 2000 ,
 THISFILE_LASTYEAR = 2001 ,
 THISFILE_ANNUALSTEPS = 1 ,
 THISFILE_FIRSTDATAROW = 15 ,
 THISFILE_UNITS = "GtC_peryr" ,
 THISFILE_DATTYPE = "REGIONDATA" ,
 THISFILE_REGIONMODE = "NONE" ,
/
  COLCODE              GLOBAL
     2000         6.73500e+00
     2001         6.89600e+00
`

func TestEmisOutRead(t *testing.T) {
	reg := testRegistry(t)
	f, err := reg.Read([]byte(emisOut), "DAT_CO2I_EMIS.OUT")
	if err != nil {
		t.Fatal(err)
	}
	s := findSeries(t, &f.Table, "World", "Emissions|CO2|MAGICC Fossil and Industrial")
	if s.Meta.Unit != "Gt C / yr" {
		t.Errorf("unit = %q, want Gt C / yr", s.Meta.Unit)
	}
	if !valuesEqual(s.Values, []float64{6.735, 6.896}, 0) {
		t.Errorf("values = %v", s.Values)
	}
}

var inverseEmisOut = ` Inverse emissions

    YEARS           CO2I_EMIS            CH4_EMIS
    UNITS                 GtC               MtCH4
     2000         6.73500e+00         3.00250e+02
     2001         6.89600e+00         3.05500e+02
`

func TestInverseEmisRead(t *testing.T) {
	reg := testRegistry(t)
	f, err := reg.Read([]byte(inverseEmisOut), "INVERSEEMIS.OUT")
	if err != nil {
		t.Fatal(err)
	}
	s := findSeries(t, &f.Table, "World", "Inverse Emissions|CO2|MAGICC Fossil and Industrial")
	if s.Meta.Unit != "Gt C / yr" {
		t.Errorf("unit = %q, want Gt C / yr", s.Meta.Unit)
	}
	if !valuesEqual(s.Values, []float64{6.735, 6.896}, 0) {
		t.Errorf("values = %v", s.Values)
	}
	s = findSeries(t, &f.Table, "World", "Inverse Emissions|CH4")
	if s.Meta.Unit != "Mt CH4 / yr" {
		t.Errorf("unit = %q, want Mt CH4 / yr", s.Meta.Unit)
	}
}

var oceanLayersOut = ` Ocean layer temperatures

  COLCODE             LAYER_1             LAYER_2
     2000         2.93000e+02         2.92000e+02
     2001         2.93500e+02         2.92500e+02
`

func TestOceanLayersRead(t *testing.T) {
	reg := testRegistry(t)
	f, err := reg.Read([]byte(oceanLayersOut), "TEMP_OCEANLAYERS_NH.OUT")
	if err != nil {
		t.Fatal(err)
	}
	s := findSeries(t, &f.Table, "World|Northern Hemisphere", "Ocean Temperature|Layer 1")
	if s.Meta.Unit != "K" {
		t.Errorf("unit = %q, want K", s.Meta.Unit)
	}
	if !valuesEqual(s.Values, []float64{293, 293.5}, 0) {
		t.Errorf("values = %v", s.Values)
	}
	s = findSeries(t, &f.Table, "World|Northern Hemisphere", "Ocean Temperature|Layer 2")
	if !valuesEqual(s.Values, []float64{292, 292.5}, 0) {
		t.Errorf("values = %v", s.Values)
	}
}
