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
	"regexp"
	"strings"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// Model output dialects. All are read-only: the model writes them and
// nothing but the model should.

func newOutReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &textReader{
		defs: defs, conv: conv,
		name:             "model output",
		variableFromPath: outVariablePattern,
		defaultTodo:      "N/A",
		namelistOptional: true,
	}
}

func newEmisOutReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &textReader{
		defs: defs, conv: conv,
		name:             "emissions output",
		variableFromPath: outVariablePattern,
		kindSuffix:       "_EMIS",
		emissions:        true,
		defaultTodo:      "N/A",
		namelistOptional: true,
	}
}

// newInverseEmisReader reads INVERSEEMIS.OUT, whose columns are inverse
// emissions variables for the single World region, headed by UNITS: and
// YEARS: rows.
func newInverseEmisReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &inverseEmisReader{defs: defs, conv: conv}
}

type inverseEmisReader struct {
	defs *definitions.Set
	conv *magtime.Converter
}

func (r *inverseEmisReader) Read(data []byte, path string) (*File, error) {
	tr := &textReader{
		defs: r.defs, conv: r.conv,
		name:                "inverse emissions output",
		columnsAreVariables: true,
		fixedRegion:         "World",
		emissions:           true,
		defaultTodo:         "N/A",
		namelistOptional:    true,
	}
	f, err := tr.Read(data, path)
	if err != nil {
		return nil, err
	}
	for i := range f.Table.Series {
		v := &f.Table.Series[i].Meta.Variable
		if rest, found := strings.CutPrefix(*v, "Emissions|"); found {
			*v = "Inverse Emissions|" + rest
		}
	}
	return f, nil
}

var oceanLayersRegionPattern = regexp.MustCompile(`^TEMP_OCEANLAYERS(_NH|_SH)?\.OUT$`)

// newOceanLayersReader reads TEMP_OCEANLAYERS*.OUT, whose columns are
// ocean layers; the region comes from the filename variant.
func newOceanLayersReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &oceanLayersReader{defs: defs, conv: conv}
}

type oceanLayersReader struct {
	defs *definitions.Set
	conv *magtime.Converter
}

func (r *oceanLayersReader) Read(data []byte, path string) (*File, error) {
	region := "World"
	if m := oceanLayersRegionPattern.FindStringSubmatch(strings.ToUpper(baseName(path))); m != nil {
		switch m[1] {
		case "_NH":
			region = "World|Northern Hemisphere"
		case "_SH":
			region = "World|Southern Hemisphere"
		}
	}
	tr := &textReader{
		defs: r.defs, conv: r.conv,
		name:                "ocean layer temperature output",
		columnsAreVariables: true,
		columnVariable:      oceanLayerVariable,
		fixedRegion:         region,
		defaultTodo:         "N/A",
		namelistOptional:    true,
	}
	f, err := tr.Read(data, path)
	if err != nil {
		return nil, err
	}
	for i := range f.Table.Series {
		if f.Table.Series[i].Meta.Unit == "unknown" {
			f.Table.Series[i].Meta.Unit = "K"
		}
	}
	return f, nil
}

// oceanLayerVariable maps a LAYER_n column token to its variable name.
func oceanLayerVariable(tok string) string {
	layer := strings.TrimPrefix(strings.ToUpper(tok), "LAYER_")
	if layer == strings.ToUpper(tok) {
		return tok
	}
	return fmt.Sprintf("Ocean Temperature|Layer %s", layer)
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
