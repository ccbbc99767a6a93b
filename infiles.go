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
	"regexp"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// The wide-table input dialects. Each is a textReader/wideWriter pair
// assembled from the capabilities the dialect needs: how the variable is
// found when the file has no VARIABLE row, which noise tokens appear in
// legacy variable spellings, and whether units need emission-rate
// expansion or optical-thickness normalisation.

var (
	concInPattern         = regexp.MustCompile(`([A-Za-z0-9]+_CONC)\.(IN|MON)$`)
	emisInPattern         = regexp.MustCompile(`([A-Za-z0-9]+_EMIS)\.IN$`)
	otInPattern           = regexp.MustCompile(`([A-Za-z0-9]+_OT)\.IN$`)
	rfInPattern           = regexp.MustCompile(`([A-Za-z0-9]+_RF)\.(IN|MON)$`)
	surfaceTempPattern    = regexp.MustCompile(`(SURFACE_TEMP)\.(IN|MON)$`)
	outVariablePattern    = regexp.MustCompile(`^DAT_([A-Za-z0-9_]+)\.OUT$`)
	binoutVariablePattern = regexp.MustCompile(`^DAT_([A-Za-z0-9_]+)\.BINOUT$`)
)

func newConcInReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &textReader{
		defs: defs, conv: conv,
		name:             "conc input",
		variableFromPath: concInPattern,
		kindSuffix:       "_CONC",
		tokenStrips:      []string{"_MIXINGRATIO"},
		defaultTodo:      "SET",
	}
}

func newConcInWriter(defs *definitions.Set, conv *magtime.Converter) Writer {
	return &wideWriter{defs: defs, conv: conv, name: "conc input"}
}

func newEmisInReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &textReader{
		defs: defs, conv: conv,
		name:             "emissions input",
		variableFromPath: emisInPattern,
		kindSuffix:       "_EMIS",
		tokenStrips:      []string{"EMIS-"},
		emissions:        true,
		defaultTodo:      "SET",
	}
}

func newEmisInWriter(defs *definitions.Set, conv *magtime.Converter) Writer {
	return &wideWriter{defs: defs, conv: conv, name: "emissions input", emissions: true}
}

func newOTInReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &textReader{
		defs: defs, conv: conv,
		name:             "optical thickness input",
		variableFromPath: otInPattern,
		kindSuffix:       "_OT",
		tokenStrips:      []string{"OT-"},
		opticalThickness: true,
		defaultTodo:      "SET",
	}
}

func newOTInWriter(defs *definitions.Set, conv *magtime.Converter) Writer {
	return &wideWriter{defs: defs, conv: conv, name: "optical thickness input",
		opticalThickness: true}
}

func newRFInReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &textReader{
		defs: defs, conv: conv,
		name:             "radiative forcing input",
		variableFromPath: rfInPattern,
		kindSuffix:       "_RF",
		tokenStrips:      []string{"FORC-"},
		defaultTodo:      "SET",
	}
}

func newRFInWriter(defs *definitions.Set, conv *magtime.Converter) Writer {
	return &wideWriter{defs: defs, conv: conv, name: "radiative forcing input"}
}

func newSurfaceTempReader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &textReader{
		defs: defs, conv: conv,
		name:          "surface temperature input",
		fixedVariable: "SURFACE_TEMP",
		defaultTodo:   "SET",
	}
}

func newSurfaceTempWriter(defs *definitions.Set, conv *magtime.Converter) Writer {
	return &wideWriter{defs: defs, conv: conv, name: "surface temperature input"}
}
