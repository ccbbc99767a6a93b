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
	"strings"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// SCEN7 is structurally a wide emissions input with DATTYPE=SCEN7 and the
// newer five-region naming; only its region sets differ from SCEN.

func newSCEN7Reader(defs *definitions.Set, conv *magtime.Converter) Reader {
	return &textReader{
		defs: defs, conv: conv,
		name:        "scen7",
		kindSuffix:  "_EMIS",
		emissions:   true,
		defaultTodo: "SET",
	}
}

func newSCEN7Writer(defs *definitions.Set, conv *magtime.Converter) Writer {
	return &scen7Writer{defs: defs, conv: conv}
}

type scen7Writer struct {
	defs *definitions.Set
	conv *magtime.Converter
}

func (w *scen7Writer) Write(out io.Writer, f *File) ([]string, error) {
	// SCEN7 uses the updated five-region naming; upgrade older spellings.
	var advisories []string
	upgraded := *f
	upgraded.Table = *f.Table.DeepCopy()
	for i := range upgraded.Table.Series {
		meta := &upgraded.Table.Series[i].Meta
		native := w.defs.RegionFromCanonical(meta.Region).Value
		if strings.HasPrefix(native, "R5") && !strings.HasPrefix(native, "R5.2") {
			newName := "R5.2" + strings.TrimPrefix(native, "R5")
			advisories = append(advisories,
				fmt.Sprintf("scen7: region %q written with its newer spelling %q", native, newName))
			meta.Region = w.defs.RegionToCanonical(newName).Value
		}
	}
	ww := &wideWriter{
		defs: w.defs, conv: w.conv,
		name:      "scen7",
		scen7:     true,
		emissions: true,
	}
	more, err := ww.Write(out, &upgraded)
	if err != nil {
		return nil, err
	}
	return append(advisories, more...), nil
}
