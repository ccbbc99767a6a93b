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
	"os"
	"regexp"

	"github.com/spatialmodel/magfile/definitions"
	"github.com/spatialmodel/magfile/magtime"
)

// A Registry maps filenames to codecs. Entries are tried in order, most
// specific pattern first, so the emissions-output pattern wins over the
// general output pattern and the RCP .DAT catch-all comes last.
type Registry struct {
	defs    *definitions.Set
	conv    *magtime.Converter
	entries []registryEntry
}

type registryEntry struct {
	format  string
	pattern *regexp.Regexp
	reader  Reader
	writer  Writer // nil for the read-only output formats
}

// deniedPatterns are output files no codec will ever be provided for:
// files without units, sub-annual binaries, and one-off formats.
var deniedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^CARBONCYCLE.*OUT$`),
	regexp.MustCompile(`(?i)^PF_.*OUT$`),
	regexp.MustCompile(`(?i)^DATBASKET_.*`),
	regexp.MustCompile(`(?i)INVERSE_.*EMIS.*OUT$`),
	regexp.MustCompile(`(?i)INVERSEEMIS\.BINOUT$`),
	regexp.MustCompile(`(?i)^PRECIPINPUT.*OUT$`),
	regexp.MustCompile(`(?i)^TEMP_OCEANLAYERS.*\.BINOUT$`),
	regexp.MustCompile(`(?i)^TIMESERIESMIX.*OUT$`),
	regexp.MustCompile(`(?i)^SUMMARY_INDICATORS\.OUT$`),
}

// NewRegistry builds the codec registry, loading the vocabulary tables
// and the time converter shared by every codec. The result is immutable
// and safe for concurrent use.
func NewRegistry() (*Registry, error) {
	defs, err := definitions.NewSet()
	if err != nil {
		return nil, fmt.Errorf("magfile.NewRegistry: %v", err)
	}
	conv := magtime.NewConverter()
	r := &Registry{defs: defs, conv: conv}

	add := func(format, pattern string, reader func(*definitions.Set, *magtime.Converter) Reader,
		writer func(*definitions.Set, *magtime.Converter) Writer) {
		e := registryEntry{format: format, pattern: regexp.MustCompile("(?i)" + pattern)}
		if reader != nil {
			e.reader = reader(defs, conv)
		}
		if writer != nil {
			e.writer = writer(defs, conv)
		}
		r.entries = append(r.entries, e)
	}

	add("SCEN", `^.*\.SCEN$`, newSCENReader, newSCENWriter)
	add("SCEN7", `^.*\.SCEN7$`, newSCEN7Reader, newSCEN7Writer)
	add("prn", `^.*\.prn$`, newPRNReader, newPRNWriter)
	add("EmisIn", `^.*_EMIS.*\.IN$`, newEmisInReader, newEmisInWriter)
	add("ConcIn", `^.*_CONC.*\.(IN|MON)$`, newConcInReader, newConcInWriter)
	add("OpticalThicknessIn", `^.*_OT\.IN$`, newOTInReader, newOTInWriter)
	add("RadiativeForcingIn", `^.*_RF\.(IN|MON)$`, newRFInReader, newRFInWriter)
	add("SurfaceTemperatureIn", `^.*SURFACE_TEMP\.(IN|MON)$`, newSurfaceTempReader, newSurfaceTempWriter)
	add("MAG", `^.*\.MAG$`, newMAGReader, newMAGWriter)
	add("CompactOut", `^.*COMPACT\.OUT$`, newCompactReader, nil)
	add("CompactBinOut", `^.*COMPACT\.BINOUT$`, newBinaryCompactReader, nil)
	add("InverseEmis", `^INVERSEEMIS\.OUT$`, newInverseEmisReader, nil)
	add("TempOceanLayersOut", `^TEMP_OCEANLAYERS.*\.OUT$`, newOceanLayersReader, nil)
	add("EmisOut", `^DAT_.*EMIS\.OUT$`, newEmisOutReader, nil)
	add("Out", `^DAT_.*\.OUT$`, newOutReader, nil)
	add("BinOut", `^DAT_.*\.BINOUT$`, newBinoutReader, nil)
	add("RCPData", `^.*\.DAT$`, newRCPDATReader, newRCPDATWriter)
	return r, nil
}

// Definitions returns the vocabulary tables the registry's codecs share,
// for callers that need to resolve names themselves.
func (r *Registry) Definitions() *definitions.Set { return r.defs }

func (r *Registry) match(path string) (*registryEntry, error) {
	base := baseName(path)
	for _, p := range deniedPatterns {
		if p.MatchString(base) {
			return nil, fmt.Errorf("magfile: %q is in a format for which no reader or writer will be provided", path)
		}
	}
	for i := range r.entries {
		if r.entries[i].pattern.MatchString(base) {
			return &r.entries[i], nil
		}
	}
	patterns := make([]string, len(r.entries))
	for i, e := range r.entries {
		patterns[i] = fmt.Sprintf("%s: %s", e.format, e.pattern)
	}
	return nil, &UnsupportedFormatError{Path: path, Patterns: patterns}
}

// ReaderFor returns the reader for path's format.
func (r *Registry) ReaderFor(path string) (Reader, error) {
	e, err := r.match(path)
	if err != nil {
		return nil, err
	}
	return e.reader, nil
}

// WriterFor returns the writer for path's format, or an
// *UnsupportedOperationError for the read-only output formats.
func (r *Registry) WriterFor(path string) (Writer, error) {
	e, err := r.match(path)
	if err != nil {
		return nil, err
	}
	if e.writer == nil {
		return nil, &UnsupportedOperationError{Op: "write", Format: e.format, Path: path}
	}
	return e.writer, nil
}

// Read decodes data as the format implied by path.
func (r *Registry) Read(data []byte, path string) (*File, error) {
	reader, err := r.ReaderFor(path)
	if err != nil {
		return nil, err
	}
	return reader.Read(data, path)
}

// ReadFile reads and decodes the file at path.
func (r *Registry) ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("magfile.ReadFile: %v", err)
	}
	return r.Read(data, path)
}

// Write encodes f to w in the format implied by path, returning any
// advisories generated while resolving names to the format's native
// spellings.
func (r *Registry) Write(w io.Writer, f *File, path string) ([]string, error) {
	writer, err := r.WriterFor(path)
	if err != nil {
		return nil, err
	}
	return writer.Write(w, f)
}

// WriteFile encodes f to the file at path.
func (r *Registry) WriteFile(f *File, path string) ([]string, error) {
	writer, err := r.WriterFor(path)
	if err != nil {
		return nil, err
	}
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("magfile.WriteFile: %v", err)
	}
	advisories, err := writer.Write(out, f)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return advisories, err
}
