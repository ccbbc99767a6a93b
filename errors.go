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
	"strings"
)

// UnsupportedFormatError reports a path that no codec recognizes. Patterns
// lists every filename pattern the registry knows, so the message alone is
// enough to see what would have been accepted.
type UnsupportedFormatError struct {
	Path     string
	Patterns []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("magfile: %q does not match any known format; known patterns are: %s",
		e.Path, strings.Join(e.Patterns, ", "))
}

// UnsupportedOperationError reports a recognized format that does not
// support the requested operation, for example writing a model output
// dialect.
type UnsupportedOperationError struct {
	Op     string
	Format string
	Path   string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("magfile: %s is not supported for format %s (%q)",
		e.Op, e.Format, e.Path)
}

// MalformedNamelistError reports a header namelist block that cannot be
// parsed, including case-insensitive duplicate keys.
type MalformedNamelistError struct {
	Line   int
	Reason string
}

func (e *MalformedNamelistError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("magfile: malformed namelist at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("magfile: malformed namelist: %s", e.Reason)
}

// MalformedDataBlockError reports a data block whose layout does not match
// the dialect, for example a missing or misspelled column-header token.
type MalformedDataBlockError struct {
	Line   int
	Reason string
}

func (e *MalformedDataBlockError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("magfile: malformed data block at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("magfile: malformed data block: %s", e.Reason)
}

// InconsistentMissingError reports a time step at which some series have
// values and others do not. Missing values must cover whole rows.
type InconsistentMissingError struct {
	Time string
}

func (e *InconsistentMissingError) Error() string {
	return fmt.Sprintf("magfile: values at %s are missing for some series but not all; "+
		"missing values must cover whole time steps", e.Time)
}
