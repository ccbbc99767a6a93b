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

// Package magtime converts between MAGICC's decimal-year time convention and
// calendar timestamps.
//
// Internally, MAGICC operates on a monthly calendar where each year is made
// up of 12 equally sized months. Moving between that convention and real
// timestamps therefore requires interpreting "start of the month" and
// "middle of the month" within a tolerance rather than exactly. Only those
// two anchors are supported; any other sub-year offset is rejected.
package magtime

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

// tolerance is the relative precision within which a year fraction must
// match one of the precomputed month anchors.
const tolerance = 4e-3

// UnrecognizedTemporalResolutionError reports a time value that does not
// follow one of the temporal conventions this package can process.
type UnrecognizedTemporalResolutionError struct {
	Reason string
}

func (e *UnrecognizedTemporalResolutionError) Error() string {
	return e.Reason
}

// Converter converts between decimal years and timestamps. The anchor
// tables are precomputed once by NewConverter; a Converter is immutable
// afterwards and safe for concurrent use. Both conversion methods are pure,
// so results may be memoized by callers.
type Converter struct {
	// Year fractions at which each calendar month starts and has its
	// middle, for a non-leap reference year.
	startMonths [12]float64
	midMonths   [12]float64

	// The same anchors under MAGICC's equal-month convention.
	startMonthsMAGICC [12]float64
	midMonthsMAGICC   [12]float64
}

// referenceYear is a non-leap year used to build the calendar anchor tables.
const referenceYear = 2001

// NewConverter precomputes the month anchor tables.
func NewConverter() *Converter {
	c := new(Converter)
	yearStart := time.Date(referenceYear, 1, 1, 0, 0, 0, 0, time.UTC)
	yearSeconds := time.Date(referenceYear+1, 1, 1, 0, 0, 0, 0, time.UTC).Sub(yearStart).Seconds()
	for m := 1; m <= 12; m++ {
		monthStart := time.Date(referenceYear, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		c.startMonths[m-1] = monthStart.Sub(yearStart).Seconds() / yearSeconds

		dayDecimal := float64(daysInMonth(referenceYear, time.Month(m))) * 0.5
		day := int(dayDecimal)
		hour := int(math.Mod(dayDecimal, 1) * 24)
		monthMid := time.Date(referenceYear, time.Month(m), day, hour, 0, 0, 0, time.UTC)
		c.midMonths[m-1] = monthMid.Sub(yearStart).Seconds() / yearSeconds

		c.startMonthsMAGICC[m-1] = float64(m-1) / 12
		c.midMonthsMAGICC[m-1] = float64(m-1)/12 + 1.0/24
	}
	return c
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ToTime converts a MAGICC decimal year to a timestamp. It fails with an
// UnrecognizedTemporalResolutionError if the sub-year part is neither a
// start-of-month nor a mid-month anchor.
func (c *Converter) ToTime(decimalYear float64) (time.Time, error) {
	year := int(decimalYear)
	monthDecimal := math.Mod(decimalYear, 1) * 12
	monthFraction := math.Mod(monthDecimal, 1)

	var month, day, hour int
	switch {
	case monthFraction > 0.9:
		// MAGICC never writes end of month; this is rounding error in the
		// decimal representation. E.g. 1000.083 is year 1000, start of
		// February, but 0.083*12 = 0.996, so the month must be bumped by
		// one after rounding up.
		month = int(math.Ceil(monthDecimal)) + 1
		day = 1
		hour = 1
	case math.Round(monthFraction*10)/10 == 0.5:
		month = int(math.Ceil(monthDecimal))
		dayDecimal := float64(daysInMonth(year, time.Month(month))) * 0.5
		day = int(dayDecimal)
		hour = int(math.Mod(dayDecimal, 1) * 24)
	case math.Round(monthFraction*10)/10 == 0:
		month = int(monthDecimal) + 1
		day = 1
		hour = 1
	default:
		return time.Time{}, &UnrecognizedTemporalResolutionError{
			Reason: fmt.Sprintf("magtime: decimal year %v is neither middle nor start of month", decimalYear),
		}
	}
	return time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC), nil
}

// DecimalYear converts a timestamp to MAGICC's decimal year representation,
// rounded to three decimals to match MAGICC's own precision. It fails with
// an UnrecognizedTemporalResolutionError if the timestamp is neither the
// start nor the middle of a month, under either the calendar or the
// equal-month convention.
func (c *Converter) DecimalYear(t time.Time) (float64, error) {
	year := t.Year()
	month := int(t.Month())
	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	yearSeconds := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC).Sub(yearStart).Seconds()
	yearFraction := t.Sub(yearStart).Seconds() / yearSeconds

	midBit := float64((month-1)*2+1) / 24
	startBit := float64(month-1) / 12

	var decimalBit float64
	switch {
	case c.closeToAnchor(yearFraction, c.midMonthsMAGICC[:], false),
		c.closeToAnchor(yearFraction, c.midMonths[:], false):
		decimalBit = midBit
	case c.closeToAnchor(yearFraction, c.startMonthsMAGICC[:], true),
		c.closeToAnchor(yearFraction, c.startMonths[:], true):
		decimalBit = startBit
	default:
		return 0, &UnrecognizedTemporalResolutionError{
			Reason: fmt.Sprintf("magtime: timestamp %v is neither middle nor start of month", t),
		}
	}
	return math.Round((float64(year)+decimalBit)*1000) / 1000, nil
}

// closeToAnchor reports whether the year fraction matches any entry of the
// anchor table within tolerance. When mustBeGreater is set, a fraction just
// below its anchor is not a match; this keeps end-of-previous-month times
// from being read as start of the next month.
func (c *Converter) closeToAnchor(yearFraction float64, anchors []float64, mustBeGreater bool) bool {
	for _, a := range anchors {
		if !scalar.EqualWithinAbs(yearFraction, a, tolerance) {
			continue
		}
		if mustBeGreater && yearFraction < a {
			return false
		}
		return true
	}
	return false
}
