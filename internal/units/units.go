// Package units handles conversions between the time standards and
// coordinate conventions used by the supported data releases.
package units

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Offsets between the supported time standards.
const (
	// SnoopyOffset converts SNooPy dates to MJD.
	SnoopyOffset = 53000

	// MJDOffset converts MJD to JD.
	MJDOffset = 2400000.5
)

// Time formats accepted by ToJD.
const (
	FormatSnoopy = "snpy"
	FormatMJD    = "mjd"
	FormatUT     = "ut"
)

// ToJD converts a date in the given format ("snpy", "mjd", or "ut")
// into Julian Date.
//
// UT dates are fractional-day stamps of the form YYYYMMDD.f
// (e.g. 20050102.5 is noon UT on 2005-01-02).
func ToJD(date float64, format string) (float64, error) {
	switch strings.ToLower(format) {
	case FormatSnoopy:
		return date + SnoopyOffset + MJDOffset, nil

	case FormatMJD:
		return date + MJDOffset, nil

	case FormatUT:
		return utToJD(date)
	}

	return 0, fmt.Errorf("units: cannot convert format %q", format)
}

// EnsureJD converts a date of unknown standard into JD using threshold
// disambiguation: values below the SNooPy offset are treated as SNooPy
// dates and values below the MJD offset as MJD.
func EnsureJD(date float64) float64 {
	if date < SnoopyOffset {
		date += SnoopyOffset
	}
	if date < MJDOffset {
		date += MJDOffset
	}
	return date
}

func utToJD(date float64) (float64, error) {
	str := strconv.FormatFloat(date, 'f', -1, 64)
	if !strings.Contains(str, ".") {
		str += ".0"
	}
	if len(str) < 9 || strings.Index(str, ".") != 8 {
		return 0, fmt.Errorf("units: invalid UT date %v", date)
	}

	year, err := strconv.Atoi(str[:4])
	if err != nil {
		return 0, fmt.Errorf("units: invalid UT date %v: %w", date, err)
	}
	month, err := strconv.Atoi(str[4:6])
	if err != nil {
		return 0, fmt.Errorf("units: invalid UT date %v: %w", date, err)
	}
	day, err := strconv.Atoi(str[6:8])
	if err != nil {
		return 0, fmt.Errorf("units: invalid UT date %v: %w", date, err)
	}
	fracDays, err := strconv.ParseFloat(str[8:], 64)
	if err != nil {
		return 0, fmt.Errorf("units: invalid UT date %v: %w", date, err)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	// Days since the proleptic Gregorian epoch, rescaled so that day one
	// lands on JD 1721425.5 (midnight starting January 1, 1 AD).
	ordinal := t.Sub(time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)).Hours()/24 + 1

	return ordinal + 1721424.5 + fracDays, nil
}

// HourAngleToDegrees converts an RA in hours/minutes/seconds and a Dec in
// sign/degrees/arcminutes/arcseconds to decimal degrees.
func HourAngleToDegrees(rah, ram, ras float64, decSign string, decd, decm, decs float64) (ra, dec float64) {
	// 1 hour of right ascension is 15 degrees
	ra = 15 * (rah + ram/60 + ras/3600)

	sign := 1.0
	if decSign == "-" {
		sign = -1
	}
	dec = sign*decd + decm/60 + decs/3600
	return ra, dec
}
