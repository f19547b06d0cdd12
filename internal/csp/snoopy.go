package csp

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sndata/internal/lightcurve"
	"sndata/internal/units"
)

// snoopyObs is one photometric measurement from a SNooPy input file,
// still in magnitudes.
type snoopyObs struct {
	Time   float64 // JD
	Band   string  // bare filter name from the file
	Mag    float64
	MagErr float64
}

// snoopyFile is a parsed SNooPy input file.
type snoopyFile struct {
	Meta lightcurve.Meta
	Obs  []snoopyObs
}

// parseSnoopy reads a SNooPy photometry file. The first line holds
// "name z ra dec"; the remainder alternates "filter X" section markers
// with "time mag mag_err" rows. Times are SNooPy dates and are returned
// in JD.
func parseSnoopy(path string) (*snoopyFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return nil, fmt.Errorf("snoopy %s: empty file", path)
	}

	header := strings.Fields(scanner.Text())
	if len(header) < 4 {
		return nil, fmt.Errorf("snoopy %s: malformed header", path)
	}

	z, err := strconv.ParseFloat(header[1], 64)
	if err != nil {
		return nil, fmt.Errorf("snoopy %s: bad redshift: %w", path, err)
	}
	ra, err := strconv.ParseFloat(header[2], 64)
	if err != nil {
		return nil, fmt.Errorf("snoopy %s: bad ra: %w", path, err)
	}
	dec, err := strconv.ParseFloat(header[3], 64)
	if err != nil {
		return nil, fmt.Errorf("snoopy %s: bad dec: %w", path, err)
	}

	out := &snoopyFile{
		Meta: lightcurve.Meta{
			ObjID: header[0],
			RA:    lightcurve.Float(ra),
			Dec:   lightcurve.Float(dec),
			Z:     lightcurve.Float(z),
		},
	}

	band := ""
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "filter" {
			if len(fields) < 2 {
				return nil, fmt.Errorf("snoopy %s: filter marker without a name", path)
			}
			band = fields[1]
			continue
		}

		if len(fields) < 3 {
			return nil, fmt.Errorf("snoopy %s: malformed data row %q", path, scanner.Text())
		}

		t, err1 := strconv.ParseFloat(fields[0], 64)
		mag, err2 := strconv.ParseFloat(fields[1], 64)
		magErr, err3 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, fmt.Errorf("snoopy %s: malformed data row %q", path, scanner.Text())
		}

		jd, err := units.ToJD(t, units.FormatSnoopy)
		if err != nil {
			return nil, err
		}

		out.Obs = append(out.Obs, snoopyObs{Time: jd, Band: band, Mag: mag, MagErr: magErr})
	}
	return out, scanner.Err()
}
