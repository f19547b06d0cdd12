// Package lightcurve defines the common tabular schema that every data
// release is normalized into: photometry rows carrying time, band, flux,
// fluxerr, zp, and zpsys, spectroscopy rows carrying time, wavelength,
// and flux, and shared per-object metadata.
package lightcurve

import "math"

// Meta holds per-object metadata shared by every release. Coordinate and
// redshift fields are pointers; nil means the release does not publish
// the value for this object.
type Meta struct {
	ObjID string
	RA    *float64
	Dec   *float64
	Z     *float64
	ZErr  *float64

	// Extra carries release-specific key/value metadata verbatim.
	Extra map[string]string
}

// Obs is a single photometric observation in the standard schema.
type Obs struct {
	Time    float64 // Julian Date
	Band    string  // package-standard band name
	Flux    float64
	FluxErr float64
	ZP      float64
	ZPSys   string
}

// Photometry is a normalized light curve for one object.
type Photometry struct {
	Meta Meta
	Obs  []Obs
}

// SpecObs is a single spectroscopic sample. The trailing fields are only
// populated by releases that publish them.
type SpecObs struct {
	Time       float64 // Julian Date of observation
	Wavelength float64 // Angstroms
	Flux       float64

	FluxErr    float64
	Epoch      float64 // days relative to maximum light
	Segment    string  // wavelength range or spectrum type tag
	Telescope  string
	Instrument string
}

// Spectrum is a normalized spectroscopic dataset for one object. A single
// Spectrum may merge several observed spectra (files) of the same object.
type Spectrum struct {
	Meta Meta
	Obs  []SpecObs
}

// FluxFromMag converts a magnitude and its error to flux for a given
// zeropoint.
func FluxFromMag(mag, magErr, zp float64) (flux, fluxErr float64) {
	flux = math.Pow(10, (mag-zp)/-2.5)
	fluxErr = math.Ln10 * flux * magErr / 2.5
	return flux, fluxErr
}

// Float returns a pointer to v. Used when populating optional Meta fields.
func Float(v float64) *float64 {
	return &v
}
