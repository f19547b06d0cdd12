// Package release defines the standard access surface implemented by
// every supported data release and the sentinel errors shared across
// surveys.
package release

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sndata/internal/fetch"
	"sndata/internal/lightcurve"
)

// Sentinel errors returned by release implementations.
var (
	// ErrNotDownloaded signals that local data is missing for an
	// operation that needs it.
	ErrNotDownloaded = errors.New("data has not been downloaded for this release")

	// ErrInvalidObjID signals an unknown object identifier.
	ErrInvalidObjID = errors.New("invalid object id")

	// ErrInvalidTableID signals an unknown published-table identifier.
	ErrInvalidTableID = errors.New("invalid table id")

	// ErrNoFilters signals a spectroscopic release with no filters to
	// register.
	ErrNoFilters = errors.New("release has no filters to register")
)

// Data types reported by Release.DataType.
const (
	Photometric   = "photometric"
	Spectroscopic = "spectroscopic"
)

// Release is the uniform surface over one published data release.
type Release interface {
	// Survey returns the survey abbreviation (e.g. "CSP").
	Survey() string

	// Name returns the release name within the survey (e.g. "DR3").
	Name() string

	// DataType returns Photometric or Spectroscopic.
	DataType() string

	// AvailableIDs returns the sorted, de-duplicated object IDs with
	// locally available data.
	AvailableIDs() ([]string, error)

	// AvailableTables returns the IDs of published paper tables.
	AvailableTables() ([]string, error)

	// LoadTable loads a published paper table by ID.
	LoadTable(id string) (*Table, error)

	// Download fetches the release's archives into the local cache.
	Download(ctx context.Context, opts fetch.Options) error

	// Delete removes all locally cached data for the release.
	Delete() error

	// RegisterFilters registers the release's filter curves with the
	// bandpass registry. Spectroscopic releases return ErrNoFilters.
	RegisterFilters(force bool) error
}

// PhotometricRelease is a release that publishes light curves.
type PhotometricRelease interface {
	Release

	// Photometry returns the normalized light curve for an object.
	Photometry(objID string) (*lightcurve.Photometry, error)
}

// SpectroscopicRelease is a release that publishes spectra.
type SpectroscopicRelease interface {
	Release

	// Spectrum returns the merged, normalized spectra for an object.
	Spectrum(objID string) (*lightcurve.Spectrum, error)
}

// RequireDirs returns ErrNotDownloaded when any of the given paths is
// missing.
func RequireDirs(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%s: %w", path, ErrNotDownloaded)
		}
	}
	return nil
}

// ValidateID checks an object ID against the list of available IDs.
func ValidateID(objID string, available []string) error {
	for _, id := range available {
		if id == objID {
			return nil
		}
	}
	return fmt.Errorf("%q: %w", objID, ErrInvalidObjID)
}

// DeleteDir removes a release data directory, ignoring a missing one.
func DeleteDir(dir string) error {
	err := os.RemoveAll(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// IterPhotometry walks every available object of a photometric release
// and calls fn with each normalized light curve. Objects rejected by the
// optional filter are skipped. Iteration stops on the first error.
func IterPhotometry(rel PhotometricRelease, filter func(*lightcurve.Photometry) bool, fn func(*lightcurve.Photometry) error) error {
	ids, err := rel.AvailableIDs()
	if err != nil {
		return err
	}

	for _, id := range ids {
		p, err := rel.Photometry(id)
		if err != nil {
			return err
		}
		if filter != nil && !filter(p) {
			continue
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}
