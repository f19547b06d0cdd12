package csp

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"sndata/internal/common"
	"sndata/internal/fetch"
	"sndata/internal/lightcurve"
	"sndata/internal/release"
	"sndata/internal/units"
)

// DR1 is the first release of optical spectroscopic data by the
// Carnegie Supernova Project: 604 spectra of 93 low-redshift Type Ia
// supernovae covering phases from -12 to +150 days around B-band
// maximum.
type DR1 struct {
	dataDir    string
	spectraDir string
	tableDir   string

	spectraURL string
	tableURL   string

	cache release.TableCache
}

// NewDR1 returns the CSP DR1 release rooted in the configured data
// directory.
func NewDR1(cfg *common.Config) *DR1 {
	dataDir := cfg.ReleaseDir(SurveyAbbrev, "DR1")
	return &DR1{
		dataDir:    dataDir,
		spectraDir: filepath.Join(dataDir, "spectra", "CSP_spectra_DR1"),
		tableDir:   filepath.Join(dataDir, "tables"),
		spectraURL: cspDataURL + "CSP_spectra_DR1.tgz",
		tableURL:   "http://cdsarc.u-strasbg.fr/viz-bin/nph-Cat/tar.gz?J/ApJ/773/53",
	}
}

func (r *DR1) Survey() string   { return SurveyAbbrev }
func (r *DR1) Name() string     { return "DR1" }
func (r *DR1) DataType() string { return release.Spectroscopic }

// AvailableIDs returns the object IDs with locally available spectra.
// File names abbreviate the discovery year ("SN04ef_..." -> "2004ef").
func (r *DR1) AvailableIDs() ([]string, error) {
	if err := release.RequireDirs(r.spectraDir); err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(r.spectraDir, "SN*.dat"))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, f := range files {
		id := "20" + strings.TrimPrefix(strings.SplitN(filepath.Base(f), "_", 2)[0], "SN")
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Spectrum merges all locally available spectra of an object into one
// normalized table.
func (r *DR1) Spectrum(objID string) (*lightcurve.Spectrum, error) {
	ids, err := r.AvailableIDs()
	if err != nil {
		return nil, err
	}
	if err := release.ValidateID(objID, ids); err != nil {
		return nil, err
	}

	pattern := filepath.Join(r.spectraDir, fmt.Sprintf("SN%s_*.dat", strings.TrimPrefix(objID, "20")))
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	out := &lightcurve.Spectrum{Meta: lightcurve.Meta{ObjID: objID}}
	for _, path := range files {
		spec, err := readDR1File(path)
		if err != nil {
			return nil, err
		}
		out.Obs = append(out.Obs, spec.Obs...)
		out.Meta.Z = spec.Meta.Z
	}
	return out, nil
}

// readDR1File reads one DR1 spectrum. The files are two-column
// wavelength/flux ascii with observation metadata embedded in leading
// comment lines:
//
//	# SN: 2004ef
//	# Redshift: 0.031
//	# JDate_of_max: 2453264.4
//	# JDate_of_observation: 2453252.7
//	# Epoch: -11.5
//
// A single published file carries a third junk column; reading only the
// first two fields of every row handles it uniformly.
func readDR1File(path string) (*lightcurve.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stem := strings.TrimSuffix(filepath.Base(path), ".dat")
	parts := strings.Split(stem, "_")
	if len(parts) < 5 {
		return nil, fmt.Errorf("csp dr1: unexpected file name %q", filepath.Base(path))
	}
	wRange, telescope, instrument := parts[2], parts[3], parts[4]

	spec := &lightcurve.Spectrum{}
	var obsDate, epoch float64

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "#")), ":")
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)

			switch key {
			case "Redshift":
				z, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return nil, fmt.Errorf("csp dr1 %s: bad redshift: %w", path, err)
				}
				spec.Meta.Z = lightcurve.Float(z)
			case "JDate_of_observation":
				if obsDate, err = strconv.ParseFloat(value, 64); err != nil {
					return nil, fmt.Errorf("csp dr1 %s: bad observation date: %w", path, err)
				}
			case "Epoch":
				if epoch, err = strconv.ParseFloat(value, 64); err != nil {
					return nil, fmt.Errorf("csp dr1 %s: bad epoch: %w", path, err)
				}
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("csp dr1 %s: malformed row %q", path, line)
		}
		wave, err1 := strconv.ParseFloat(fields[0], 64)
		flux, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("csp dr1 %s: malformed row %q", path, line)
		}

		spec.Obs = append(spec.Obs, lightcurve.SpecObs{
			Wavelength: wave,
			Flux:       flux,
			Segment:    wRange,
			Telescope:  telescope,
			Instrument: instrument,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	jd := units.EnsureJD(obsDate)
	for i := range spec.Obs {
		spec.Obs[i].Time = jd
		spec.Obs[i].Epoch = epoch
	}
	return spec, nil
}

// AvailableTables returns the IDs of the locally available paper tables.
func (r *DR1) AvailableTables() ([]string, error) {
	return release.CDSTableIDs(r.tableDir)
}

// LoadTable loads a CDS paper table by ID.
func (r *DR1) LoadTable(id string) (*release.Table, error) {
	return release.LoadCDSTable(&r.cache, r.tableDir, id)
}

// RegisterFilters returns ErrNoFilters; DR1 is a spectroscopic release.
func (r *DR1) RegisterFilters(force bool) error {
	return fmt.Errorf("csp dr1: %w", release.ErrNoFilters)
}

// Download fetches the spectra bundle and the CDS paper tables.
func (r *DR1) Download(ctx context.Context, opts fetch.Options) error {
	tableOpts := opts
	tableOpts.SkipExists = r.tableDir
	if err := fetch.Tarball(ctx, r.tableURL, r.tableDir, tableOpts); err != nil {
		return err
	}

	spectraOpts := opts
	spectraOpts.SkipExists = r.spectraDir
	return fetch.Tarball(ctx, r.spectraURL, filepath.Join(r.dataDir, "spectra"), spectraOpts)
}

// Delete removes all locally cached DR1 data.
func (r *DR1) Delete() error {
	return release.DeleteDir(r.dataDir)
}
