package snls

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
)

// Balland09 is the SNLS three-year VLT spectroscopy release: 139
// spectra of 124 Type Ia supernovae at 0.149 <= z <= 1.031
// (Balland et al. 2009).
type Balland09 struct {
	dataDir    string
	spectraDir string
	tableDir   string

	spectraURL string
	tableURL   string

	cache release.TableCache
}

// NewBalland09 returns the SNLS Balland09 release rooted in the
// configured data directory.
func NewBalland09(cfg *common.Config) *Balland09 {
	dataDir := cfg.ReleaseDir(SurveyAbbrev, "Balland09")
	return &Balland09{
		dataDir:    dataDir,
		spectraDir: filepath.Join(dataDir, "PHASE_spec_Balland09"),
		tableDir:   filepath.Join(dataDir, "tables"),
		spectraURL: "http://supernovae.in2p3.fr/~balland/VltRelease/PHASE_spec_Balland09.tar.gz",
		tableURL:   "http://cdsarc.u-strasbg.fr/viz-bin/nph-Cat/tar.gz?J/A+A/507/85",
	}
}

func (r *Balland09) Survey() string   { return SurveyAbbrev }
func (r *Balland09) Name() string     { return "Balland09" }
func (r *Balland09) DataType() string { return release.Spectroscopic }

// AvailableIDs returns the object IDs with locally available spectra.
// File names follow "{type}_{id}_{...}_Balland_etal_09.dat".
func (r *Balland09) AvailableIDs() ([]string, error) {
	if err := release.RequireDirs(r.spectraDir); err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(r.spectraDir, "*.dat"))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, f := range files {
		parts := strings.Split(filepath.Base(f), "_")
		if len(parts) < 2 {
			continue
		}
		if !seen[parts[1]] {
			seen[parts[1]] = true
			ids = append(ids, parts[1])
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Spectrum merges the object's spectra into one table. Each file's
// leading name component records what was observed (supernova, host or
// combined) and is kept as the segment.
func (r *Balland09) Spectrum(objID string) (*lightcurve.Spectrum, error) {
	ids, err := r.AvailableIDs()
	if err != nil {
		return nil, err
	}
	if err := release.ValidateID(objID, ids); err != nil {
		return nil, err
	}

	pattern := filepath.Join(r.spectraDir, "*_"+objID+"_*_Balland_etal_09.dat")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	out := &lightcurve.Spectrum{Meta: lightcurve.Meta{ObjID: objID}}
	for _, path := range files {
		segment := strings.ToLower(strings.SplitN(filepath.Base(path), "_", 2)[0])
		if err := readBalland09File(path, segment, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// readBalland09File appends a spectrum file's rows. Rows carry an index
// followed by wavelength, flux and flux error; "#" and "@" lines are
// comments.
func readBalland09File(path, segment string, out *lightcurve.Spectrum) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "@") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 4 {
			return fmt.Errorf("snls balland09 %s: malformed row %q", path, line)
		}
		wave, err1 := strconv.ParseFloat(fields[1], 64)
		flux, err2 := strconv.ParseFloat(fields[2], 64)
		fluxErr, err3 := strconv.ParseFloat(fields[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return fmt.Errorf("snls balland09 %s: malformed row %q", path, line)
		}

		out.Obs = append(out.Obs, lightcurve.SpecObs{
			Wavelength: wave,
			Flux:       flux,
			FluxErr:    fluxErr,
			Segment:    segment,
		})
	}
	return scanner.Err()
}

// AvailableTables returns the IDs of the locally available paper tables.
func (r *Balland09) AvailableTables() ([]string, error) {
	return release.CDSTableIDs(r.tableDir)
}

// LoadTable loads a CDS paper table by ID.
func (r *Balland09) LoadTable(id string) (*release.Table, error) {
	return release.LoadCDSTable(&r.cache, r.tableDir, id)
}

// RegisterFilters returns ErrNoFilters; Balland09 is a spectroscopic
// release.
func (r *Balland09) RegisterFilters(force bool) error {
	return fmt.Errorf("snls balland09: %w", release.ErrNoFilters)
}

// Download fetches the spectra bundle and the CDS paper tables.
func (r *Balland09) Download(ctx context.Context, opts fetch.Options) error {
	tableOpts := opts
	tableOpts.SkipExists = r.tableDir
	if err := fetch.Tarball(ctx, r.tableURL, r.tableDir, tableOpts); err != nil {
		return err
	}

	spectraOpts := opts
	spectraOpts.SkipExists = r.spectraDir
	return fetch.Tarball(ctx, r.spectraURL, r.dataDir, spectraOpts)
}

// Delete removes all locally cached Balland09 data.
func (r *Balland09) Delete() error {
	return release.DeleteDir(r.dataDir)
}
