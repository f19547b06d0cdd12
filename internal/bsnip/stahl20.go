package bsnip

import (
	"bufio"
	"context"
	"encoding/csv"
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

// metaTableID is the only published table of the release: the CSV
// summary of every observed spectrum.
const metaTableID = "meta_data"

// Stahl20 is the second BSNIP data release: 637 low-redshift optical
// spectra collected between 2009 and 2018, 626 of which belong to
// unambiguously classified Type Ia supernovae (Stahl et al. 2020).
// The release files carry no coordinates or redshifts.
type Stahl20 struct {
	dataDir    string
	spectraDir string
	tableDir   string

	cache release.TableCache
}

// NewStahl20 returns the BSNIP Stahl20 release rooted in the configured
// data directory.
func NewStahl20(cfg *common.Config) *Stahl20 {
	dataDir := cfg.ReleaseDir(SurveyAbbrev, "Stahl20")
	return &Stahl20{
		dataDir:    dataDir,
		spectraDir: filepath.Join(dataDir, "spectra"),
		tableDir:   filepath.Join(dataDir, "tables"),
	}
}

func (r *Stahl20) Survey() string   { return SurveyAbbrev }
func (r *Stahl20) Name() string     { return "Stahl20" }
func (r *Stahl20) DataType() string { return release.Spectroscopic }

// AvailableIDs returns the unique object IDs in the meta data table.
func (r *Stahl20) AvailableIDs() ([]string, error) {
	tbl, err := r.LoadTable(metaTableID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, id := range tbl.Column("ObjName") {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Spectrum merges the object's spectra into one table ordered by
// wavelength. Observation times and instruments come from the meta data
// table; the spectrum files carry wavelength, flux and sometimes a flux
// error column.
func (r *Stahl20) Spectrum(objID string) (*lightcurve.Spectrum, error) {
	ids, err := r.AvailableIDs()
	if err != nil {
		return nil, err
	}
	if err := release.ValidateID(objID, ids); err != nil {
		return nil, err
	}

	tbl, err := r.LoadTable(metaTableID)
	if err != nil {
		return nil, err
	}

	col := func(name string) int {
		for i, c := range tbl.Columns {
			if c == name {
				return i
			}
		}
		return -1
	}
	objIdx, fileIdx, dateIdx, instIdx := col("ObjName"), col("Filename"), col("UT_Date"), col("Instrument")
	if objIdx < 0 || fileIdx < 0 || dateIdx < 0 || instIdx < 0 {
		return nil, fmt.Errorf("bsnip stahl20: meta data table is missing a required column")
	}

	out := &lightcurve.Spectrum{Meta: lightcurve.Meta{ObjID: objID}}

	for _, row := range tbl.Rows {
		if row[objIdx] != objID {
			continue
		}

		date, err := strconv.ParseFloat(row[dateIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("bsnip stahl20: bad UT date %q: %w", row[dateIdx], err)
		}
		jd, err := units.ToJD(date, units.FormatUT)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(r.spectraDir, row[fileIdx])
		if err := readStahl20File(path, jd, row[instIdx], out); err != nil {
			return nil, err
		}
	}

	sort.Slice(out.Obs, func(i, j int) bool {
		return out.Obs[i].Wavelength < out.Obs[j].Wavelength
	})
	return out, nil
}

// readStahl20File appends a spectrum file's rows. Files carry either
// two or three whitespace delimited columns.
func readStahl20File(path string, jd float64, instrument string, out *lightcurve.Spectrum) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("bsnip stahl20 %s: malformed row %q", path, line)
		}
		wave, err1 := strconv.ParseFloat(fields[0], 64)
		flux, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("bsnip stahl20 %s: malformed row %q", path, line)
		}

		obs := lightcurve.SpecObs{
			Time:       jd,
			Wavelength: wave,
			Flux:       flux,
			Instrument: instrument,
		}
		if len(fields) >= 3 {
			if fluxErr, err := strconv.ParseFloat(fields[2], 64); err == nil {
				obs.FluxErr = fluxErr
			}
		}
		out.Obs = append(out.Obs, obs)
	}
	return scanner.Err()
}

// AvailableTables returns the IDs of the published tables.
func (r *Stahl20) AvailableTables() ([]string, error) {
	if err := release.RequireDirs(filepath.Join(r.tableDir, metaTableID+".csv")); err != nil {
		return nil, err
	}
	return []string{metaTableID}, nil
}

// LoadTable loads a published table by ID; only the meta data summary
// is available.
func (r *Stahl20) LoadTable(id string) (*release.Table, error) {
	if id != metaTableID {
		return nil, fmt.Errorf("bsnip stahl20: table %q: %w", id, release.ErrInvalidTableID)
	}
	path := filepath.Join(r.tableDir, metaTableID+".csv")
	if err := release.RequireDirs(path); err != nil {
		return nil, err
	}

	return r.cache.Load(id, func() (*release.Table, error) {
		return readMetaTable(path)
	})
}

// readMetaTable parses the CSV spectrum summary: a header row naming
// the columns followed by one row per spectrum.
func readMetaTable(path string) (*release.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("bsnip stahl20 %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("bsnip stahl20 %s: empty meta data table", path)
	}

	return &release.Table{
		ID:          metaTableID,
		Description: "Summary of observed spectra",
		Columns:     records[0],
		Rows:        records[1:],
	}, nil
}

// RegisterFilters returns ErrNoFilters; Stahl20 is a spectroscopic
// release.
func (r *Stahl20) RegisterFilters(force bool) error {
	return fmt.Errorf("bsnip stahl20: %w", release.ErrNoFilters)
}

// Download fetches the spectrum summary and the spectra bundle.
func (r *Stahl20) Download(ctx context.Context, opts fetch.Options) error {
	dest := filepath.Join(r.tableDir, metaTableID+".csv")
	if err := fetch.File(ctx, bsnipBaseURL+"spectra.csv", dest, opts); err != nil {
		return err
	}

	spectraOpts := opts
	spectraOpts.SkipExists = r.spectraDir
	return fetch.Tarball(ctx, bsnipBaseURL+"spectra.tar.gz", r.dataDir, spectraOpts)
}

// Delete removes all locally cached Stahl20 data.
func (r *Stahl20) Delete() error {
	return release.DeleteDir(r.dataDir)
}
