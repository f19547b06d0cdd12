package loss

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"sndata/internal/bandpass"
	"sndata/internal/common"
	"sndata/internal/fetch"
	"sndata/internal/lightcurve"
	"sndata/internal/release"
	"sndata/internal/units"
)

// maskValue marks missing measurements in the published tables.
const maskValue = "99.999"

// stahl19Filters are the published per-telescope transmission curves.
var stahl19Filters = []string{
	"B_kait3.txt", "B_kait4.txt", "B_nickel1.txt", "B_nickel2.txt",
	"I_kait3.txt", "I_kait4.txt", "I_nickel1.txt", "I_nickel2.txt",
	"R_kait3.txt", "R_kait4.txt", "R_nickel1.txt", "R_nickel2.txt",
	"V_kait3.txt", "V_kait4.txt", "V_nickel1.txt", "V_nickel2.txt",
}

// Stahl19 is the second LOSS data release: BVRI light curves of 93
// Type Ia supernovae observed with KAIT and the Nickel telescope
// between 2005 and 2018 (Stahl et al. 2019).
type Stahl19 struct {
	dataDir   string
	tableDir  string
	filterDir string

	cache release.TableCache
}

// NewStahl19 returns the LOSS Stahl19 release rooted in the configured
// data directory.
func NewStahl19(cfg *common.Config) *Stahl19 {
	dataDir := cfg.ReleaseDir(SurveyAbbrev, "Stahl19")
	return &Stahl19{
		dataDir:   dataDir,
		tableDir:  filepath.Join(dataDir, "tables"),
		filterDir: filepath.Join(dataDir, "transmission_curves"),
	}
}

func (r *Stahl19) Survey() string   { return SurveyAbbrev }
func (r *Stahl19) Name() string     { return "Stahl19" }
func (r *Stahl19) DataType() string { return release.Photometric }

// AvailableIDs returns the unique object IDs in the photometry table.
func (r *Stahl19) AvailableIDs() ([]string, error) {
	tbl, err := r.LoadTable("2")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, id := range tbl.Column("SN") {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Photometry returns the normalized light curve for an object. Each
// published row carries one epoch of BVRI magnitudes; masked bands are
// dropped and the rest converted to fluxes against a zeropoint of 0.
func (r *Stahl19) Photometry(objID string) (*lightcurve.Photometry, error) {
	ids, err := r.AvailableIDs()
	if err != nil {
		return nil, err
	}
	if err := release.ValidateID(objID, ids); err != nil {
		return nil, err
	}

	tbl, err := r.LoadTable("2")
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
	snIdx, mjdIdx := col("SN"), col("MJD")
	if snIdx < 0 || mjdIdx < 0 {
		return nil, fmt.Errorf("loss stahl19: photometry table is missing SN or MJD column")
	}

	out := &lightcurve.Photometry{Meta: lightcurve.Meta{ObjID: objID}}

	for _, row := range tbl.Rows {
		if row[snIdx] != objID {
			continue
		}

		mjd, err := strconv.ParseFloat(row[mjdIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("loss stahl19: bad MJD %q", row[mjdIdx])
		}
		jd := units.EnsureJD(mjd)

		for _, band := range []string{"B", "V", "R", "I"} {
			magIdx, errIdx := col(band), col("E"+band)
			if magIdx < 0 || errIdx < 0 {
				continue
			}
			if row[magIdx] == maskValue || row[errIdx] == maskValue {
				continue
			}

			mag, err1 := strconv.ParseFloat(row[magIdx], 64)
			magErr, err2 := strconv.ParseFloat(row[errIdx], 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("loss stahl19: bad %s magnitude for %s", band, objID)
			}

			flux, fluxErr := lightcurve.FluxFromMag(mag, magErr, 0)
			out.Obs = append(out.Obs, lightcurve.Obs{
				Time:    jd,
				Band:    "loss_stahl19_" + band,
				Flux:    flux,
				FluxErr: fluxErr,
				ZP:      0,
				ZPSys:   "AB",
			})
		}
	}
	return out, nil
}

// AvailableTables returns the IDs of the locally available tables
// ("TableB3.txt" -> "B3").
func (r *Stahl19) AvailableTables() ([]string, error) {
	if err := release.RequireDirs(r.tableDir); err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(r.tableDir, "Table*.txt"))
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), ".txt")
		ids = append(ids, strings.TrimPrefix(name, "Table"))
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadTable loads a published table by ID. The tables are whitespace
// delimited ascii with a header row; the sentinel 99.999 marks missing
// values and is kept as published.
func (r *Stahl19) LoadTable(id string) (*release.Table, error) {
	ids, err := r.AvailableTables()
	if err != nil {
		return nil, err
	}

	known := false
	for _, have := range ids {
		if have == id {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("loss stahl19: table %q: %w", id, release.ErrInvalidTableID)
	}

	return r.cache.Load(id, func() (*release.Table, error) {
		return readWhitespaceTable(filepath.Join(r.tableDir, "Table"+id+".txt"), id)
	})
}

func readWhitespaceTable(path, id string) (*release.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tbl := &release.Table{ID: id}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if tbl.Columns == nil {
			tbl.Columns = fields
			continue
		}
		tbl.Rows = append(tbl.Rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if tbl.Columns == nil {
		return nil, fmt.Errorf("loss stahl19 %s: empty table", path)
	}
	return tbl, nil
}

// RegisterFilters registers the KAIT and Nickel transmission curves
// with the bandpass registry.
func (r *Stahl19) RegisterFilters(force bool) error {
	if err := release.RequireDirs(r.filterDir); err != nil {
		return err
	}

	for _, file := range stahl19Filters {
		name := "loss_stahl19_" + strings.TrimSuffix(file, ".txt")
		path := filepath.Join(r.filterDir, file)
		if err := bandpass.RegisterFile(path, name, force); err != nil {
			return err
		}
	}
	return nil
}

// Download fetches the published tables and the filter transmission
// curves.
func (r *Stahl19) Download(ctx context.Context, opts fetch.Options) error {
	for _, name := range []string{"Table2.txt", "TableB3.txt"} {
		dest := filepath.Join(r.tableDir, name)
		if err := fetch.File(ctx, lossBaseURL+name, dest, opts); err != nil {
			return err
		}
	}

	filterOpts := opts
	filterOpts.SkipExists = r.filterDir
	return fetch.Tarball(ctx, lossBaseURL+"transmission_curves.tar.gz", r.dataDir, filterOpts)
}

// Delete removes all locally cached Stahl19 data.
func (r *Stahl19) Delete() error {
	return release.DeleteDir(r.dataDir)
}
