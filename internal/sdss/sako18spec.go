package sdss

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
	"sndata/internal/fits"
	"sndata/internal/lightcurve"
	"sndata/internal/release"
)

// masterTableID is the only published table of the spectroscopic
// release: the master summary of every observed spectrum.
const masterTableID = "master"

// Sako18Spec is the spectroscopic portion of the SDSS-II Supernova
// Survey data release (Sako et al. 2018): optical spectra of transient
// sources discovered through repeat imaging of Stripe 82.
type Sako18Spec struct {
	dataDir    string
	spectraDir string
	masterPath string

	cache release.TableCache
}

// NewSako18Spec returns the SDSS Sako18Spec release rooted in the
// configured data directory.
func NewSako18Spec(cfg *common.Config) *Sako18Spec {
	dataDir := cfg.ReleaseDir(SurveyAbbrev, "Sako18Spec")
	return &Sako18Spec{
		dataDir:    dataDir,
		spectraDir: filepath.Join(dataDir, "Spectra"),
		masterPath: filepath.Join(dataDir, "spectroscopy_table.txt"),
	}
}

func (r *Sako18Spec) Survey() string   { return SurveyAbbrev }
func (r *Sako18Spec) Name() string     { return "Sako18Spec" }
func (r *Sako18Spec) DataType() string { return release.Spectroscopic }

// AvailableIDs returns the object IDs listed in the master table. The
// table carries one row per spectrum, so objects observed more than
// once repeat their CID.
func (r *Sako18Spec) AvailableIDs() ([]string, error) {
	tbl, err := r.LoadTable(masterTableID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, id := range tbl.Column("CID") {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Spectrum returns the spectrum for an object. The FITS files store one
// (wavelength, flux) pair per image row; object type and redshifts come
// from the master table.
func (r *Sako18Spec) Spectrum(objID string) (*lightcurve.Spectrum, error) {
	tbl, err := r.LoadTable(masterTableID)
	if err != nil {
		return nil, err
	}

	record, err := masterRecord(tbl, objID)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(r.spectraDir, fmt.Sprintf("gal%s-%s.fits", objID, record["SID"]))
	img, err := fits.ReadImage(path)
	if err != nil {
		return nil, err
	}
	rows, err := img.Matrix()
	if err != nil {
		return nil, err
	}

	out := &lightcurve.Spectrum{
		Meta: lightcurve.Meta{
			ObjID: objID,
			Extra: map[string]string{
				"type":  record["Type"],
				"z_gal": record["zGal"],
			},
		},
	}
	if z, err := strconv.ParseFloat(record["zSN"], 64); err == nil {
		out.Meta.Z = lightcurve.Float(z)
	}

	for _, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("sdss sako18spec %s: image row has %d values", path, len(row))
		}
		out.Obs = append(out.Obs, lightcurve.SpecObs{
			Wavelength: row[0],
			Flux:       row[1],
		})
	}
	return out, nil
}

// masterRecord returns the master table row for an object keyed by
// column name.
func masterRecord(tbl *release.Table, objID string) (map[string]string, error) {
	cidIdx := -1
	for i, col := range tbl.Columns {
		if col == "CID" {
			cidIdx = i
			break
		}
	}
	if cidIdx < 0 {
		return nil, fmt.Errorf("sdss sako18spec: master table is missing the CID column")
	}

	for _, row := range tbl.Rows {
		if cidIdx >= len(row) || row[cidIdx] != objID {
			continue
		}
		record := make(map[string]string, len(tbl.Columns))
		for i, col := range tbl.Columns {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		return record, nil
	}
	return nil, fmt.Errorf("sdss sako18spec: %q: %w", objID, release.ErrInvalidObjID)
}

// AvailableTables returns the IDs of the published tables.
func (r *Sako18Spec) AvailableTables() ([]string, error) {
	if err := release.RequireDirs(r.masterPath); err != nil {
		return nil, err
	}
	return []string{masterTableID}, nil
}

// LoadTable loads a published table by ID; only the master summary
// table is available.
func (r *Sako18Spec) LoadTable(id string) (*release.Table, error) {
	if id != masterTableID {
		return nil, fmt.Errorf("sdss sako18spec: table %q: %w", id, release.ErrInvalidTableID)
	}
	if err := release.RequireDirs(r.masterPath); err != nil {
		return nil, err
	}

	return r.cache.Load(id, func() (*release.Table, error) {
		return readMasterTable(r.masterPath)
	})
}

// readMasterTable parses the whitespace delimited master summary: a
// header row naming the columns followed by one row per spectrum.
func readMasterTable(path string) (*release.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tbl := &release.Table{
		ID:          masterTableID,
		Description: "Master summary of observed spectra",
	}

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
		return nil, fmt.Errorf("sdss sako18spec %s: empty master table", path)
	}
	return tbl, nil
}

// RegisterFilters returns ErrNoFilters; this is a spectroscopic
// release. See the photometric Sako et al. 2018 release for filters.
func (r *Sako18Spec) RegisterFilters(force bool) error {
	return fmt.Errorf("sdss sako18spec: %w", release.ErrNoFilters)
}

// Download fetches the master table and the spectra bundle.
func (r *Sako18Spec) Download(ctx context.Context, opts fetch.Options) error {
	url := sdssPaperURL + "spectroscopy_table.txt"
	if err := fetch.File(ctx, url, r.masterPath, opts); err != nil {
		return err
	}

	spectraOpts := opts
	spectraOpts.SkipExists = r.spectraDir
	return fetch.Tarball(ctx, sdssPaperURL+"Spectra.tar.gz", r.dataDir, spectraOpts)
}

// Delete removes all locally cached Sako18Spec data.
func (r *Sako18Spec) Delete() error {
	return release.DeleteDir(r.dataDir)
}
