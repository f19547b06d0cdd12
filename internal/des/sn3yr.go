package des

import (
	"bufio"
	"context"
	"fmt"
	"log"
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

// sn3yrBands maps package-standard band names to the published DECam
// transmission files.
var sn3yrBands = []struct {
	Name       string
	FilterFile string
}{
	{"des_sn3yr_g", "DECam_g.dat"},
	{"des_sn3yr_r", "DECam_r.dat"},
	{"des_sn3yr_i", "DECam_i.dat"},
	{"des_sn3yr_z", "DECam_z.dat"},
	{"des_sn3yr_y", "DECam_Y.dat"},
}

// Fluxes in the photometry files are calibrated to a common zeropoint.
const sn3yrZeroPoint = 27.5

// SN3YR is the Dark Energy Survey release of griz light curves for 207
// spectroscopically confirmed Type Ia supernovae from the first three
// observing seasons, together with the BBC fit results used in the
// cosmological analysis.
type SN3YR struct {
	dataDir       string
	filterDir     string
	photometryDir string
	fitsDir       string

	cache release.TableCache
}

// NewSN3YR returns the DES SN3YR release rooted in the configured data
// directory.
func NewSN3YR(cfg *common.Config) *SN3YR {
	dataDir := cfg.ReleaseDir(SurveyAbbrev, "SN3YR")
	return &SN3YR{
		dataDir:       dataDir,
		filterDir:     filepath.Join(dataDir, "01-FILTERS", "DECam"),
		photometryDir: filepath.Join(dataDir, "02-DATA_PHOTOMETRY", "DES-SN3YR_DES"),
		fitsDir:       filepath.Join(dataDir, "04-BBCFITS"),
	}
}

func (r *SN3YR) Survey() string   { return SurveyAbbrev }
func (r *SN3YR) Name() string     { return "SN3YR" }
func (r *SN3YR) DataType() string { return release.Photometric }

// AvailableIDs returns the object IDs named by the release's LIST index.
func (r *SN3YR) AvailableIDs() ([]string, error) {
	if err := release.RequireDirs(r.photometryDir); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(r.photometryDir, "DES-SN3YR_DES.LIST"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, "des_"), ".dat")
		ids = append(ids, strings.TrimLeft(id, "0"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Photometry returns the normalized light curve for an object. Fluxes
// are already calibrated; rows are taken as published.
func (r *SN3YR) Photometry(objID string) (*lightcurve.Photometry, error) {
	ids, err := r.AvailableIDs()
	if err != nil {
		return nil, err
	}
	if err := release.ValidateID(objID, ids); err != nil {
		return nil, err
	}

	n, err := strconv.Atoi(objID)
	if err != nil {
		return nil, fmt.Errorf("des sn3yr: %w: %q", release.ErrInvalidObjID, objID)
	}

	path := filepath.Join(r.photometryDir, fmt.Sprintf("des_%08d.dat", n))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := &lightcurve.Photometry{Meta: lightcurve.Meta{ObjID: objID}}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		switch fields[0] {
		case "RA:":
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("des sn3yr %s: bad ra: %w", path, err)
			}
			out.Meta.RA = lightcurve.Float(v)
		case "DECL:":
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("des sn3yr %s: bad dec: %w", path, err)
			}
			out.Meta.Dec = lightcurve.Float(v)
		case "REDSHIFT_FINAL:":
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("des sn3yr %s: bad redshift: %w", path, err)
			}
			out.Meta.Z = lightcurve.Float(v)
			if len(fields) >= 4 {
				if e, err := strconv.ParseFloat(fields[3], 64); err == nil {
					out.Meta.ZErr = lightcurve.Float(e)
				}
			}
		case "OBS:":
			if len(fields) < 6 {
				return nil, fmt.Errorf("des sn3yr %s: malformed row %q", path, scanner.Text())
			}
			mjd, err1 := strconv.ParseFloat(fields[1], 64)
			flux, err2 := strconv.ParseFloat(fields[4], 64)
			fluxErr, err3 := strconv.ParseFloat(fields[5], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, fmt.Errorf("des sn3yr %s: malformed row %q", path, scanner.Text())
			}

			out.Obs = append(out.Obs, lightcurve.Obs{
				Time:    units.EnsureJD(mjd),
				Band:    "des_sn3yr_" + strings.ToLower(fields[2]),
				Flux:    flux,
				FluxErr: fluxErr,
				ZP:      sn3yrZeroPoint,
				ZPSys:   "ab",
			})
		}
	}
	return out, scanner.Err()
}

// sn3yrTables are the published BBC fit result files, keyed by the
// intrinsic-scatter model used in the fit.
var sn3yrTables = map[string]string{
	"SALT2mu_DES+LOWZ_C11.FITRES": "BBC fit results, C11 intrinsic scatter model",
	"SALT2mu_DES+LOWZ_G10.FITRES": "BBC fit results, G10 intrinsic scatter model",
}

// AvailableTables returns the IDs of the locally available fit tables.
func (r *SN3YR) AvailableTables() ([]string, error) {
	if err := release.RequireDirs(r.fitsDir); err != nil {
		return nil, err
	}

	var ids []string
	for id := range sn3yrTables {
		if _, err := os.Stat(filepath.Join(r.fitsDir, id)); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadTable loads a FITRES fit table by file name.
func (r *SN3YR) LoadTable(id string) (*release.Table, error) {
	desc, ok := sn3yrTables[id]
	if !ok {
		return nil, fmt.Errorf("des sn3yr: %w: %q", release.ErrInvalidTableID, id)
	}
	return r.cache.Load(id, func() (*release.Table, error) {
		return readFITRES(filepath.Join(r.fitsDir, id), id, desc)
	})
}

// readFITRES parses a SNANA FITRES file: a VARNAMES: line naming the
// columns followed by one SN: row per object.
func readFITRES(path, id, desc string) (*release.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tbl := &release.Table{ID: id, Description: desc}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "VARNAMES:":
			tbl.Columns = fields[1:]
		case "SN:":
			tbl.Rows = append(tbl.Rows, fields[1:])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if tbl.Columns == nil {
		return nil, fmt.Errorf("fitres %s: no VARNAMES line", path)
	}
	return tbl, nil
}

// RegisterFilters registers the DECam transmission curves with the
// bandpass registry.
func (r *SN3YR) RegisterFilters(force bool) error {
	if err := release.RequireDirs(r.filterDir); err != nil {
		return err
	}

	for _, b := range sn3yrBands {
		path := filepath.Join(r.filterDir, b.FilterFile)
		if err := bandpass.RegisterFile(path, b.Name, force); err != nil {
			return err
		}
	}
	return nil
}

// Download fetches the filter, photometry and fit-result bundles.
func (r *SN3YR) Download(ctx context.Context, opts fetch.Options) error {
	bundles := []struct {
		file string
		skip string
	}{
		{"01-FILTERS.tar.gz", filepath.Join(r.dataDir, "01-FILTERS")},
		{"02-DATA_PHOTOMETRY.tar.gz", filepath.Join(r.dataDir, "02-DATA_PHOTOMETRY")},
		{"04-BBCFITS.tar.gz", r.fitsDir},
	}

	for _, b := range bundles {
		url := desBaseURL + b.file
		if !fetch.CheckURL(ctx, url, opts.Timeout) {
			log.Printf("Skipping unreachable bundle %s", url)
			continue
		}
		bundleOpts := opts
		bundleOpts.SkipExists = b.skip
		if err := fetch.Tarball(ctx, url, r.dataDir, bundleOpts); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes all locally cached SN3YR data.
func (r *SN3YR) Delete() error {
	return release.DeleteDir(r.dataDir)
}
