package csp

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"sndata/internal/bandpass"
	"sndata/internal/common"
	"sndata/internal/fetch"
	"sndata/internal/lightcurve"
	"sndata/internal/release"
)

// dr3Bands maps package-standard band names to published zeropoints and
// filter transmission files.
var dr3Bands = []struct {
	Name       string
	ZeroPoint  float64
	FilterFile string
}{
	{"csp_dr3_u", 12.986, "u_tel_ccd_atm_ext_1.2.dat"},
	{"csp_dr3_g", 15.111, "g_tel_ccd_atm_ext_1.2.dat"},
	{"csp_dr3_r", 14.902, "r_tel_ccd_atm_ext_1.2.dat"},
	{"csp_dr3_i", 14.545, "i_tel_ccd_atm_ext_1.2.dat"},
	{"csp_dr3_B", 14.328, "B_tel_ccd_atm_ext_1.2.dat"},
	{"csp_dr3_V", 14.439, "V_LC9844_tel_ccd_atm_ext_1.2.dat"},
	{"csp_dr3_V0", 14.437, "V_LC3014_tel_ccd_atm_ext_1.2.dat"},
	{"csp_dr3_V1", 14.393, "V_LC3009_tel_ccd_atm_ext_1.2.dat"},
	{"csp_dr3_Y", 13.921, "Y_SWO_TAM_scan_atm.dat"},
	{"csp_dr3_J", 13.836, "J_SWO_TAM_atm.dat"},
	{"csp_dr3_Jrc2", 13.836, "J_old_retrocam_swope_atm.dat"},
	{"csp_dr3_H", 13.510, "H_SWO_TAM_scan_atm.dat"},
	{"csp_dr3_Ydw", 13.770, "Y_texas_DUP_atm.dat"},
	{"csp_dr3_Jdw", 13.866, "J_texas_DUP_atm.dat"},
	{"csp_dr3_Hdw", 13.707, "H_texas_DUP_atm.dat"},
}

// DR3 is the third photometric data release of the Carnegie Supernova
// Project: optical and near-infrared light curves of 134 low-redshift
// Type Ia supernovae in SNooPy format.
type DR3 struct {
	dataDir       string
	photometryDir string
	tableDir      string
	filterDir     string

	photometryURL string
	tableURL      string

	cache release.TableCache
}

// NewDR3 returns the CSP DR3 release rooted in the configured data
// directory.
func NewDR3(cfg *common.Config) *DR3 {
	dataDir := cfg.ReleaseDir(SurveyAbbrev, "DR3")
	return &DR3{
		dataDir:       dataDir,
		photometryDir: filepath.Join(dataDir, "DR3"),
		tableDir:      filepath.Join(dataDir, "tables"),
		filterDir:     filepath.Join(dataDir, "filters"),
		photometryURL: cspDataURL + "CSP_Photometry_DR3.tgz",
		tableURL:      "http://cdsarc.u-strasbg.fr/viz-bin/nph-Cat/tar.gz?J/AJ/154/211",
	}
}

func (r *DR3) Survey() string   { return SurveyAbbrev }
func (r *DR3) Name() string     { return "DR3" }
func (r *DR3) DataType() string { return release.Photometric }

// AvailableIDs returns the object IDs with locally available SNooPy
// files ("SN2004ef_snpy.txt" -> "2004ef").
func (r *DR3) AvailableIDs() ([]string, error) {
	if err := release.RequireDirs(r.photometryDir); err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(r.photometryDir, "SN*_snpy.txt"))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, f := range files {
		id := strings.TrimPrefix(strings.SplitN(filepath.Base(f), "_", 2)[0], "SN")
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Photometry returns the normalized light curve for an object. SNooPy
// magnitudes are converted to fluxes against the published per-band
// zeropoints in the AB system.
func (r *DR3) Photometry(objID string) (*lightcurve.Photometry, error) {
	ids, err := r.AvailableIDs()
	if err != nil {
		return nil, err
	}
	if err := release.ValidateID(objID, ids); err != nil {
		return nil, err
	}

	path := filepath.Join(r.photometryDir, fmt.Sprintf("SN%s_snpy.txt", objID))
	snpy, err := parseSnoopy(path)
	if err != nil {
		return nil, err
	}

	out := &lightcurve.Photometry{Meta: snpy.Meta}
	out.Meta.ObjID = objID

	for _, obs := range snpy.Obs {
		band := "csp_dr3_" + obs.Band
		zp, ok := dr3ZeroPoint(band)
		if !ok {
			return nil, fmt.Errorf("csp dr3: unknown band %q in %s", obs.Band, path)
		}

		flux, fluxErr := lightcurve.FluxFromMag(obs.Mag, obs.MagErr, zp)
		out.Obs = append(out.Obs, lightcurve.Obs{
			Time:    obs.Time,
			Band:    band,
			Flux:    flux,
			FluxErr: fluxErr,
			ZP:      zp,
			ZPSys:   "ab",
		})
	}
	return out, nil
}

func dr3ZeroPoint(band string) (float64, bool) {
	for _, b := range dr3Bands {
		if b.Name == band {
			return b.ZeroPoint, true
		}
	}
	return 0, false
}

// AvailableTables returns the IDs of the locally available paper tables.
func (r *DR3) AvailableTables() ([]string, error) {
	return release.CDSTableIDs(r.tableDir)
}

// LoadTable loads a CDS paper table by ID.
func (r *DR3) LoadTable(id string) (*release.Table, error) {
	return release.LoadCDSTable(&r.cache, r.tableDir, id)
}

// RegisterFilters registers the published transmission curves with the
// bandpass registry.
func (r *DR3) RegisterFilters(force bool) error {
	if err := release.RequireDirs(r.filterDir); err != nil {
		return err
	}

	for _, b := range dr3Bands {
		path := filepath.Join(r.filterDir, b.FilterFile)
		if err := bandpass.RegisterFile(path, b.Name, force); err != nil {
			return err
		}
	}
	return nil
}

// Download fetches the SNooPy photometry bundle, the CDS paper tables,
// and the filter transmission curves.
func (r *DR3) Download(ctx context.Context, opts fetch.Options) error {
	tableOpts := opts
	tableOpts.SkipExists = r.tableDir
	if err := fetch.Tarball(ctx, r.tableURL, r.tableDir, tableOpts); err != nil {
		return err
	}

	photOpts := opts
	photOpts.SkipExists = r.photometryDir
	if err := fetch.Tarball(ctx, r.photometryURL, r.dataDir, photOpts); err != nil {
		return err
	}

	for _, b := range dr3Bands {
		url := cspDataURL + "filters/" + b.FilterFile
		if !fetch.CheckURL(ctx, url, opts.Timeout) {
			log.Printf("Skipping unreachable filter %s", url)
			continue
		}
		dest := filepath.Join(r.filterDir, b.FilterFile)
		if err := fetch.File(ctx, url, dest, opts); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes all locally cached DR3 data.
func (r *DR3) Delete() error {
	return release.DeleteDir(r.dataDir)
}
