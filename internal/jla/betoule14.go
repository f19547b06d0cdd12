package jla

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
	"sndata/internal/fits"
	"sndata/internal/lightcurve"
	"sndata/internal/release"
	"sndata/internal/units"
)

// covarianceTableID is the binned distance modulus covariance matrix,
// published as a FITS image alongside the ascii paper tables.
const covarianceTableID = "f2"

// Betoule14 is the joint SDSS-II/SNLS compilation of 740 Type Ia
// supernova light curves used in the JLA cosmological analysis
// (Betoule et al. 2014).
type Betoule14 struct {
	dataDir       string
	photometryDir string
	tableDir      string
	filterPath    string

	photometryURL string
	tableURL      string
	filterURL     string

	cache release.TableCache
}

// NewBetoule14 returns the JLA Betoule14 release rooted in the
// configured data directory.
func NewBetoule14(cfg *common.Config) *Betoule14 {
	dataDir := cfg.ReleaseDir(SurveyAbbrev, "Betoule14")
	return &Betoule14{
		dataDir:       dataDir,
		photometryDir: filepath.Join(dataDir, "jla_light_curves"),
		tableDir:      filepath.Join(dataDir, "tables"),
		filterPath:    filepath.Join(dataDir, "cfht_filters.txt"),
		photometryURL: "http://supernovae.in2p3.fr/sdss_snls_jla/jla_light_curves.tgz",
		tableURL:      "http://cdsarc.u-strasbg.fr/viz-bin/nph-Cat/tar.gz?J/A+A/568/A22",
		filterURL:     "http://www.cfht.hawaii.edu/Instruments/Imaging/Megacam/data.MegaPrime/MegaCam_Filters_data_SAGEM.txt",
	}
}

func (r *Betoule14) Survey() string   { return SurveyAbbrev }
func (r *Betoule14) Name() string     { return "Betoule14" }
func (r *Betoule14) DataType() string { return release.Photometric }

// AvailableIDs returns the object IDs with locally available light
// curve files ("lc-03D1au.list" -> "03D1au").
func (r *Betoule14) AvailableIDs() ([]string, error) {
	if err := release.RequireDirs(r.photometryDir); err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(r.photometryDir, "*.list"))
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, f := range files {
		id := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(f), "lc-"), ".list")
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Photometry returns the normalized light curve for an object. The
// published files carry "@KEY value" metadata lines followed by rows of
// Date Flux Fluxerr ZP Filter MagSys; zeropoints and magnitude systems
// are taken from the file.
func (r *Betoule14) Photometry(objID string) (*lightcurve.Photometry, error) {
	ids, err := r.AvailableIDs()
	if err != nil {
		return nil, err
	}
	if err := release.ValidateID(objID, ids); err != nil {
		return nil, err
	}

	path := filepath.Join(r.photometryDir, "lc-"+objID+".list")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := &lightcurve.Photometry{
		Meta: lightcurve.Meta{ObjID: objID, Extra: make(map[string]string)},
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "@") {
			fields := strings.Fields(strings.TrimPrefix(line, "@"))
			if len(fields) < 2 {
				continue
			}
			key, value := fields[0], fields[1]

			switch key {
			case "RA":
				if v, err := strconv.ParseFloat(value, 64); err == nil {
					out.Meta.RA = lightcurve.Float(v)
				}
			case "DEC":
				if v, err := strconv.ParseFloat(value, 64); err == nil {
					out.Meta.Dec = lightcurve.Float(v)
				}
			case "Z_HELIO":
				if v, err := strconv.ParseFloat(value, 64); err == nil {
					out.Meta.Z = lightcurve.Float(v)
				}
			default:
				out.Meta.Extra[key] = value
			}
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 6 {
			return nil, fmt.Errorf("jla betoule14 %s: malformed row %q", path, line)
		}
		date, err1 := strconv.ParseFloat(fields[0], 64)
		flux, err2 := strconv.ParseFloat(fields[1], 64)
		fluxErr, err3 := strconv.ParseFloat(fields[2], 64)
		zp, err4 := strconv.ParseFloat(fields[3], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, fmt.Errorf("jla betoule14 %s: malformed row %q", path, line)
		}

		out.Obs = append(out.Obs, lightcurve.Obs{
			Time:    units.EnsureJD(date),
			Band:    "jla_betoule14_" + fields[4],
			Flux:    flux,
			FluxErr: fluxErr,
			ZP:      zp,
			ZPSys:   fields[5],
		})
	}
	return out, scanner.Err()
}

// AvailableTables returns the IDs of the locally available paper
// tables, including the FITS covariance matrix when present.
func (r *Betoule14) AvailableTables() ([]string, error) {
	ids, err := release.CDSTableIDs(r.tableDir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(r.tableDir, "tablef2.fit")); err == nil {
		ids = append(ids, covarianceTableID)
		sort.Strings(ids)
	}
	return ids, nil
}

// LoadTable loads a paper table by ID. The covariance matrix table is
// numeric; its values are returned in Matrix rather than Rows.
func (r *Betoule14) LoadTable(id string) (*release.Table, error) {
	if id != covarianceTableID {
		return release.LoadCDSTable(&r.cache, r.tableDir, id)
	}

	return r.cache.Load(id, func() (*release.Table, error) {
		img, err := fits.ReadImage(filepath.Join(r.tableDir, "tablef2.fit"))
		if err != nil {
			return nil, err
		}
		matrix, err := img.Matrix()
		if err != nil {
			return nil, err
		}
		return &release.Table{
			ID:          id,
			Description: "Covariance matrix of the binned distance modulus",
			Matrix:      matrix,
		}, nil
	})
}

// RegisterFilters registers the MegaCam transmission curves with the
// bandpass registry. Only the MEGACAMPSF bands have a published curve;
// the compiled low-z and SDSS bands are distributed elsewhere.
func (r *Betoule14) RegisterFilters(force bool) error {
	if err := release.RequireDirs(r.filterPath); err != nil {
		return err
	}

	curves, err := readMegaCamFilters(r.filterPath)
	if err != nil {
		return err
	}
	for _, c := range curves {
		name := "jla_betoule14_MEGACAMPSF::" + c.band
		b := &bandpass.Bandpass{Name: name, Wave: c.wave, Trans: c.trans}
		if err := bandpass.Register(b, force); err != nil {
			return err
		}
	}
	return nil
}

type megaCamCurve struct {
	band  string
	wave  []float64
	trans []float64
}

// readMegaCamFilters parses the SAGEM measurement table: a header row
// followed by columns of wavelength (nm) and per-band transmission.
// Wavelengths are converted to Angstroms.
func readMegaCamFilters(path string) ([]megaCamCurve, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bands := []string{"u", "g", "r", "i", "z"}
	curves := make([]megaCamCurve, len(bands))
	for i, b := range bands {
		curves[i].band = b
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < len(bands)+1 {
			continue
		}

		wave, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue // header row
		}

		for i := range bands {
			trans, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("megacam filters %s: malformed row %q", path, scanner.Text())
			}
			curves[i].wave = append(curves[i].wave, wave*10)
			curves[i].trans = append(curves[i].trans, trans)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(curves[0].wave) == 0 {
		return nil, fmt.Errorf("megacam filters %s: no data rows", path)
	}
	return curves, nil
}

// Download fetches the light curve bundle, the paper tables and the
// MegaCam filter measurements.
func (r *Betoule14) Download(ctx context.Context, opts fetch.Options) error {
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

	return fetch.File(ctx, r.filterURL, r.filterPath, opts)
}

// Delete removes all locally cached Betoule14 data.
func (r *Betoule14) Delete() error {
	return release.DeleteDir(r.dataDir)
}
