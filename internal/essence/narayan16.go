package essence

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

// narayan16Bands maps package-standard band names to the KPNO Mosaic
// transmission files.
var narayan16Bands = []struct {
	Name       string
	FilterFile string
	FilterURL  string
}{
	{"essence_narayan16_R", "R_band.dat", "https://www.noao.edu/kpno/mosaic/filters/asc6004.f287.r04.txt"},
	{"essence_narayan16_I", "I_band.dat", "https://www.noao.edu/kpno/mosaic/filters/asc6028.f287.r04.txt"},
}

// Fluxes in the published light curves are calibrated to a common
// zeropoint.
const narayan16ZeroPoint = 25.0

// Narayan16 is the ESSENCE six-year release of R and I band light
// curves for 213 Type Ia supernovae at 0.1 < z < 0.8
// (Narayan et al. 2016).
type Narayan16 struct {
	dataDir       string
	tableDir      string
	photometryDir string
	filterDir     string

	tableURL string

	cache release.TableCache
}

// NewNarayan16 returns the ESSENCE Narayan16 release rooted in the
// configured data directory.
func NewNarayan16(cfg *common.Config) *Narayan16 {
	dataDir := cfg.ReleaseDir(SurveyAbbrev, "Narayan16")
	tableDir := filepath.Join(dataDir, "vizier")
	return &Narayan16{
		dataDir:       dataDir,
		tableDir:      tableDir,
		photometryDir: filepath.Join(tableDir, "lcs"),
		filterDir:     filepath.Join(dataDir, "filters"),
		tableURL:      "http://cdsarc.u-strasbg.fr/viz-bin/nph-Cat/tar.gz?J/ApJS/224/3",
	}
}

func (r *Narayan16) Survey() string   { return SurveyAbbrev }
func (r *Narayan16) Name() string     { return "Narayan16" }
func (r *Narayan16) DataType() string { return release.Photometric }

// AvailableIDs returns the object IDs with locally available light
// curve files.
func (r *Narayan16) AvailableIDs() ([]string, error) {
	if err := release.RequireDirs(r.photometryDir); err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(r.photometryDir, "*.dat"))
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, f := range files {
		ids = append(ids, strings.SplitN(filepath.Base(f), ".", 2)[0])
	}
	sort.Strings(ids)
	return ids, nil
}

// Photometry returns the normalized light curve for an object. The
// asymmetric published flux errors are collapsed to their larger side.
func (r *Narayan16) Photometry(objID string) (*lightcurve.Photometry, error) {
	ids, err := r.AvailableIDs()
	if err != nil {
		return nil, err
	}
	if err := release.ValidateID(objID, ids); err != nil {
		return nil, err
	}

	path := filepath.Join(r.photometryDir, objID+".W6yr.clean.nn2.Wstd.dat")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := &lightcurve.Photometry{Meta: lightcurve.Meta{ObjID: objID}}

	// The first two comment lines carry metadata keys and values.
	var keys []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			fields := strings.Fields(strings.TrimPrefix(line, "#"))
			if keys == nil {
				keys = fields
				continue
			}
			if out.Meta.Extra == nil {
				out.Meta.Extra = make(map[string]string)
				for i, key := range keys {
					if i >= len(fields) {
						break
					}
					switch key {
					case "objid":
						out.Meta.ObjID = fields[i]
					case "ra":
						if v, err := strconv.ParseFloat(fields[i], 64); err == nil {
							out.Meta.RA = lightcurve.Float(v)
						}
					case "dec":
						if v, err := strconv.ParseFloat(fields[i], 64); err == nil {
							out.Meta.Dec = lightcurve.Float(v)
						}
					case "z":
						if v, err := strconv.ParseFloat(fields[i], 64); err == nil {
							out.Meta.Z = lightcurve.Float(v)
						}
					case "zerr":
						if v, err := strconv.ParseFloat(fields[i], 64); err == nil {
							out.Meta.ZErr = lightcurve.Float(v)
						}
					default:
						out.Meta.Extra[key] = fields[i]
					}
				}
			}
			continue
		}

		// Observation MJD Passband Flux Fluxerr_lo Fluxerr_hi
		fields := strings.Fields(line)
		if len(fields) < 6 {
			return nil, fmt.Errorf("essence narayan16 %s: malformed row %q", path, line)
		}
		mjd, err1 := strconv.ParseFloat(fields[1], 64)
		flux, err2 := strconv.ParseFloat(fields[3], 64)
		lo, err3 := strconv.ParseFloat(fields[4], 64)
		hi, err4 := strconv.ParseFloat(fields[5], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, fmt.Errorf("essence narayan16 %s: malformed row %q", path, line)
		}

		out.Obs = append(out.Obs, lightcurve.Obs{
			Time:    units.EnsureJD(mjd),
			Band:    "essence_narayan16_" + fields[2],
			Flux:    flux,
			FluxErr: max(lo, hi),
			ZP:      narayan16ZeroPoint,
			ZPSys:   "ab",
		})
	}
	return out, scanner.Err()
}

// AvailableTables returns the IDs of the locally available paper tables.
func (r *Narayan16) AvailableTables() ([]string, error) {
	return release.CDSTableIDs(r.tableDir)
}

// LoadTable loads a CDS paper table by ID.
func (r *Narayan16) LoadTable(id string) (*release.Table, error) {
	return release.LoadCDSTable(&r.cache, r.tableDir, id)
}

// RegisterFilters registers the KPNO Mosaic transmission curves with
// the bandpass registry.
func (r *Narayan16) RegisterFilters(force bool) error {
	if err := release.RequireDirs(r.filterDir); err != nil {
		return err
	}

	for _, b := range narayan16Bands {
		path := filepath.Join(r.filterDir, b.FilterFile)
		if err := bandpass.RegisterFile(path, b.Name, force); err != nil {
			return err
		}
	}
	return nil
}

// Download fetches the paper tables (which bundle the light curves) and
// the filter transmission curves.
func (r *Narayan16) Download(ctx context.Context, opts fetch.Options) error {
	tableOpts := opts
	tableOpts.SkipExists = r.tableDir
	if err := fetch.Tarball(ctx, r.tableURL, r.tableDir, tableOpts); err != nil {
		return err
	}

	for _, b := range narayan16Bands {
		if !fetch.CheckURL(ctx, b.FilterURL, opts.Timeout) {
			log.Printf("Skipping unreachable filter %s", b.FilterURL)
			continue
		}
		dest := filepath.Join(r.filterDir, b.FilterFile)
		if err := fetch.File(ctx, b.FilterURL, dest, opts); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes all locally cached Narayan16 data.
func (r *Narayan16) Delete() error {
	return release.DeleteDir(r.dataDir)
}
