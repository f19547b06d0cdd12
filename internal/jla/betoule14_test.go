package jla

import (
	"os"
	"path/filepath"
	"testing"

	fitsio "github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sndata/internal/bandpass"
	"sndata/internal/common"
	"sndata/internal/release"
)

const jlaSample = `@SN 03D1au
@RA 36.043209
@DEC -4.037469
@Z_HELIO 0.50349
@SURVEY SNLS
# Date Flux Fluxerr ZP Filter MagSys
52880.57 3.22 0.92 27.82 MEGACAMPSF::g AB_B12
52896.55 21.84 1.03 27.82 MEGACAMPSF::i AB_B12
`

const megacamSample = `wavelength u g r i z
320.0 0.001 0.000 0.000 0.000 0.000
480.0 0.000 0.812 0.002 0.000 0.000
640.0 0.000 0.001 0.794 0.003 0.000
`

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func testRelease(t *testing.T) (*Betoule14, string) {
	t.Helper()
	cfg := common.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return NewBetoule14(cfg), cfg.ReleaseDir(SurveyAbbrev, "Betoule14")
}

func TestBetoule14AvailableIDs(t *testing.T) {
	r, dir := testRelease(t)
	lcDir := filepath.Join(dir, "jla_light_curves")
	writeFile(t, filepath.Join(lcDir, "lc-03D1au.list"), jlaSample)
	writeFile(t, filepath.Join(lcDir, "lc-SDSS10805.list"), jlaSample)

	ids, err := r.AvailableIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"03D1au", "SDSS10805"}, ids)
}

func TestBetoule14Photometry(t *testing.T) {
	r, dir := testRelease(t)
	writeFile(t, filepath.Join(dir, "jla_light_curves", "lc-03D1au.list"), jlaSample)

	p, err := r.Photometry("03D1au")
	require.NoError(t, err)

	assert.Equal(t, "03D1au", p.Meta.ObjID)
	require.NotNil(t, p.Meta.RA)
	assert.InDelta(t, 36.043209, *p.Meta.RA, 1e-9)
	require.NotNil(t, p.Meta.Z)
	assert.InDelta(t, 0.50349, *p.Meta.Z, 1e-9)
	assert.Equal(t, "SNLS", p.Meta.Extra["SURVEY"])

	require.Len(t, p.Obs, 2)
	first := p.Obs[0]
	assert.Equal(t, "jla_betoule14_MEGACAMPSF::g", first.Band)
	assert.InDelta(t, 52880.57+2400000.5, first.Time, 1e-6)
	assert.InDelta(t, 3.22, first.Flux, 1e-9)
	assert.InDelta(t, 27.82, first.ZP, 1e-9)
	assert.Equal(t, "AB_B12", first.ZPSys)
}

func TestBetoule14CovarianceTable(t *testing.T) {
	r, dir := testRelease(t)
	tableDir := filepath.Join(dir, "tables")
	require.NoError(t, os.MkdirAll(tableDir, 0o755))

	f, err := os.Create(filepath.Join(tableDir, "tablef2.fit"))
	require.NoError(t, err)
	fit, err := fitsio.Create(f)
	require.NoError(t, err)
	img := fitsio.NewImage(-64, []int{2, 2})
	data := []float64{1.0, 0.1, 0.1, 1.0}
	require.NoError(t, img.Write(&data))
	require.NoError(t, fit.Write(img))
	require.NoError(t, img.Close())
	require.NoError(t, fit.Close())
	require.NoError(t, f.Close())

	ids, err := r.AvailableTables()
	require.NoError(t, err)
	assert.Contains(t, ids, "f2")

	tbl, err := r.LoadTable("f2")
	require.NoError(t, err)
	require.Len(t, tbl.Matrix, 2)
	assert.Equal(t, []float64{1.0, 0.1}, tbl.Matrix[0])
	assert.Empty(t, tbl.Rows)
}

func TestBetoule14RegisterFilters(t *testing.T) {
	r, dir := testRelease(t)
	writeFile(t, filepath.Join(dir, "cfht_filters.txt"), megacamSample)

	require.NoError(t, r.RegisterFilters(true))

	b, err := bandpass.Get("jla_betoule14_MEGACAMPSF::g")
	require.NoError(t, err)
	require.Len(t, b.Wave, 3)
	assert.InDelta(t, 4800.0, b.Wave[1], 1e-9) // nm converted to Angstroms
	assert.InDelta(t, 0.812, b.Trans[1], 1e-9)
}

func TestBetoule14NotDownloaded(t *testing.T) {
	r, _ := testRelease(t)
	_, err := r.AvailableIDs()
	assert.ErrorIs(t, err, release.ErrNotDownloaded)
	err = r.RegisterFilters(false)
	assert.ErrorIs(t, err, release.ErrNotDownloaded)
}
