package bsnip

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sndata/internal/common"
	"sndata/internal/release"
)

const metaSample = `ObjName,Filename,UT_Date,Instrument
SN2018oh,sn2018oh-20180212.flm,20180212.25,Kast
SN2018oh,sn2018oh-20180220.flm,20180220.31,Kast
SN2017fgc,sn2017fgc-20170815.flm,20170815.14,LRIS
`

// Two-column spectrum, longer wavelengths than the three-column file.
const spectrumTwoCol = `5000.0 1.84e-15
5002.0 1.82e-15
`

// Three-column spectrum with flux errors.
const spectrumThreeCol = `3600.0 2.11e-15 1.5e-17
3602.0 2.09e-15 1.4e-17
`

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func testRelease(t *testing.T) (*Stahl20, string) {
	t.Helper()
	cfg := common.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return NewStahl20(cfg), cfg.ReleaseDir(SurveyAbbrev, "Stahl20")
}

func TestStahl20NotDownloaded(t *testing.T) {
	r, _ := testRelease(t)
	_, err := r.AvailableIDs()
	assert.ErrorIs(t, err, release.ErrNotDownloaded)
}

func TestStahl20AvailableIDs(t *testing.T) {
	r, dir := testRelease(t)
	writeFile(t, filepath.Join(dir, "tables", "meta_data.csv"), metaSample)

	// SN2018oh has two spectra in the meta data table but lists once.
	ids, err := r.AvailableIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"SN2017fgc", "SN2018oh"}, ids)

	tables, err := r.AvailableTables()
	require.NoError(t, err)
	assert.Equal(t, []string{"meta_data"}, tables)
}

func TestStahl20Spectrum(t *testing.T) {
	r, dir := testRelease(t)
	writeFile(t, filepath.Join(dir, "tables", "meta_data.csv"), metaSample)
	writeFile(t, filepath.Join(dir, "spectra", "sn2018oh-20180212.flm"), spectrumThreeCol)
	writeFile(t, filepath.Join(dir, "spectra", "sn2018oh-20180220.flm"), spectrumTwoCol)

	s, err := r.Spectrum("SN2018oh")
	require.NoError(t, err)

	assert.Equal(t, "SN2018oh", s.Meta.ObjID)
	assert.Nil(t, s.Meta.Z) // release files carry no redshifts

	require.Len(t, s.Obs, 4)

	// Rows merge in wavelength order regardless of source file.
	first := s.Obs[0]
	assert.InDelta(t, 3600.0, first.Wavelength, 1e-9)
	assert.InDelta(t, 2.11e-15, first.Flux, 1e-24)
	assert.InDelta(t, 1.5e-17, first.FluxErr, 1e-26)
	assert.Equal(t, "Kast", first.Instrument)

	// 2018-02-12 ordinal 736737; JD = ordinal + 1721424.5 + 0.25
	assert.InDelta(t, 736737+1721424.5+0.25, first.Time, 1e-6)

	last := s.Obs[3]
	assert.InDelta(t, 5002.0, last.Wavelength, 1e-9)
	assert.Zero(t, last.FluxErr)
}

func TestStahl20InvalidID(t *testing.T) {
	r, dir := testRelease(t)
	writeFile(t, filepath.Join(dir, "tables", "meta_data.csv"), metaSample)

	_, err := r.Spectrum("SN1999zz")
	assert.ErrorIs(t, err, release.ErrInvalidObjID)
}

func TestStahl20NoFilters(t *testing.T) {
	r, _ := testRelease(t)
	assert.ErrorIs(t, r.RegisterFilters(false), release.ErrNoFilters)
}
