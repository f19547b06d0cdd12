package csp

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sndata/internal/common"
	"sndata/internal/release"
)

const snoopySample = `SN2004ef 0.031 340.54 19.99
filter B
53264.5 17.429 0.015
53268.5 17.601 0.016
filter V
53264.5 17.339 0.011
`

const dr1Sample = `# SN: 2004ef
# Redshift: 0.031
# JDate_of_max: 2453264.4
# JDate_of_observation: 2453252.7
# Epoch: -11.5
3500.0 1.25e-15
3502.0 1.30e-15
`

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	cfg := common.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestDR3NotDownloaded(t *testing.T) {
	r := NewDR3(testConfig(t))
	_, err := r.AvailableIDs()
	assert.ErrorIs(t, err, release.ErrNotDownloaded)
}

func TestDR3AvailableIDs(t *testing.T) {
	cfg := testConfig(t)
	r := NewDR3(cfg)
	dir := filepath.Join(cfg.ReleaseDir(SurveyAbbrev, "DR3"), "DR3")
	writeFile(t, filepath.Join(dir, "SN2004ef_snpy.txt"), snoopySample)
	writeFile(t, filepath.Join(dir, "SN2005kc_snpy.txt"), snoopySample)

	ids, err := r.AvailableIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"2004ef", "2005kc"}, ids)
}

func TestDR3Photometry(t *testing.T) {
	cfg := testConfig(t)
	r := NewDR3(cfg)
	dir := filepath.Join(cfg.ReleaseDir(SurveyAbbrev, "DR3"), "DR3")
	writeFile(t, filepath.Join(dir, "SN2004ef_snpy.txt"), snoopySample)

	p, err := r.Photometry("2004ef")
	require.NoError(t, err)

	assert.Equal(t, "2004ef", p.Meta.ObjID)
	require.NotNil(t, p.Meta.Z)
	assert.InDelta(t, 0.031, *p.Meta.Z, 1e-9)
	require.NotNil(t, p.Meta.RA)
	assert.InDelta(t, 340.54, *p.Meta.RA, 1e-9)

	require.Len(t, p.Obs, 3)
	first := p.Obs[0]
	assert.Equal(t, "csp_dr3_B", first.Band)
	assert.InDelta(t, 53264.5+53000+2400000.5, first.Time, 1e-6)
	assert.InDelta(t, 14.328, first.ZP, 1e-9)
	assert.Equal(t, "ab", first.ZPSys)
	assert.InDelta(t, math.Pow(10, (17.429-14.328)/-2.5), first.Flux, 1e-12)
	assert.Equal(t, "csp_dr3_V", p.Obs[2].Band)
}

func TestDR3PhotometryInvalidID(t *testing.T) {
	cfg := testConfig(t)
	r := NewDR3(cfg)
	dir := filepath.Join(cfg.ReleaseDir(SurveyAbbrev, "DR3"), "DR3")
	writeFile(t, filepath.Join(dir, "SN2004ef_snpy.txt"), snoopySample)

	_, err := r.Photometry("1999zz")
	assert.ErrorIs(t, err, release.ErrInvalidObjID)
}

func TestDR1AvailableIDs(t *testing.T) {
	cfg := testConfig(t)
	r := NewDR1(cfg)
	dir := filepath.Join(cfg.ReleaseDir(SurveyAbbrev, "DR1"), "spectra", "CSP_spectra_DR1")
	writeFile(t, filepath.Join(dir, "SN04ef_040915_b01_DUP_WF.dat"), dr1Sample)
	writeFile(t, filepath.Join(dir, "SN04ef_040920_b01_DUP_WF.dat"), dr1Sample)
	writeFile(t, filepath.Join(dir, "SN05kc_051104_b01_NTT_EM.dat"), dr1Sample)

	ids, err := r.AvailableIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"2004ef", "2005kc"}, ids)
}

func TestDR1Spectrum(t *testing.T) {
	cfg := testConfig(t)
	r := NewDR1(cfg)
	dir := filepath.Join(cfg.ReleaseDir(SurveyAbbrev, "DR1"), "spectra", "CSP_spectra_DR1")
	writeFile(t, filepath.Join(dir, "SN04ef_040915_b01_DUP_WF.dat"), dr1Sample)

	s, err := r.Spectrum("2004ef")
	require.NoError(t, err)

	assert.Equal(t, "2004ef", s.Meta.ObjID)
	require.NotNil(t, s.Meta.Z)
	assert.InDelta(t, 0.031, *s.Meta.Z, 1e-9)

	require.Len(t, s.Obs, 2)
	obs := s.Obs[0]
	assert.InDelta(t, 3500.0, obs.Wavelength, 1e-9)
	assert.InDelta(t, 1.25e-15, obs.Flux, 1e-24)
	assert.InDelta(t, 2453252.7, obs.Time, 1e-6)
	assert.InDelta(t, -11.5, obs.Epoch, 1e-9)
	assert.Equal(t, "b01", obs.Segment)
	assert.Equal(t, "DUP", obs.Telescope)
	assert.Equal(t, "WF", obs.Instrument)
}

func TestDR1NoFilters(t *testing.T) {
	r := NewDR1(testConfig(t))
	err := r.RegisterFilters(false)
	assert.True(t, errors.Is(err, release.ErrNoFilters))
}
