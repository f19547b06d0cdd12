package snls

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sndata/internal/common"
	"sndata/internal/release"
)

const ballandSample = `# VLT spectrum
@Z 0.543
1 4102.4 1.21e-18 4.02e-19
2 4104.8 1.34e-18 4.11e-19
`

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func testRelease(t *testing.T) (*Balland09, string) {
	t.Helper()
	cfg := common.DefaultConfig()
	cfg.DataDir = t.TempDir()
	dir := cfg.ReleaseDir(SurveyAbbrev, "Balland09")
	return NewBalland09(cfg), filepath.Join(dir, "PHASE_spec_Balland09")
}

func TestBalland09NotDownloaded(t *testing.T) {
	r, _ := testRelease(t)
	_, err := r.AvailableIDs()
	assert.ErrorIs(t, err, release.ErrNotDownloaded)
}

func TestBalland09AvailableIDs(t *testing.T) {
	r, dir := testRelease(t)
	writeFile(t, filepath.Join(dir, "SN_03D1au_A_Balland_etal_09.dat"), ballandSample)
	writeFile(t, filepath.Join(dir, "Host_03D1au_A_Balland_etal_09.dat"), ballandSample)
	writeFile(t, filepath.Join(dir, "SN_04D2gb_B_Balland_etal_09.dat"), ballandSample)

	ids, err := r.AvailableIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"03D1au", "04D2gb"}, ids)
}

func TestBalland09Spectrum(t *testing.T) {
	r, dir := testRelease(t)
	writeFile(t, filepath.Join(dir, "SN_03D1au_A_Balland_etal_09.dat"), ballandSample)
	writeFile(t, filepath.Join(dir, "Host_03D1au_A_Balland_etal_09.dat"), ballandSample)

	s, err := r.Spectrum("03D1au")
	require.NoError(t, err)

	assert.Equal(t, "03D1au", s.Meta.ObjID)
	require.Len(t, s.Obs, 4)

	// Files merge in sorted order: Host_* before SN_*.
	assert.Equal(t, "host", s.Obs[0].Segment)
	assert.Equal(t, "sn", s.Obs[2].Segment)
	assert.InDelta(t, 4102.4, s.Obs[0].Wavelength, 1e-9)
	assert.InDelta(t, 1.21e-18, s.Obs[0].Flux, 1e-27)
	assert.InDelta(t, 4.02e-19, s.Obs[0].FluxErr, 1e-28)
}

func TestBalland09NoFilters(t *testing.T) {
	r, _ := testRelease(t)
	assert.ErrorIs(t, r.RegisterFilters(false), release.ErrNoFilters)
}
