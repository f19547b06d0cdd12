package fits

import (
	"os"
	"path/filepath"
	"testing"

	fitsio "github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, path string, axes []int, data []float64) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	fit, err := fitsio.Create(f)
	require.NoError(t, err)
	defer fit.Close()

	img := fitsio.NewImage(-64, axes)
	defer img.Close()
	require.NoError(t, img.Write(&data))
	require.NoError(t, fit.Write(img))
}

func TestReadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.fits")
	writeImage(t, path, []int{3, 2}, []float64{1, 2, 3, 4, 5, 6})

	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, img.Axes)

	rows, err := img.Matrix()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []float64{1, 2, 3}, rows[0])
	assert.Equal(t, []float64{4, 5, 6}, rows[1])
}

func TestMatrixRequiresTwoAxes(t *testing.T) {
	img := &Image{Axes: []int{4}, Data: []float64{1, 2, 3, 4}}
	_, err := img.Matrix()
	assert.Error(t, err)
}

func TestReadImageMissingFile(t *testing.T) {
	_, err := ReadImage(filepath.Join(t.TempDir(), "absent.fits"))
	assert.Error(t, err)
}
