// Package fits reads primary-HDU image data from FITS files.
package fits

import (
	"fmt"
	"os"

	fitsio "github.com/astrogo/fitsio"
)

// Image is a primary-HDU image promoted to float64. Axes follow the
// FITS convention: Axes[0] is the length of the fastest varying axis.
type Image struct {
	Axes []int
	Data []float64
}

// Matrix reshapes a two-dimensional image into rows of length Axes[0].
func (img *Image) Matrix() ([][]float64, error) {
	if len(img.Axes) != 2 {
		return nil, fmt.Errorf("fits: image has %d axes, want 2", len(img.Axes))
	}
	nx, ny := img.Axes[0], img.Axes[1]
	if nx*ny != len(img.Data) {
		return nil, fmt.Errorf("fits: image data has %d values, want %d", len(img.Data), nx*ny)
	}

	rows := make([][]float64, ny)
	for i := range rows {
		rows[i] = img.Data[i*nx : (i+1)*nx]
	}
	return rows, nil
}

// ReadImage reads the primary HDU of a FITS file as an image.
func ReadImage(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fit, err := fitsio.Open(f)
	if err != nil {
		return nil, fmt.Errorf("fits %s: %w", path, err)
	}
	defer fit.Close()

	hdu, ok := fit.HDU(0).(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("fits %s: primary HDU is not an image", path)
	}

	hdr := hdu.Header()
	img := &Image{Axes: append([]int(nil), hdr.Axes()...)}

	n := 1
	for _, ax := range img.Axes {
		n *= ax
	}
	if len(img.Axes) == 0 || n == 0 {
		return img, nil
	}

	switch hdr.Bitpix() {
	case -64:
		data := make([]float64, n)
		if err := hdu.Read(&data); err != nil {
			return nil, fmt.Errorf("fits %s: %w", path, err)
		}
		img.Data = data
	case -32:
		data := make([]float32, n)
		if err := hdu.Read(&data); err != nil {
			return nil, fmt.Errorf("fits %s: %w", path, err)
		}
		img.Data = promote(data)
	case 8:
		data := make([]int8, n)
		if err := hdu.Read(&data); err != nil {
			return nil, fmt.Errorf("fits %s: %w", path, err)
		}
		img.Data = promote(data)
	case 16:
		data := make([]int16, n)
		if err := hdu.Read(&data); err != nil {
			return nil, fmt.Errorf("fits %s: %w", path, err)
		}
		img.Data = promote(data)
	case 32:
		data := make([]int32, n)
		if err := hdu.Read(&data); err != nil {
			return nil, fmt.Errorf("fits %s: %w", path, err)
		}
		img.Data = promote(data)
	case 64:
		data := make([]int64, n)
		if err := hdu.Read(&data); err != nil {
			return nil, fmt.Errorf("fits %s: %w", path, err)
		}
		img.Data = promote(data)
	default:
		return nil, fmt.Errorf("fits %s: unsupported bitpix %d", path, hdr.Bitpix())
	}
	return img, nil
}

func promote[T int8 | int16 | int32 | int64 | float32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
