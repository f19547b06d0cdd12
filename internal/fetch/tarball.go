package fetch

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
)

// pgzipThreshold is the compressed size above which extraction switches
// to parallel decompression. Spectra bundles run to hundreds of MB while
// VizieR table archives are a few KB.
const pgzipThreshold = 32 << 20

// Tarball downloads a .tar.gz archive and extracts it into outDir.
// Existing entries are overwritten. The download is skipped when
// Options.SkipExists names an existing path (and Force is unset).
func Tarball(ctx context.Context, url, outDir string, opts Options) error {
	if opts.SkipExists != "" && exists(opts.SkipExists) && !opts.Force {
		return nil
	}

	tmp, err := os.CreateTemp("", "sndata-archive-*.tar.gz")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := get(ctx, url, tmp, opts.timeout())
	if err != nil {
		return err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return err
	}

	return extractTarGz(tmp, size, outDir)
}

func extractTarGz(r io.Reader, size int64, outDir string) error {
	var (
		gz  io.ReadCloser
		err error
	)
	if size >= pgzipThreshold {
		gz, err = pgzip.NewReaderN(r, 256*1024, runtime.NumCPU())
	} else {
		gz, err = gzip.NewReader(r)
	}
	if err != nil {
		return fmt.Errorf("gzip: %w", err)
	}
	defer gz.Close()

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tar: %w", err)
		}

		dest, err := safeJoin(outDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0755); err != nil {
				return err
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return err
			}
			f, err := os.Create(dest)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
	}
}

// safeJoin joins an archive entry name onto outDir, rejecting entries
// that would escape the output directory.
func safeJoin(outDir, name string) (string, error) {
	dest := filepath.Join(outDir, filepath.FromSlash(name))
	if dest != outDir && !strings.HasPrefix(dest, outDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry escapes output dir: %s", name)
	}
	return dest, nil
}
