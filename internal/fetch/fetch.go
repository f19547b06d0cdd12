// Package fetch downloads published data files and archives over HTTP
// and caches them on local disk. Downloads are skipped when the
// destination already exists unless forced.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultTimeout is the per-request timeout used when none is set.
const DefaultTimeout = 15 * time.Second

// Options control download behavior.
type Options struct {
	// Force re-downloads data that is already available locally.
	Force bool

	// Timeout is the per-request HTTP timeout. Zero means DefaultTimeout.
	Timeout time.Duration

	// SkipExists optionally names a path whose existence causes the
	// download to be skipped (used for archives that extract somewhere
	// other than the download destination).
	SkipExists string
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CheckURL reports whether a connection can be established to a URL.
// A warning is logged when it cannot.
func CheckURL(ctx context.Context, url string, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		log.Printf("WARNING: malformed url %s: %v", url, err)
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("WARNING: could not connect to %s: %v", url, err)
		return false
	}
	resp.Body.Close()
	return true
}

// File downloads a URL to a destination path. The payload is written to
// a temp file and atomically renamed so partial downloads never shadow
// complete ones.
func File(ctx context.Context, url, dest string, opts Options) error {
	if !opts.Force && exists(dest) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := dest + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	log.Printf("Fetching %s", url)
	if _, err := get(ctx, url, f, opts.timeout()); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename failed: %w", err)
	}
	return nil
}

// get issues a single HTTP GET and copies the body to w.
func get(ctx context.Context, url string, w io.Writer, timeout time.Duration) (int64, error) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download failed: %w", err)
	}
	return n, nil
}
