package fetch

import (
	"archive/tar"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSkipsExisting(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("remote"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "table1.dat")
	require.NoError(t, os.WriteFile(dest, []byte("local"), 0644))

	require.NoError(t, File(context.Background(), srv.URL, dest, Options{}))
	assert.Equal(t, 0, hits)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "local", string(got))
}

func TestFileForceOverwrites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "table1.dat")
	require.NoError(t, os.WriteFile(dest, []byte("local"), 0644))

	require.NoError(t, File(context.Background(), srv.URL, dest, Options{Force: true}))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "remote", string(got))
}

func TestFileHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "missing.dat")
	err := File(context.Background(), srv.URL, dest, Options{})
	assert.Error(t, err)
	assert.NoFileExists(t, dest)
	assert.NoFileExists(t, dest+".tmp")
}

func makeTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestTarballExtracts(t *testing.T) {
	payload := makeTarGz(t, map[string]string{
		"tables/ReadMe":     "readme text",
		"tables/table1.dat": "1 2 3",
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	outDir := t.TempDir()
	require.NoError(t, Tarball(context.Background(), srv.URL, outDir, Options{}))

	got, err := os.ReadFile(filepath.Join(outDir, "tables", "table1.dat"))
	require.NoError(t, err)
	assert.Equal(t, "1 2 3", string(got))
}

func TestTarballSkipExists(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	marker := t.TempDir() // existing directory
	err := Tarball(context.Background(), srv.URL, t.TempDir(), Options{SkipExists: marker})
	require.NoError(t, err)
	assert.Equal(t, 0, hits)
}

func TestTarballRejectsEscapingEntries(t *testing.T) {
	payload := makeTarGz(t, map[string]string{"../evil.txt": "nope"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	err := Tarball(context.Background(), srv.URL, t.TempDir(), Options{})
	assert.Error(t, err)
}

func TestCheckURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	assert.True(t, CheckURL(context.Background(), srv.URL, time.Second))
	srv.Close()
	assert.False(t, CheckURL(context.Background(), srv.URL, time.Second))
}
