// sndata-export - Parquet exporter for normalized light curves
//
// Walks the locally cached photometric releases and writes one Parquet
// file of flattened observation rows per release.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/sndata-export ./cmd/sndata-export

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"sndata/internal/common"
	"sndata/internal/lightcurve"
	"sndata/internal/release"
	"sndata/internal/surveys"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

// exportRelease writes one Parquet file of observation rows for a
// release and returns the row count.
func exportRelease(rel release.PhotometricRelease, outDir string, stats *common.Stats) (string, error) {
	name := strings.ToLower(fmt.Sprintf("%s_%s.parquet", rel.Survey(), rel.Name()))
	outPath := filepath.Join(outDir, name)

	tmpPath := outPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", err
	}

	writer := parquet.NewGenericWriter[lightcurve.Row](f, parquet.Compression(&parquet.Zstd))

	err = release.IterPhotometry(rel, nil, func(p *lightcurve.Photometry) error {
		rows := p.Rows(rel.Survey(), rel.Name())
		if len(rows) == 0 {
			return nil
		}
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("parquet write failed: %w", err)
		}
		stats.AddObjects(1)
		stats.AddRows(uint64(len(rows)))
		return nil
	})
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", err
	}

	if err := writer.Close(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("parquet close failed: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	return outPath, nil
}

func main() {
	cfg := common.DefaultConfig()

	releaseSpecs := flag.String("releases", "", "Comma separated SURVEY/RELEASE list (default: all photometric)")
	dataDir := flag.String("data-dir", cfg.DataDir, "Local cache directory")
	outDir := flag.String("out", cfg.ParquetDir(), "Output directory for Parquet files")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sndata-export v%s - Parquet Exporter\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Writes one Parquet file of observation rows per photometric release.\n")
		fmt.Fprintf(os.Stderr, "Download release data first with sndata-download.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	cfg.DataDir = *dataDir

	rels, err := surveys.Parse(cfg, *releaseSpecs)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	phot := surveys.Photometric(rels)
	if len(phot) == 0 {
		log.Fatal("Error: no photometric releases selected")
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Cannot create output directory: %v", err)
	}

	fmt.Println("=========================================================")
	fmt.Printf("sndata Export v%s\n", Version)
	fmt.Println("=========================================================")
	fmt.Printf("Source:   %s\n", cfg.DataDir)
	fmt.Printf("Output:   %s\n", *outDir)
	fmt.Printf("Releases: %d photometric\n", len(phot))
	fmt.Println()

	stats := common.NewStats()
	stats.StartReporter()
	startTime := time.Now()

	failed := 0
	for _, rel := range phot {
		name := rel.Survey() + "/" + rel.Name()

		path, err := exportRelease(rel, *outDir, stats)
		if err != nil {
			log.Printf("[%s] ERROR: %v", name, err)
			failed++
			continue
		}
		log.Printf("[%s] Wrote %s", name, path)
	}

	stats.StopReporter()
	elapsed := time.Since(startTime)

	fmt.Println()
	fmt.Println("=========================================================")
	fmt.Println("Export Summary")
	fmt.Println("=========================================================")
	fmt.Printf("Objects: %d\n", stats.GetObjects())
	fmt.Printf("Rows:    %d\n", stats.GetRows())
	fmt.Printf("Elapsed: %v\n", elapsed.Round(time.Second))

	if failed > 0 {
		os.Exit(1)
	}
}
