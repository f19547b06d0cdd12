// sndata-download - Parallel downloader for supernova survey data releases
//
// Fetches the published archives of each supported data release into the
// local cache directory. Supports skip-if-exists, forced re-downloads and
// release filtering.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/sndata-download ./cmd/sndata-download

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"sndata/internal/common"
	"sndata/internal/fetch"
	"sndata/internal/release"
	"sndata/internal/surveys"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

type DownloadStats struct {
	Completed atomic.Uint64
	Failed    atomic.Uint64
}

func main() {
	cfg := common.DefaultConfig()

	releaseSpecs := flag.String("releases", "", "Comma separated SURVEY/RELEASE list (default: all)")
	dataDir := flag.String("data-dir", cfg.DataDir, "Local cache directory")
	workers := flag.Int("workers", 4, "Parallel release downloads")
	timeout := flag.Duration("timeout", fetch.DefaultTimeout, "HTTP timeout per file")
	force := flag.Bool("force", false, "Re-download locally available data")
	listOnly := flag.Bool("list", false, "List releases without downloading")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sndata-download v%s - Survey Data Downloader\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Downloads published supernova survey data releases.\n")
		fmt.Fprintf(os.Stderr, "Archives are cached under the data directory per survey and release.\n\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                              # Download every release\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -releases CSP/DR3,LOSS/Stahl19  # Download two releases\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -list                          # List supported releases\n", os.Args[0])
	}

	flag.Parse()
	cfg.DataDir = *dataDir

	rels, err := surveys.Parse(cfg, *releaseSpecs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *listOnly {
		fmt.Printf("Supported releases (%d):\n\n", len(rels))
		for _, rel := range rels {
			fmt.Printf("  %s/%s (%s)\n", rel.Survey(), rel.Name(), rel.DataType())
		}
		return
	}

	fmt.Println("=========================================================")
	fmt.Printf("sndata Download v%s\n", Version)
	fmt.Println("=========================================================")
	fmt.Printf("Destination: %s\n", cfg.DataDir)
	fmt.Printf("Releases:    %d\n", len(rels))
	fmt.Printf("Workers:     %d parallel\n", *workers)
	fmt.Printf("Timeout:     %v per file\n", *timeout)
	fmt.Printf("Force:       %v\n", *force)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := fetch.Options{Force: *force, Timeout: *timeout}
	startTime := time.Now()
	stats := &DownloadStats{}

	sem := make(chan struct{}, *workers)
	var wg sync.WaitGroup

	for _, rel := range rels {
		sem <- struct{}{}
		wg.Add(1)

		go func(rel release.Release) {
			defer func() { <-sem }()
			defer wg.Done()

			name := rel.Survey() + "/" + rel.Name()
			if err := rel.Download(ctx, opts); err != nil {
				fmt.Printf("[%s] ERROR: %v\n", name, err)
				stats.Failed.Add(1)
				return
			}
			fmt.Printf("[%s] Done\n", name)
			stats.Completed.Add(1)
		}(rel)
	}

	wg.Wait()

	fmt.Println()
	fmt.Println("=========================================================")
	fmt.Println("Download Summary")
	fmt.Println("=========================================================")
	fmt.Printf("Completed: %d releases\n", stats.Completed.Load())
	fmt.Printf("Failed:    %d releases\n", stats.Failed.Load())
	fmt.Printf("Elapsed:   %v\n", time.Since(startTime).Round(time.Second))

	if stats.Failed.Load() > 0 {
		os.Exit(1)
	}
}
