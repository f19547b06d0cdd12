// sndata-ingest - ClickHouse ingester for normalized light curves
//
// Walks the locally cached photometric releases, flattens every light
// curve into observation rows and batch-inserts them into ClickHouse.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/sndata-ingest ./cmd/sndata-ingest

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"sndata/internal/common"
	"sndata/internal/lightcurve"
	"sndata/internal/release"
	"sndata/internal/surveys"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

const BatchSize = 100_000

const createTableDDL = `
CREATE TABLE IF NOT EXISTS %s (
    survey   String,
    release  String,
    obj_id   String,
    time     Float64,
    band     String,
    flux     Float64,
    fluxerr  Float64,
    zp       Float64,
    zpsys    String,
    ra       Float64,
    dec      Float64,
    z        Float64
) ENGINE = MergeTree()
ORDER BY (survey, release, obj_id, time)`

func connect(ctx context.Context, cfg *common.Config) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.ClickHouseHost},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePassword,
		},
		Settings: clickhouse.Settings{
			"max_execution_time":    300,
			"max_insert_block_size": 1048576,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("ClickHouse connection failed: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ClickHouse ping failed: %w", err)
	}
	return conn, nil
}

func ingestRelease(ctx context.Context, conn driver.Conn, tableFQN string, rel release.PhotometricRelease, stats *common.Stats) error {
	var batch driver.Batch
	pending := 0

	flush := func() error {
		if batch == nil || pending == 0 {
			return nil
		}
		if err := batch.Send(); err != nil {
			return fmt.Errorf("batch send failed: %w", err)
		}
		batch = nil
		pending = 0
		return nil
	}

	err := release.IterPhotometry(rel, nil, func(p *lightcurve.Photometry) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		rows := p.Rows(rel.Survey(), rel.Name())
		for i := range rows {
			if batch == nil {
				var err error
				batch, err = conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", tableFQN))
				if err != nil {
					return fmt.Errorf("prepare batch failed: %w", err)
				}
			}
			if err := batch.AppendStruct(&rows[i]); err != nil {
				return fmt.Errorf("batch append failed: %w", err)
			}
			pending++
			if pending >= BatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}

		stats.AddObjects(1)
		stats.AddRows(uint64(len(rows)))
		return nil
	})
	if err != nil {
		return err
	}
	return flush()
}

func main() {
	cfg := common.DefaultConfig()

	releaseSpecs := flag.String("releases", "", "Comma separated SURVEY/RELEASE list (default: all photometric)")
	dataDir := flag.String("data-dir", cfg.DataDir, "Local cache directory")
	chHost := flag.String("ch-host", cfg.ClickHouseHost, "ClickHouse host:port")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	table := flag.String("table", "observations", "Destination table")
	createTable := flag.Bool("create-table", true, "Create the destination table if missing")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sndata-ingest v%s - Light Curve Ingester\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flattens locally cached light curves into ClickHouse observation rows.\n")
		fmt.Fprintf(os.Stderr, "Download release data first with sndata-download.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	cfg.DataDir = *dataDir
	cfg.ClickHouseHost = *chHost
	cfg.ClickHouseDatabase = *chDB

	rels, err := surveys.Parse(cfg, *releaseSpecs)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	phot := surveys.Photometric(rels)
	if len(phot) == 0 {
		log.Fatal("Error: no photometric releases selected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := connect(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer conn.Close()

	tableFQN := fmt.Sprintf("%s.%s", cfg.ClickHouseDatabase, *table)
	if *createTable {
		if err := conn.Exec(ctx, fmt.Sprintf(createTableDDL, tableFQN)); err != nil {
			log.Fatalf("Create table failed: %v", err)
		}
	}

	fmt.Println("=========================================================")
	fmt.Printf("sndata Ingest v%s\n", Version)
	fmt.Println("=========================================================")
	fmt.Printf("Source:   %s\n", cfg.DataDir)
	fmt.Printf("Target:   %s @ %s\n", tableFQN, cfg.ClickHouseHost)
	fmt.Printf("Releases: %d photometric\n", len(phot))
	fmt.Println()

	stats := common.NewStats()
	stats.StartReporter()
	startTime := time.Now()

	failed := 0
	for _, rel := range phot {
		name := rel.Survey() + "/" + rel.Name()
		log.Printf("Ingesting %s", name)

		if err := ingestRelease(ctx, conn, tableFQN, rel, stats); err != nil {
			log.Printf("[%s] ERROR: %v", name, err)
			failed++
		}
	}

	stats.StopReporter()
	elapsed := time.Since(startTime)

	fmt.Println()
	fmt.Println("=========================================================")
	fmt.Println("Ingest Summary")
	fmt.Println("=========================================================")
	fmt.Printf("Objects: %d\n", stats.GetObjects())
	fmt.Printf("Rows:    %d\n", stats.GetRows())
	fmt.Printf("Elapsed: %v (%.0f rows/s)\n",
		elapsed.Round(time.Second),
		float64(stats.GetRows())/elapsed.Seconds())

	if failed > 0 {
		os.Exit(1)
	}
}
