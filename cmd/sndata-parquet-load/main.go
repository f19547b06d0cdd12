// sndata-parquet-load - Native Go Parquet loader with ch-go insert
//
// Reads exported observation Parquet files directly in Go and inserts
// them into ClickHouse over the native protocol. No ClickHouse file()
// function, so no server-side path restrictions apply.
//
// Build: CGO_ENABLED=0 go build -ldflags="-s -w" -o build/sndata-parquet-load ./cmd/sndata-parquet-load

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/ClickHouse/ch-go"
	"github.com/ClickHouse/ch-go/proto"
	"github.com/parquet-go/parquet-go"

	"sndata/internal/common"
	"sndata/internal/lightcurve"
)

// Version can be overridden at build time via -ldflags
var Version = "1.0.0"

const (
	NumWorkers = 4
	BatchSize  = 100_000
)

// Batch holds column data for native inserts.
type Batch struct {
	Survey  *proto.ColStr
	Release *proto.ColStr
	ObjID   *proto.ColStr
	Time    *proto.ColFloat64
	Band    *proto.ColStr
	Flux    *proto.ColFloat64
	FluxErr *proto.ColFloat64
	ZP      *proto.ColFloat64
	ZPSys   *proto.ColStr
	RA      *proto.ColFloat64
	Dec     *proto.ColFloat64
	Z       *proto.ColFloat64
}

func NewBatch() *Batch {
	return &Batch{
		Survey:  new(proto.ColStr),
		Release: new(proto.ColStr),
		ObjID:   new(proto.ColStr),
		Time:    new(proto.ColFloat64),
		Band:    new(proto.ColStr),
		Flux:    new(proto.ColFloat64),
		FluxErr: new(proto.ColFloat64),
		ZP:      new(proto.ColFloat64),
		ZPSys:   new(proto.ColStr),
		RA:      new(proto.ColFloat64),
		Dec:     new(proto.ColFloat64),
		Z:       new(proto.ColFloat64),
	}
}

func (b *Batch) Reset() {
	b.Survey.Reset()
	b.Release.Reset()
	b.ObjID.Reset()
	b.Time.Reset()
	b.Band.Reset()
	b.Flux.Reset()
	b.FluxErr.Reset()
	b.ZP.Reset()
	b.ZPSys.Reset()
	b.RA.Reset()
	b.Dec.Reset()
	b.Z.Reset()
}

func (b *Batch) Len() int {
	return b.Time.Rows()
}

func (b *Batch) Input() proto.Input {
	return proto.Input{
		{Name: "survey", Data: b.Survey},
		{Name: "release", Data: b.Release},
		{Name: "obj_id", Data: b.ObjID},
		{Name: "time", Data: b.Time},
		{Name: "band", Data: b.Band},
		{Name: "flux", Data: b.Flux},
		{Name: "fluxerr", Data: b.FluxErr},
		{Name: "zp", Data: b.ZP},
		{Name: "zpsys", Data: b.ZPSys},
		{Name: "ra", Data: b.RA},
		{Name: "dec", Data: b.Dec},
		{Name: "z", Data: b.Z},
	}
}

func (b *Batch) AddRow(row lightcurve.Row) {
	b.Survey.Append(row.Survey)
	b.Release.Append(row.Release)
	b.ObjID.Append(row.ObjID)
	b.Time.Append(row.Time)
	b.Band.Append(row.Band)
	b.Flux.Append(row.Flux)
	b.FluxErr.Append(row.FluxErr)
	b.ZP.Append(row.ZP)
	b.ZPSys.Append(row.ZPSys)
	b.RA.Append(row.RA)
	b.Dec.Append(row.Dec)
	b.Z.Append(row.Z)
}

func flushBatch(ctx context.Context, conn *ch.Client, tableFQN string, batch *Batch) error {
	if batch.Len() == 0 {
		return nil
	}

	input := batch.Input()
	query := fmt.Sprintf("INSERT INTO %s (survey, release, obj_id, time, band, flux, fluxerr, zp, zpsys, ra, dec, z) VALUES", tableFQN)
	return conn.Do(ctx, ch.Query{
		Body:  query,
		Input: input,
	})
}

func processFile(ctx context.Context, filePath, chHost, chDB, chTable string, stats *common.Stats, wg *sync.WaitGroup) {
	defer wg.Done()

	fileName := filepath.Base(filePath)

	f, err := os.Open(filePath)
	if err != nil {
		log.Printf("[%s] Open error: %v", fileName, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Printf("[%s] Stat error: %v", fileName, err)
		return
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		log.Printf("[%s] Parquet open error: %v", fileName, err)
		return
	}

	conn, err := ch.Dial(ctx, ch.Options{
		Address:     chHost,
		Database:    chDB,
		Compression: ch.CompressionLZ4,
	})
	if err != nil {
		log.Printf("[%s] Connect error: %v", fileName, err)
		return
	}
	defer conn.Close()

	tableFQN := fmt.Sprintf("%s.%s", chDB, chTable)
	startTime := time.Now()
	batch := NewBatch()
	rowCount := 0

	reader := parquet.NewGenericReader[lightcurve.Row](pf)
	rows := make([]lightcurve.Row, 1000)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := reader.Read(rows)
		if n == 0 {
			break
		}

		for i := 0; i < n; i++ {
			batch.AddRow(rows[i])
			rowCount++

			if batch.Len() >= BatchSize {
				if err := flushBatch(ctx, conn, tableFQN, batch); err != nil {
					log.Printf("[%s] Flush error: %v", fileName, err)
				}
				batch.Reset()
			}
		}

		if err != nil {
			break
		}
	}

	if err := flushBatch(ctx, conn, tableFQN, batch); err != nil {
		log.Printf("[%s] Final flush error: %v", fileName, err)
	}

	elapsed := time.Since(startTime)
	stats.AddRows(uint64(rowCount))
	stats.AddBytes(uint64(info.Size()))
	stats.AddObjects(1)

	log.Printf("[%s] %d rows in %.1fs (%.0f rows/s)",
		fileName, rowCount, elapsed.Seconds(), float64(rowCount)/elapsed.Seconds())
}

func main() {
	cfg := common.DefaultConfig()

	chHost := flag.String("ch-host", cfg.ClickHouseHost, "ClickHouse address")
	chDB := flag.String("ch-db", cfg.ClickHouseDatabase, "ClickHouse database")
	chTable := flag.String("ch-table", "observations", "ClickHouse table")
	workers := flag.Int("workers", NumWorkers, "Number of parallel file workers")
	sourceDir := flag.String("source-dir", cfg.ParquetDir(), "Default Parquet source directory")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "sndata-parquet-load v%s - Native Go Parquet Loader\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [files...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "If no files are specified, loads every file under -source-dir.\n")
		fmt.Fprintf(os.Stderr, "Export Parquet files first with sndata-export.\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		matches, err := filepath.Glob(filepath.Join(*sourceDir, "*.parquet"))
		if err != nil || len(matches) == 0 {
			log.Fatalf("No Parquet files found under %s", *sourceDir)
		}
		files = matches
	}
	sort.Strings(files)

	fmt.Println("=========================================================")
	fmt.Printf("sndata Parquet Load v%s\n", Version)
	fmt.Println("=========================================================")
	fmt.Printf("Target:  %s.%s @ %s\n", *chDB, *chTable, *chHost)
	fmt.Printf("Files:   %d\n", len(files))
	fmt.Printf("Workers: %d parallel\n", *workers)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats := common.NewStats()
	stats.StartReporter()
	startTime := time.Now()

	sem := make(chan struct{}, *workers)
	var wg sync.WaitGroup

	for _, filePath := range files {
		sem <- struct{}{}
		wg.Add(1)
		go func(path string) {
			defer func() { <-sem }()
			processFile(ctx, path, *chHost, *chDB, *chTable, stats, &wg)
		}(filePath)
	}

	wg.Wait()
	stats.StopReporter()
	elapsed := time.Since(startTime)

	fmt.Println()
	fmt.Println("=========================================================")
	fmt.Println("Load Summary")
	fmt.Println("=========================================================")
	fmt.Printf("Files:   %d\n", stats.GetObjects())
	fmt.Printf("Rows:    %d\n", stats.GetRows())
	fmt.Printf("Read:    %.1f MiB\n", float64(stats.GetBytes())/(1024*1024))
	fmt.Printf("Elapsed: %v (%.0f rows/s)\n",
		elapsed.Round(time.Second),
		float64(stats.GetRows())/elapsed.Seconds())
}
