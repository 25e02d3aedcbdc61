// Command benchmark measures conversion throughput on synthetic Patient
// documents and can write CPU and memory profiles of the run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/jsonparquet/pkg/config"
	"github.com/ajitpratap0/jsonparquet/pkg/converter"
	"github.com/ajitpratap0/jsonparquet/pkg/testutil"
)

var (
	rows        = flag.Int("rows", 10000, "Documents per conversion")
	iterations  = flag.Int("count", 20, "Number of conversions")
	compression = flag.String("compression", "snappy", "Parquet codec")
	batchSize   = flag.Int("batch-size", config.DefaultWriteBatchSize, "Maximum rows per row group")
	blockSize   = flag.Int("block-size", config.DefaultBlockSize, "JSON parse block size in bytes")
	workers     = flag.Int("workers", runtime.NumCPU(), "Blocks parsed in parallel")
	seed        = flag.Int64("seed", 1, "Seed for the generated documents")
	cpuFile     = flag.String("cpuprofile", "", "Write CPU profile to file")
	memFile     = flag.String("memprofile", "", "Write memory profile to file")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "benchmark failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *rows <= 0 || *iterations <= 0 {
		return fmt.Errorf("rows and count must be positive")
	}

	cfg := config.NewConfig()
	cfg.Writer.Compression = *compression
	cfg.Writer.WriteBatchSize = *batchSize
	cfg.Reader.BlockSize = *blockSize
	cfg.Reader.Workers = *workers

	conv, err := converter.New(cfg, converter.WithLogger(zap.NewNop()))
	if err != nil {
		return err
	}
	if err := conv.RegisterSchema("Patient", testutil.FullPatientDescription); err != nil {
		return err
	}
	input := testutil.Patients(*rows, *seed)

	fmt.Printf("Documents per conversion: %d (%d bytes)\n", *rows, len(input))
	fmt.Printf("Conversions: %d, codec: %s, workers: %d\n\n", *iterations, *compression, *workers)

	if *cpuFile != "" {
		f, err := os.Create(*cpuFile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	var outputBytes int
	latencies := make([]time.Duration, 0, *iterations)
	start := time.Now()
	for i := 0; i < *iterations; i++ {
		t0 := time.Now()
		buf, err := conv.Convert(context.Background(), "Patient", input)
		if err != nil {
			return err
		}
		latencies = append(latencies, time.Since(t0))
		outputBytes = buf.Len()
		if err := conv.Release(buf); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)
	runtime.ReadMemStats(&after)

	total := *rows * *iterations
	fmt.Printf("Total time:      %v\n", elapsed)
	fmt.Printf("Throughput:      %.0f rows/s, %.1f MB/s\n",
		float64(total)/elapsed.Seconds(),
		float64(len(input)**iterations)/elapsed.Seconds()/(1<<20))
	fmt.Printf("Latency:         min %v, max %v, mean %v\n",
		minDuration(latencies), maxDuration(latencies), elapsed/time.Duration(len(latencies)))
	fmt.Printf("Output size:     %d bytes (%.1f%% of input)\n", outputBytes, 100*float64(outputBytes)/float64(len(input)))
	fmt.Printf("Allocated:       %d bytes/row\n", (after.TotalAlloc-before.TotalAlloc)/uint64(total))

	if *memFile != "" {
		f, err := os.Create(*memFile)
		if err != nil {
			return fmt.Errorf("failed to create memory profile: %w", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}
	return nil
}

func minDuration(ds []time.Duration) time.Duration {
	m := ds[0]
	for _, d := range ds[1:] {
		m = min(m, d)
	}
	return m
}

func maxDuration(ds []time.Duration) time.Duration {
	m := ds[0]
	for _, d := range ds[1:] {
		m = max(m, d)
	}
	return m
}
