package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"tierswap/pkg/config"
	"tierswap/pkg/logging"
	"tierswap/pkg/primitives"
	"tierswap/pkg/swap"
)

// defaultChain is used when BENCHMARK_CONFIG is not set.
const defaultChain = `
logging: {level: error}
states:
  - {name: disk, page_size: 4096, num_pages: 1024, store: {kind: memory}}
  - {name: cache, page_size: 1024, num_pages: 1024, store: {kind: cache}}
  - {name: memory, page_size: 256, num_pages: 1024, store: {kind: memory}}
swappers:
  - {mapping: modulo}
  - {mapping: offset}
`

// BenchmarkResult captures timing statistics for one benchmark case.
type BenchmarkResult struct {
	Case           string        `json:"case"`               // Descriptive name of the benchmark case
	From           string        `json:"from"`               // State the region starts in
	To             string        `json:"to"`                 // State the region is moved to
	RegionLength   uint64        `json:"region_length"`      // Fields requested per operation
	Steps          int           `json:"steps"`              // Steps per operation
	FieldsMoved    uint64        `json:"fields_moved"`       // Fields copied per operation
	Iterations     int           `json:"iterations"`         // Total number of operations
	TotalDuration  time.Duration `json:"total_duration_ns"`  // Wall time for all iterations
	AvgDuration    time.Duration `json:"avg_duration_ns"`    // Average time per operation
	MinDuration    time.Duration `json:"min_duration_ns"`    // Fastest operation
	MaxDuration    time.Duration `json:"max_duration_ns"`    // Slowest operation
	MedianDuration time.Duration `json:"median_duration_ns"` // Median operation time
	P95Duration    time.Duration `json:"p95_duration_ns"`    // 95th percentile
	P99Duration    time.Duration `json:"p99_duration_ns"`    // 99th percentile
	OpsPerSecond   float64       `json:"ops_per_second"`     // Throughput
	Concurrent     int           `json:"concurrent"`         // Number of concurrent goroutines
	SuccessCount   int           `json:"success_count"`      // Operations that succeeded
	ErrorCount     int           `json:"error_count"`        // Operations that failed
	ErrorSamples   []string      `json:"error_samples"`      // Sample error messages
	Timestamp      time.Time     `json:"timestamp"`          // When this case ran
}

// BenchmarkReport aggregates all cases of one run.
type BenchmarkReport struct {
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	TotalDuration time.Duration     `json:"total_duration"`
	Config        string            `json:"config"`
	States        []string          `json:"states"`
	Results       []BenchmarkResult `json:"results"`
}

// main runs the planner and executor benchmarks and writes a JSON report.
//
// Environment variables:
//   - BENCHMARK_OUTPUT: directory for the report (default ./benchmark-results)
//   - BENCHMARK_ITERATIONS: operations per case (default 1000)
//   - BENCHMARK_CONCURRENT: goroutines for the concurrent planning case (default 8)
//   - BENCHMARK_CONFIG: swap system file (default: a three-tier in-memory chain)
//   - BENCHMARK_REGION: fields per operation (default 16384)
func main() {
	outputDir := filepath.Clean(os.Getenv("BENCHMARK_OUTPUT"))
	if outputDir == "." {
		outputDir = "./benchmark-results"
	}

	iterations := envInt("BENCHMARK_ITERATIONS", 1000)
	concurrent := envInt("BENCHMARK_CONCURRENT", 8)
	regionLen := uint64(envInt("BENCHMARK_REGION", 16384))

	configPath := os.Getenv("BENCHMARK_CONFIG")
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load swap system: %v", err)
	}
	if err := logging.Init(cfg.LoggerConfig()); err != nil {
		log.Fatalf("Failed to initialise logging: %v", err)
	}
	defer logging.Close()

	sys, err := cfg.Build()
	if err != nil {
		log.Fatalf("Failed to build swap system: %v", err)
	}
	defer sys.Close()

	_ = os.MkdirAll(outputDir, 0o750) // #nosec G703

	states := sys.States()
	out, in := states[0], states[len(states)-1]

	report := BenchmarkReport{
		StartTime: time.Now(),
		Config:    configPath,
		Results:   []BenchmarkResult{},
	}
	for _, st := range states {
		report.States = append(report.States, fmt.Sprintf("%s(%dx%d)", st.Name(), st.PageSize(), st.NumPages()))
	}
	if report.Config == "" {
		report.Config = "built-in"
	}

	log.Printf("Starting benchmark suite...")
	log.Printf("Chain: %s", strings.Join(report.States, " -> ")) // #nosec G706
	log.Printf("Iterations: %d, Concurrent: %d, Region: %d fields", iterations, concurrent, regionLen)

	// keep the region inside the smallest address space on the path
	limit := in.Capacity()
	for _, st := range states {
		limit = min(limit, st.Capacity())
	}
	regionLen = min(regionLen, limit)
	region := primitives.NewRegion(0, regionLen)

	ctx := context.Background()

	// going out through a direct-mapped state needs the plan that came in
	inbound, err := sys.CreateSwapOperation(region, out, in)
	if err != nil {
		log.Fatalf("Failed to plan inbound operation: %v", err)
	}

	planIn := func() (*swap.SwapOperation, error) { return sys.CreateSwapOperation(region, out, in) }
	cases := []struct {
		name       string
		from, to   *swap.SwapState
		concurrent int
		run        func() (*swap.SwapOperation, error)
	}{
		{"plan in", out, in, 1, planIn},
		{"plan write-back", in, out, 1, func() (*swap.SwapOperation, error) { return sys.CreateWriteBack(inbound) }},
		{"plan in (concurrent)", out, in, concurrent, planIn},
		{"execute in", out, in, 1, func() (*swap.SwapOperation, error) { return sys.Swap(ctx, region, out, in) }},
		{"execute write-back", in, out, 1, func() (*swap.SwapOperation, error) { return sys.WriteBack(ctx, inbound) }},
	}

	for _, c := range cases {
		log.Printf("%s", "\n"+strings.Repeat("=", 80))
		log.Printf("CASE: %s  (%s -> %s)", c.name, c.from.Name(), c.to.Name()) // #nosec G706
		log.Printf("%s", strings.Repeat("=", 80))

		result := runBenchmark(c.name, iterations, c.concurrent, c.run)
		result.From, result.To, result.RegionLength = c.from.Name(), c.to.Name(), regionLen
		report.Results = append(report.Results, result)
		printBenchmarkResult(result)
	}

	report.EndTime = time.Now()
	report.TotalDuration = report.EndTime.Sub(report.StartTime)

	timestamp := time.Now().Format("20060102_150405")
	jsonFile := fmt.Sprintf("%s/swap_benchmark_%s.json", outputDir, timestamp)

	log.Printf("%s", "\n"+strings.Repeat("=", 80))
	log.Printf("BENCHMARK SUITE COMPLETE")
	log.Printf("    Total Duration:     %s", formatDuration(report.TotalDuration))
	log.Printf("    Cases Run:          %d", len(report.Results))

	saveJSONReport(report, jsonFile)
}

func envInt(name string, def int) int {
	v := def
	if s := os.Getenv(name); s != "" {
		_, _ = fmt.Sscanf(s, "%d", &v)
	}
	return v
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse([]byte(defaultChain))
	}
	return config.Load(path)
}

// runBenchmark calls fn iterations times from up to concurrent goroutines
// and collects latency percentiles.
func runBenchmark(name string, iterations, concurrent int, fn func() (*swap.SwapOperation, error)) BenchmarkResult {
	durations := make([]time.Duration, 0, iterations)
	var mu sync.Mutex
	var wg sync.WaitGroup

	var steps int
	var fields uint64
	successCount := 0
	errorCount := 0
	errorSamples := make([]string, 0, 5)
	startTime := time.Now()

	sem := make(chan struct{}, max(concurrent, 1))

	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			opStart := time.Now()
			op, err := fn()
			duration := time.Since(opStart)

			mu.Lock()
			durations = append(durations, duration)
			if err != nil {
				errorCount++
				if len(errorSamples) < 5 {
					errorSamples = append(errorSamples, err.Error())
				}
			} else {
				successCount++
				steps, fields = op.Len(), op.FieldsMoved()
			}
			mu.Unlock()
		}()
	}

	wg.Wait()
	totalDuration := time.Since(startTime)

	result := BenchmarkResult{
		Case:          name,
		Steps:         steps,
		FieldsMoved:   fields,
		Iterations:    iterations,
		TotalDuration: totalDuration,
		Concurrent:    concurrent,
		SuccessCount:  successCount,
		ErrorCount:    errorCount,
		ErrorSamples:  errorSamples,
		Timestamp:     time.Now(),
	}
	if len(durations) == 0 {
		return result
	}

	slices.Sort(durations)

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	result.AvgDuration = sum / time.Duration(len(durations))
	result.MinDuration = durations[0]
	result.MaxDuration = durations[len(durations)-1]
	result.MedianDuration = durations[len(durations)/2]
	result.P95Duration = durations[int(float64(len(durations))*0.95)]
	result.P99Duration = durations[int(float64(len(durations))*0.99)]
	result.OpsPerSecond = float64(iterations) / totalDuration.Seconds()
	return result
}

// formatDuration formats a duration with a unit suited to its size.
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

func printBenchmarkResult(result BenchmarkResult) {
	successRate := float64(result.SuccessCount) / float64(max(result.Iterations, 1)) * 100

	log.Printf("  ┌─ Results")
	log.Printf("  │  Steps / Fields:    %d / %d", result.Steps, result.FieldsMoved)
	log.Printf("  │  Total Time:        %s", formatDuration(result.TotalDuration))
	log.Printf("  │  Avg per Op:        %s", formatDuration(result.AvgDuration))
	log.Printf("  │  Min / Max:         %s / %s", formatDuration(result.MinDuration), formatDuration(result.MaxDuration))
	log.Printf("  │  Median (P50):      %s", formatDuration(result.MedianDuration))
	log.Printf("  │  P95 / P99:         %s / %s", formatDuration(result.P95Duration), formatDuration(result.P99Duration))
	log.Printf("  │  Throughput:        %.0f ops/sec", result.OpsPerSecond)
	log.Printf("  │  Success Rate:      %.1f%% (%d/%d)", successRate, result.SuccessCount, result.Iterations)

	if result.ErrorCount > 0 && len(result.ErrorSamples) > 0 {
		log.Printf("  │  ⚠ %d failures, first: %s", result.ErrorCount, // #nosec G706
			strings.NewReplacer("\n", " ", "\r", " ").Replace(result.ErrorSamples[0]))
	}

	log.Printf("  └─")
}

// saveJSONReport writes the report as indented JSON.
func saveJSONReport(report BenchmarkReport, filename string) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("Error marshaling report: %v", err)
		return
	}

	if err := os.WriteFile(filename, data, 0o600); err != nil { // #nosec G703
		log.Printf("Error writing JSON report: %v", err)
		return
	}

	log.Printf("JSON report saved: %s", filename) // #nosec G706
}
