// Package main provides a performance benchmarking tool for the devflow CLI.
// It measures report times for a set of GitLab users and windows, running each
// test multiple times, treating the first successful cached run as cold and averaging
// the rest as warm, and generating CSV output for performance analysis.
//
// Prerequisites:
// - devflow binary installed and available in PATH
// - DEVFLOW_GITLAB_URL and DEVFLOW_GITLAB_TOKEN exported for the target instance
//
// Usage: go run benchmark/main.go <user-id> [user-id...]
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	User        string
	Window      string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Users       []string
	WindowDays  []int
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s <user-id> [user-id...]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 2,
		CacheRuns:   4,
		Users:       os.Args[1:],
		WindowDays:  []int{30, 90, 365},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("devflow", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the devflow binary and GitLab credentials exist
func checkPrerequisites() error {
	if _, err := exec.LookPath("devflow"); err != nil {
		return fmt.Errorf("devflow binary not found in PATH")
	}
	if os.Getenv("DEVFLOW_GITLAB_TOKEN") == "" {
		return fmt.Errorf("DEVFLOW_GITLAB_TOKEN is not set")
	}
	return nil
}

// runBenchmarks executes all benchmark tests across configured users and windows
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d users, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Users), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, user := range config.Users {
		for _, days := range config.WindowDays {
			results = append(results, runBenchmarkSuite(config, user, days))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for one report
func runBenchmarkSuite(config BenchmarkConfig, user string, days int) BenchmarkResult {
	window := fmt.Sprintf("%dd", days)
	fmt.Printf("Running report for user %s over %s\n", user, window)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, user, days, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		User:        user,
		Window:      window,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a devflow report multiple times with the specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, user string, days int, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"report", user,
		"--days", fmt.Sprint(days),
		"--workers", fmt.Sprint(config.Workers),
		"--cache-backend", cacheBackend,
		"--history-backend", "none",
		"--color", "no",
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("devflow", args...)

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/devflow_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"user", "window", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.User, result.Window, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary grouped by window
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, days := range config.WindowDays {
		window := fmt.Sprintf("%dd", days)
		fmt.Printf("Window %s:\n", window)
		for _, result := range results {
			if result.Window == window {
				fmt.Printf("  %-10s: No-cache: %s, Cold: %s, Warm: %s\n", result.User, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
