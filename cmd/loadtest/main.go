// Loadtest drives a running favicon API with concurrent icon lookups and
// reports latency percentiles per domain. The first pass over each domain is
// a cold lookup; everything after it should be served from the cache.
//
// Usage:
//
//	go run ./cmd/loadtest -base http://localhost:3000 -domains github.com,go.dev -requests 500
//	go run ./cmd/loadtest -domains-file domains.txt -concurrency 50 -out summary.json
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type domainStats struct {
	Count     int             `json:"count"`
	Status    map[int]int     `json:"status"`
	Bytes     int64           `json:"bytes"`
	Latencies []time.Duration `json:"-"`
}

type summary struct {
	Base          string                    `json:"base"`
	Requests      int                       `json:"requests"`
	Concurrency   int                       `json:"concurrency"`
	Errors        int                       `json:"errors"`
	DurationMs    int64                     `json:"duration_ms"`
	ThroughputRPS float64                   `json:"throughput_rps"`
	Domains       map[string]domainPercents `json:"domains"`
}

type domainPercents struct {
	Count int         `json:"count"`
	Cold  float64     `json:"cold_ms"`
	P50   float64     `json:"p50_ms"`
	P99   float64     `json:"p99_ms"`
	Codes map[int]int `json:"status"`
}

func main() {
	var (
		base        = flag.String("base", "http://localhost:3000", "Favicon API base URL")
		domainList  = flag.String("domains", "github.com,go.dev,wikipedia.org", "Comma separated domains")
		domainsFile = flag.String("domains-file", "", "File with one domain per line (overrides -domains)")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		timeout     = flag.Duration("timeout", 30*time.Second, "Per-request timeout")
		outJSON     = flag.String("out", "", "Write JSON summary to this file (optional)")
		verbose     = flag.Bool("v", false, "Log every request")
	)
	flag.Parse()

	if err := validateLimits(*concurrency, *requests); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	domains, err := loadDomains(*domainList, *domainsFile)
	if err != nil || len(domains) == 0 {
		fmt.Fprintf(os.Stderr, "no domains to query: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: *timeout}
	stats := make(map[string]*domainStats, len(domains))
	for _, d := range domains {
		stats[d] = &domainStats{Status: map[int]int{}}
	}

	var (
		mu       sync.Mutex
		failures int
	)

	var g errgroup.Group
	g.SetLimit(*concurrency)

	start := time.Now()
	for i := 0; i < *requests; i++ {
		i := i
		domain := domains[i%len(domains)]
		g.Go(func() error {
			began := time.Now()
			resp, err := client.Get(strings.TrimRight(*base, "/") + "/favicon/" + domain + ".png")
			took := time.Since(began)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				failures++
				if *verbose {
					fmt.Printf("idx=%d domain=%s error=%v\n", i, domain, err)
				}
				return nil
			}
			n, _ := io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			s := stats[domain]
			s.Count++
			s.Status[resp.StatusCode]++
			s.Bytes += n
			s.Latencies = append(s.Latencies, took)

			if *verbose {
				fmt.Printf("idx=%d domain=%s status=%d dur=%v\n", i, domain, resp.StatusCode, took)
			}
			return nil
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	report := summary{
		Base:          *base,
		Requests:      *requests,
		Concurrency:   *concurrency,
		Errors:        failures,
		DurationMs:    elapsed.Milliseconds(),
		ThroughputRPS: float64(*requests) / elapsed.Seconds(),
		Domains:       make(map[string]domainPercents, len(stats)),
	}

	fmt.Println("--- Favicon Load Test Summary ---")
	fmt.Printf("Target: %s  Requests: %d  Concurrency: %d\n", *base, *requests, *concurrency)
	fmt.Printf("Errors: %d  Duration: %v  Throughput: %.2f req/s\n\n", failures, elapsed, report.ThroughputRPS)

	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		s := stats[k]
		if len(s.Latencies) == 0 {
			fmt.Printf("  %s -> no responses\n", k)
			continue
		}

		// Requests complete out of order; the slowest one is the cold lookup.
		sorted := slices.Clone(s.Latencies)
		slices.Sort(sorted)

		p := domainPercents{
			Count: s.Count,
			Cold:  ms(sorted[len(sorted)-1]),
			P50:   ms(percentile(sorted, 0.50)),
			P99:   ms(percentile(sorted, 0.99)),
			Codes: s.Status,
		}
		report.Domains[k] = p

		fmt.Printf("  %-30s n=%-5d cold=%.1fms p50=%.2fms p99=%.2fms status=%v bytes=%d\n",
			k, p.Count, p.Cold, p.P50, p.P99, s.Status, s.Bytes)
	}

	if *outJSON != "" {
		if err := writeJSON(*outJSON, report); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write json summary: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if failures > 0 {
		os.Exit(2)
	}
}

// validateLimits rejects worker and request counts that would stall the
// worker pool or send nothing.
func validateLimits(concurrency, requests int) error {
	if concurrency < 1 {
		return fmt.Errorf("-concurrency must be at least 1, got %d", concurrency)
	}
	if requests < 1 {
		return fmt.Errorf("-requests must be at least 1, got %d", requests)
	}
	return nil
}

func loadDomains(list, file string) ([]string, error) {
	if file == "" {
		var out []string
		for _, d := range strings.Split(list, ",") {
			if d = strings.TrimSpace(d); d != "" {
				out = append(out, d)
			}
		}
		return out, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func percentile(sorted []time.Duration, pct float64) time.Duration {
	idx := int(float64(len(sorted)-1) * pct)
	return sorted[idx]
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
