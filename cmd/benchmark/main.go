package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"docsearch/config"
	"docsearch/internal/cli"
	"docsearch/internal/port"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding docsearch.yaml and the cache")
	doc := flag.String("doc", "", "Document to load")
	queries := flag.String("q", "", "Queries to time, separated by '|'")
	topK := flag.Int("k", 5, "Number of results")
	repeat := flag.Int("n", 5, "Runs per query")
	cold := flag.Bool("cold", false, "Ignore the cache and rebuild the document")
	flag.Parse()

	if *doc == "" || *queries == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -doc book.pdf -q \"first query|second query\"")
		fmt.Println("\nReports:")
		fmt.Println("  1. Document load time (cache hit or full build)")
		fmt.Println("  2. Per-query latency over n runs, end to end and index only")
		fmt.Println("  3. Top result for each query")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	app, err := cli.NewApp(cfg, *dir, logger, cfg.Cache.Read && !*cold, cfg.Cache.Write)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Setup failed: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	if *repeat < 1 {
		*repeat = 1
	}
	ctx := context.Background()

	fmt.Println("SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Document: %s\n", *doc)
	fmt.Printf("Model: %s (%s), dimension %d\n", app.Embedder().ModelName(), cfg.Embedding.Provider, app.Embedder().Dimension())

	ingested, err := app.Ingest().Ingest(ctx, *doc, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	source := "built"
	if ingested.CacheHit {
		source = "cache"
	}
	fmt.Printf("Loaded %d pages, %d sentences from %s in %s\n", len(ingested.Pages), len(ingested.Records), source, ingested.Duration)

	search, err := app.NewSearch()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search setup failed: %v\n", err)
		os.Exit(1)
	}
	start := time.Now()
	if err := search.Load(ingested.Records, ingested.Pages); err != nil {
		fmt.Fprintf(os.Stderr, "Index load failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Index built in %s\n\n", time.Since(start))

	for _, q := range strings.Split(*queries, "|") {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		fmt.Printf("Query: %q\n", q)
		fmt.Println(strings.Repeat("-", 70))

		var timings []time.Duration
		var top string
		for i := 0; i < *repeat; i++ {
			t0 := time.Now()
			results, err := search.SearchUncached(ctx, q, *topK)
			timings = append(timings, time.Since(t0))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
				os.Exit(1)
			}
			if len(results) > 0 {
				top = fmt.Sprintf("page %d: %s", results[0].PageIndex+1, preview(results[0].Text))
			}
		}

		vecs, err := app.Embedder().Embed(ctx, []string{q}, port.ModeQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
			os.Exit(1)
		}
		var scans []time.Duration
		for i := 0; i < *repeat; i++ {
			t0 := time.Now()
			if _, err := search.SearchVector(ctx, vecs[0], *topK); err != nil {
				fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
				os.Exit(1)
			}
			scans = append(scans, time.Since(t0))
		}

		fmt.Printf("  end to end  %s\n", summarize(timings))
		fmt.Printf("  index only  %s\n", summarize(scans))
		fmt.Printf("  top: %s\n\n", top)
	}
}

func summarize(timings []time.Duration) string {
	sort.Slice(timings, func(i, j int) bool { return timings[i] < timings[j] })
	return fmt.Sprintf("min %s  median %s  max %s", timings[0], timings[len(timings)/2], timings[len(timings)-1])
}

func preview(s string) string {
	runes := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(runes) > 100 {
		return string(runes[:100]) + "..."
	}
	return string(runes)
}
