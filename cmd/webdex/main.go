// Command webdex builds and queries a TF-IDF inverted index over a corpus
// of crawled HTML pages.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kittclouds/webdex/internal/build"
	"github.com/kittclouds/webdex/internal/config"
	"github.com/kittclouds/webdex/pkg/query"
	"github.com/kittclouds/webdex/pkg/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "search":
		runSearch(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: webdex build --corpus DIR --out DIR [flags]")
	fmt.Fprintln(os.Stderr, "       webdex search --index DIR --query Q")
	fmt.Fprintln(os.Stderr, "       webdex search --index DIR --repl")
}

func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	corpusDir := fs.String("corpus", "", "directory containing the crawled corpus")
	outDir := fs.String("out", "", "directory to write the index into")
	chunkSize := fs.Int("chunk-size", config.Default().ChunkSize, "documents processed before a spill")
	tokenCeiling := fs.Int("token-ceiling", config.Default().TokenCeiling, "distinct terms before a spill")
	stopwords := fs.Bool("filter-stopwords", false, "filter English stopwords (must match search)")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Parse(args)

	if *corpusDir == "" || *outDir == "" {
		fmt.Fprintln(os.Stderr, "build requires --corpus and --out")
		os.Exit(2)
	}

	logger := newLogger(*verbose)
	cfg := config.New(
		config.WithChunkSize(*chunkSize),
		config.WithTokenCeiling(*tokenCeiling),
		config.WithStopwordFilter(*stopwords),
	)

	fmt.Println("Building index...")
	stats, err := build.Build(cfg, *corpusDir, *outDir, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("  scanned:  %d\n", stats.DocumentsScanned)
	fmt.Printf("  indexed:  %d\n", stats.DocumentsIndexed)
	fmt.Printf("  skipped:  %d (near-duplicate)\n", stats.DocumentsSkipped)
	fmt.Printf("  segments: %d\n", stats.SegmentsWritten)
	fmt.Printf("  terms:    %d\n", stats.DistinctTerms)
	fmt.Printf("  index:    %s\n", stats.FinalIndexPath)
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	indexDir := fs.String("index", "", "directory containing final_index.jsonl")
	queryStr := fs.String("query", "", "query string")
	repl := fs.Bool("repl", false, "read queries from stdin until 'exit'")
	stopwords := fs.Bool("filter-stopwords", false, "must match the value used at build time")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Parse(args)

	if *indexDir == "" {
		fmt.Fprintln(os.Stderr, "search requires --index")
		os.Exit(2)
	}

	logger := newLogger(*verbose)
	indexPath := *indexDir + string(os.PathSeparator) + build.FinalIndexName

	s, err := store.Open(indexPath, store.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open index: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	engine := query.NewEngine(s, *stopwords)

	if *repl {
		runREPL(engine)
		return
	}

	if *queryStr == "" {
		fmt.Fprintln(os.Stderr, "search requires --query or --repl")
		os.Exit(2)
	}
	printResults(engine, *queryStr)
}

func runREPL(engine *query.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nEnter your search query (or type 'exit' to quit): ")
		if !scanner.Scan() {
			return
		}
		q := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(q, "exit") {
			fmt.Println("Exiting search.")
			return
		}
		printResults(engine, q)
	}
}

func printResults(engine *query.Engine, q string) {
	res, err := engine.Search(q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
		return
	}
	if len(res.Docs) == 0 {
		fmt.Println("No results found.")
	}
	for rank, d := range res.Docs {
		fmt.Printf("%d. %s (%.6f)\n", rank+1, d.DocID, d.Score)
	}
	fmt.Printf("Elapsed time: %s\n", res.Stats.Elapsed)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
