package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"

	"simfinder/internal/errs"
	"simfinder/internal/filesystem"
	"simfinder/internal/indexer"
	"simfinder/internal/search"
	"simfinder/internal/store"
)

// Default store directory path, shared with the service.
const defaultDataDir = "/data"

// Exit codes. Decode and store failures get distinct codes so wrapper
// scripts can tell a bad query image from a bad index file.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitDecode  = 3
	exitStore   = 4
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitUsage)
	}
	command := os.Args[1]
	args := os.Args[2:]

	// Library log lines would interleave with the progress bar; keep
	// them down to warnings unless the operator asked for more.
	if os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") == "" {
		_ = os.Setenv("LOG_LEVEL", "warn")
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	if _, err := os.Stat(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot access data directory: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATA_DIR is set correctly (current: %s)\n", dataDir)
		os.Exit(exitFailure)
	}

	manager := store.NewManager(dataDir)

	var code int
	switch command {
	case "index":
		code = runIndex(ctx, manager, args)
	case "search":
		code = runSearch(ctx, manager, args)
	case "list":
		code = runList(ctx, manager, args)
	case "delete":
		code = runDelete(manager, args)
	case "prune":
		code = runPrune(ctx, manager, args)
	default:
		// Sanitize command input using allowlist to break taint chain
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // G705 - input is sanitized via allowlist in sanitizeCommand; only [a-zA-Z0-9_-] characters pass through
		printUsage()
		code = exitUsage
	}

	// Closed explicitly: os.Exit would skip a deferred close.
	if err := manager.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close stores: %v\n", err)
	}
	os.Exit(code)
}

// sanitizeCommand returns a safe representation of a command string for
// display. It uses an allowlist approach, replacing any character that
// is not alphanumeric, a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("SimFinder Index Management")
	fmt.Println("")
	fmt.Println("Usage: simfind <command> [arguments]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  index <directory>                 - Hash new or changed images in a directory")
	fmt.Println("  search <directory> <image> [n]    - Find images within Hamming distance n (default 8)")
	fmt.Println("  list                              - List all indexes")
	fmt.Println("  delete <name>                     - Delete an index by name")
	fmt.Println("  prune <name>                      - Drop records for files gone from disk")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATA_DIR - Path to store directory (default: %s)\n", defaultDataDir)
}

// exitCodeFor maps an error to the exit code families documented in
// doc.go.
func exitCodeFor(err error) int {
	switch {
	case errs.IsDecode(err):
		return exitDecode
	case errs.IsStore(err):
		return exitStore
	default:
		return exitFailure
	}
}

// openExisting resolves a source directory to its store without
// creating one.
func openExisting(ctx context.Context, manager *store.Manager, directory string) (*store.Store, error) {
	abs, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory: %w", err)
	}
	return manager.Open(ctx, store.Name(abs))
}

func runIndex(ctx context.Context, manager *store.Manager, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: simfind index <directory>")
		return exitUsage
	}
	directory := args[0]

	fi, err := os.Stat(directory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot access %s: %v\n", directory, err)
		return exitFailure
	}
	if !fi.IsDir() {
		fmt.Fprintf(os.Stderr, "Error: %s is not a directory\n", directory)
		return exitUsage
	}

	st, err := manager.OpenOrCreate(ctx, directory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open index: %v\n", err)
		return exitCodeFor(err)
	}

	ix := indexer.New(st, directory, indexer.DefaultConfig())

	// The first snapshot carries the candidate total, so the bar is
	// created from inside the callback. Progress runs on this
	// goroutine; Run does not return until the pass is collected.
	var bar *progressbar.ProgressBar
	ix.SetProgressFunc(func(p indexer.Progress) {
		if bar == nil {
			bar = progressbar.Default(int64(p.Total), "Hashing images")
		}
		_ = bar.Set(p.Processed)
	})

	res, err := ix.Run(ctx)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: indexing failed: %v\n", err)
		return exitCodeFor(err)
	}

	fmt.Printf("Indexed %s: %d files (%d hashed, %d skipped, %d failed) in %v\n",
		st.Name(), res.Total, res.Hashed, res.Skipped, res.Failed,
		res.Duration.Round(time.Millisecond))
	if res.Failed > 0 {
		return exitDecode
	}
	return exitOK
}

func runSearch(ctx context.Context, manager *store.Manager, args []string) int {
	if len(args) < 2 || len(args) > 3 {
		fmt.Fprintln(os.Stderr, "Usage: simfind search <directory> <image> [threshold]")
		return exitUsage
	}

	threshold := search.DefaultThreshold
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: threshold must be a number between %d and %d\n",
				search.MinThreshold, search.MaxThreshold)
			return exitUsage
		}
		threshold = n
	}

	st, err := openExisting(ctx, manager, args[0])
	if err != nil {
		if errs.IsNotFound(err) {
			fmt.Fprintf(os.Stderr, "Error: %s has not been indexed yet (run: simfind index %s)\n", args[0], args[0])
			return exitFailure
		}
		fmt.Fprintf(os.Stderr, "Error: failed to open index: %v\n", err)
		return exitCodeFor(err)
	}

	// One query per invocation; nothing to cache.
	engine := search.New(0)
	matches, err := engine.Search(ctx, st, args[1], threshold)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: search failed: %v\n", err)
		return exitCodeFor(err)
	}

	if len(matches) == 0 {
		fmt.Println("No matches.")
		return exitOK
	}
	for _, m := range matches {
		fmt.Printf("%2d  %s\n", m.Distance, m.Path)
	}
	return exitOK
}

func runList(ctx context.Context, manager *store.Manager, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "Usage: simfind list")
		return exitUsage
	}

	infos, err := manager.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list indexes: %v\n", err)
		return exitCodeFor(err)
	}

	if len(infos) == 0 {
		fmt.Println("No indexes.")
		return exitOK
	}
	for _, info := range infos {
		fmt.Printf("%-32s %8d  %s\n", info.Name, info.Records, info.SourcePath)
	}
	return exitOK
}

func runDelete(manager *store.Manager, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: simfind delete <name>")
		return exitUsage
	}

	if err := manager.Delete(args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to delete index: %v\n", err)
		return exitCodeFor(err)
	}
	fmt.Printf("Deleted %s\n", args[0])
	return exitOK
}

func runPrune(ctx context.Context, manager *store.Manager, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: simfind prune <name>")
		return exitUsage
	}

	st, err := manager.Open(ctx, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open index: %v\n", err)
		return exitCodeFor(err)
	}

	removed, err := indexer.PruneMissing(ctx, st, filesystem.DefaultRetryConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: prune failed: %v\n", err)
		return exitCodeFor(err)
	}
	fmt.Printf("Pruned %s: removed %d records\n", args[0], removed)
	return exitOK
}
