// Command ci-pipeline demonstrates wiring local-cache into a CI job wrapper:
// restore dependency directories before the build, save them after.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	localcache "github.com/Tactiq-HQ/local-cache"
)

func main() {
	var (
		cacheRoot   = flag.String("cache-root", "", "Cache root directory (default: platform user cache dir)")
		namespace   = flag.String("namespace", "", "Store namespace, e.g. a repository identifier")
		key         = flag.String("key", "", "Primary cache key")
		restoreKeys = flag.String("restore-keys", "", "Comma-separated fallback keys, tried in order")
		pathList    = flag.String("paths", "", "Comma-separated paths or glob patterns")
		skipFailure = flag.Bool("skip-failure", false, "Treat archive tool failures as cache misses")
		useTar      = flag.Bool("exec-tar", false, "Shell out to the system tar binary instead of the built-in engine")
		doSave      = flag.Bool("save", false, "Save the paths under the key")
		doRestore   = flag.Bool("restore", false, "Restore the paths from the key")
		prune       = flag.Duration("prune", 0, "Remove bundles older than this duration and exit")
		showStats   = flag.Bool("stats", false, "Show store statistics and exit")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	options := []localcache.Option{localcache.WithLogger(log)}
	if *useTar {
		options = append(options, localcache.WithArchiver(&localcache.ExecArchiver{Log: log}))
	}

	cache, err := localcache.New(localcache.Config{
		CacheRoot:   *cacheRoot,
		Namespace:   *namespace,
		SkipFailure: *skipFailure,
	}, options...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch {
	case *prune > 0:
		removed, err := cache.Prune(*prune)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Prune failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Pruned %d bundle(s)\n", removed)

	case *showStats:
		stats, err := cache.Stats()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Bundles:  %d\n", stats.Entries)
		fmt.Printf("Size:     %d bytes\n", stats.TotalSize)
		fmt.Printf("Oldest:   %s ago\n", stats.OldestEntry.Round(time.Second))
		fmt.Printf("Newest:   %s ago\n", stats.NewestEntry.Round(time.Second))

	case *doSave:
		paths := splitList(*pathList)
		start := time.Now()
		saved, err := cache.Save(ctx, paths, *key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Save failed: %v\n", err)
			os.Exit(1)
		}
		if saved == nil {
			fmt.Println("Cache not saved (archive failure skipped)")
			return
		}
		fmt.Printf("Saved %s (%d bytes) in %s\n", saved.Path, saved.Size, time.Since(start).Round(time.Millisecond))

	case *doRestore:
		paths := splitList(*pathList)
		start := time.Now()
		result, hit, err := cache.Restore(ctx, paths, *key, splitList(*restoreKeys)...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Restore failed: %v\n", err)
			os.Exit(1)
		}
		if !hit {
			fmt.Println("Cache miss")
			return
		}
		label := "exact"
		if result.FallbackUsed {
			label = "fallback"
		}
		fmt.Printf("Restored %s (%s match, %d bytes) in %s\n",
			result.MatchedKey, label, result.Size, time.Since(start).Round(time.Millisecond))

	default:
		fmt.Fprintln(os.Stderr, "Specify one of -save, -restore, -stats, or -prune")
		flag.Usage()
		os.Exit(2)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
