package localcache_test

import (
	"context"
	"io"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/afero"

	localcache "github.com/Tactiq-HQ/local-cache"
)

func fixedTime() time.Time {
	return time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDependencyCacheScenario(t *testing.T) {
	isDebug := false // Set to true when you want to troubleshoot issues visually.
	memFs := afero.NewMemMapFs()
	ctx := context.Background()

	workDir := "/build"
	if err := memFs.MkdirAll(workDir, 0o755); err != nil {
		log.Fatalf("Failed to create work dir: %v", err)
	}

	cache, err := localcache.New(
		localcache.Config{CacheRoot: "/var/cache/ci", Namespace: "acme/webapp"},
		localcache.WithFs(memFs),
		localcache.WithBaseDir(workDir),
		localcache.WithNowFunc(fixedTime),
		localcache.WithLogger(quietLogger()),
	)
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}

	// A dependency install produced node_modules; cache it keyed by the
	// lockfile hash.
	if err := afero.WriteFile(memFs, workDir+"/node_modules/left-pad/index.js", []byte("module.exports = pad"), 0o644); err != nil {
		log.Fatalf("Failed to write dependency file: %v", err)
	}

	key := "node-deps-linux-8f7a6b5c"
	saved, err := cache.Save(ctx, []string{"node_modules"}, key)
	if err != nil {
		log.Fatalf("Save failed: %v", err)
	}

	if isDebug {
		spew.Dump(saved)
	}

	// A later run starts from a clean checkout.
	if err := memFs.RemoveAll(workDir + "/node_modules"); err != nil {
		log.Fatalf("Failed to clean work dir: %v", err)
	}

	result, hit, err := cache.Restore(ctx, []string{"node_modules"}, key, "node-deps-linux-")
	if err != nil {
		log.Fatalf("Restore failed: %v", err)
	}
	if !hit {
		log.Fatalf("Expected a cache hit for key %q", key)
	}

	if isDebug {
		spew.Dump(result)
	}

	content, err := afero.ReadFile(memFs, workDir+"/node_modules/left-pad/index.js")
	if err != nil {
		log.Fatalf("Restored dependency missing: %v", err)
	}
	if string(content) != "module.exports = pad" {
		log.Fatalf("Restored content mismatch: %q", content)
	}
}

func TestFallbackRestoreScenario(t *testing.T) {
	isDebug := false // Set to true when you want to troubleshoot issues visually.
	memFs := afero.NewMemMapFs()
	ctx := context.Background()

	workDir := "/build"
	if err := memFs.MkdirAll(workDir, 0o755); err != nil {
		log.Fatalf("Failed to create work dir: %v", err)
	}

	cache, err := localcache.New(
		localcache.Config{CacheRoot: "/var/cache/ci", Namespace: "acme/webapp"},
		localcache.WithFs(memFs),
		localcache.WithBaseDir(workDir),
		localcache.WithNowFunc(fixedTime),
		localcache.WithLogger(quietLogger()),
	)
	if err != nil {
		log.Fatalf("Failed to create cache: %v", err)
	}

	// Yesterday's build cached under an older lockfile hash.
	if err := afero.WriteFile(memFs, workDir+"/vendor/modules.txt", []byte("# v1"), 0o644); err != nil {
		log.Fatalf("Failed to write vendor file: %v", err)
	}
	if _, err := cache.Save(ctx, []string{"vendor"}, "go-deps-linux-11111111"); err != nil {
		log.Fatalf("Save failed: %v", err)
	}
	if err := memFs.RemoveAll(workDir + "/vendor"); err != nil {
		log.Fatalf("Failed to clean vendor: %v", err)
	}

	// Today's lockfile hash has no bundle yet; the partial-key fallback
	// finds yesterday's.
	result, hit, err := cache.Restore(ctx, []string{"vendor"}, "go-deps-linux-22222222", "go-deps-linux-")
	if err != nil {
		log.Fatalf("Restore failed: %v", err)
	}
	if !hit {
		log.Fatal("Expected a fallback cache hit")
	}
	if !result.FallbackUsed || result.MatchedKey != "go-deps-linux-" {
		log.Fatalf("Unexpected match: %+v", result)
	}

	if isDebug {
		spew.Dump(result)
	}
}
