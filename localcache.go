package localcache

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// NowFunc defines a function that returns the current time.
type NowFunc func() time.Time

// Config carries the externally resolved settings for a cache. It is built
// once at the boundary (from flags, environment, or a host action's inputs)
// and passed to New; nothing in the pipeline reads configuration implicitly.
type Config struct {
	// CacheRoot is the directory under which bundle stores live.
	// Empty means the platform default (user cache dir).
	CacheRoot string

	// Namespace partitions the store root, e.g. a repository identifier.
	// Empty means bundles live directly under CacheRoot.
	Namespace string

	// SkipFailure downgrades archive tool failures to warnings: a failed
	// pack reports "not saved" and a failed unpack reports a cache miss
	// instead of aborting the caller. Validation and expansion failures
	// are never affected.
	SkipFailure bool
}

// Cache stores and retrieves compressed path bundles addressed by key.
// Each operation recomputes everything from its arguments and the
// filesystem; no state is carried between calls beyond the store directory.
type Cache struct {
	cfg      Config
	fs       afero.Fs
	log      *slog.Logger
	archiver Archiver
	now      NowFunc
	baseDir  string
	mu       sync.RWMutex
}

// Option defines a function that configures a Cache.
type Option func(*Cache)

// New creates a cache for the given configuration. The store root directory
// is created if it doesn't exist. It uses the OS filesystem, the built-in
// tar+zstd archiver, and the process working directory as the base directory
// unless overridden with options.
func New(cfg Config, options ...Option) (*Cache, error) {
	if cfg.CacheRoot == "" {
		cfg.CacheRoot = defaultCacheRoot()
	}

	cache := &Cache{
		cfg: cfg,
		fs:  afero.NewOsFs(),
		log: slog.Default(),
		now: time.Now,
	}

	// Apply options
	for _, option := range options {
		option(cache)
	}

	if cache.archiver == nil {
		cache.archiver = newTarZstdArchiver(cache.fs)
	}
	if cache.baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		cache.baseDir = wd
	}

	if err := cache.fs.MkdirAll(cache.storeRoot(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}

	return cache, nil
}

// WithFs sets the filesystem implementation for the cache.
// This is primarily useful for testing with in-memory filesystems.
func WithFs(fs afero.Fs) Option {
	return func(c *Cache) {
		c.fs = fs
	}
}

// WithNowFunc sets the Now() function for the cache. Bundle timestamps are
// taken from it, so tests can make newest-wins selection deterministic.
func WithNowFunc(nowFunc NowFunc) Option {
	return func(c *Cache) {
		c.now = nowFunc
	}
}

// WithLogger sets the structured logger used for warnings, debug traces, and
// forwarded archive tool output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		c.log = log
	}
}

// WithArchiver sets the archive engine used to pack and unpack bundles.
// The default is the built-in tar+zstd engine; use ExecArchiver to shell out
// to the system tar binary instead.
func WithArchiver(a Archiver) Option {
	return func(c *Cache) {
		c.archiver = a
	}
}

// WithBaseDir sets the directory that path specs are resolved against and
// that bundles are unpacked into. Defaults to the process working directory.
func WithBaseDir(dir string) Option {
	return func(c *Cache) {
		c.baseDir = dir
	}
}

// storeRoot returns the directory bundles are stored in. Pure function of
// the two configuration values; no I/O.
func (c *Cache) storeRoot() string {
	return filepath.Join(c.cfg.CacheRoot, c.cfg.Namespace)
}

// bundlePath returns the store path for a sanitized key token.
func (c *Cache) bundlePath(sanitized string) string {
	return filepath.Join(c.storeRoot(), sanitized+"."+c.archiver.Ext())
}

// defaultCacheRoot returns the per-user default store location.
func defaultCacheRoot() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "local-cache")
	}
	return ".local-cache"
}
