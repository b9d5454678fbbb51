package localcache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Save archives the given paths into a single compressed bundle stored under
// key. Paths may be literal paths or glob patterns, resolved against the
// cache's base directory.
//
// Validation failures (bad key, empty path list) and expansion failures
// (no path resolved to anything on disk) are always hard errors; no bundle
// is created. When the archive tool fails, the partial bundle is removed
// and the failure either propagates or, with Config.SkipFailure, is logged
// and swallowed — in which case Save returns (nil, nil), meaning "not saved".
func (c *Cache) Save(ctx context.Context, paths []string, key string) (*SaveResult, error) {
	const op = "save"
	if err := checkKey(op, key); err != nil {
		return nil, err
	}
	if err := checkPaths(op, paths); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expanded, err := c.expandPaths(op, paths, c.baseDir)
	if err != nil {
		return nil, err
	}

	if err := c.fs.MkdirAll(c.storeRoot(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}

	sanitized := sanitizeKey(key)
	dest := c.bundlePath(sanitized)
	c.log.Debug("packing bundle",
		slog.String("key", key),
		slog.String("bundle", dest),
		slog.Int("paths", len(expanded)))

	if err := c.archiver.Pack(ctx, expanded, c.baseDir, dest); err != nil {
		return nil, c.archiveFailure(op, dest, err)
	}

	// Stamp the bundle with the injected clock so newest-wins selection
	// is well-defined even across saves within one filesystem tick.
	now := c.now()
	if err := c.fs.Chtimes(dest, now, now); err != nil {
		c.log.Warn("failed to set bundle timestamp",
			slog.String("bundle", dest),
			slog.Any("error", err))
	}

	info, err := c.fs.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to stat bundle: %w", err)
	}

	c.log.Info("cache saved",
		slog.String("key", key),
		slog.Int64("size", info.Size()))
	return &SaveResult{
		Key:          key,
		SanitizedKey: sanitized,
		Path:         dest,
		Size:         info.Size(),
	}, nil
}

// Restore looks up a bundle for primaryKey, falling back through restoreKeys
// in order, and unpacks the best match into the cache's base directory. The
// paths argument is validated for parity with Save but not re-expanded: the
// bundle already contains whatever was captured at save time.
//
// It returns the result, whether a bundle was restored, and an error.
// A clean miss is (nil, false, nil), not an error. When the archive tool
// fails during unpack, the corrupt bundle is removed and the failure either
// propagates or, with Config.SkipFailure, is logged and reported as a miss.
func (c *Cache) Restore(ctx context.Context, paths []string, primaryKey string, restoreKeys ...string) (*RestoreResult, bool, error) {
	const op = "restore"
	if err := checkKey(op, primaryKey); err != nil {
		return nil, false, err
	}
	if err := checkPaths(op, paths); err != nil {
		return nil, false, err
	}
	for _, key := range restoreKeys {
		if err := checkKey(op, key); err != nil {
			return nil, false, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := append([]string{primaryKey}, restoreKeys...)
	candidates := make([]string, len(keys))
	for i, key := range keys {
		candidates[i] = sanitizeKey(key)
	}

	entries, err := c.scanStore()
	if err != nil {
		return nil, false, fmt.Errorf("failed to scan store: %w", err)
	}

	idx, entry := filterCacheFiles(candidates, entries)
	if entry == nil {
		c.log.Debug("cache miss",
			slog.String("key", primaryKey),
			slog.Int("restore_keys", len(restoreKeys)))
		return nil, false, nil
	}

	bundle := filepath.Join(c.storeRoot(), entry.Path)
	c.log.Debug("unpacking bundle",
		slog.String("key", keys[idx]),
		slog.String("bundle", bundle))

	if err := c.archiver.Unpack(ctx, bundle, c.baseDir); err != nil {
		return nil, false, c.archiveFailure(op, bundle, err)
	}

	c.log.Info("cache restored",
		slog.String("key", keys[idx]),
		slog.Bool("fallback", idx > 0))
	return &RestoreResult{
		MatchedKey:   keys[idx],
		SanitizedKey: candidates[idx],
		Path:         bundle,
		Size:         entry.Size,
		FallbackUsed: idx > 0,
	}, true, nil
}

// Has reports whether any stored bundle matches key or restoreKeys, using
// the same ordered matching as Restore but without unpacking anything.
// Returns false for invalid keys or scan errors.
func (c *Cache) Has(key string, restoreKeys ...string) bool {
	if checkKey("has", key) != nil {
		return false
	}
	for _, k := range restoreKeys {
		if checkKey("has", k) != nil {
			return false
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	candidates := make([]string, 0, len(restoreKeys)+1)
	for _, k := range append([]string{key}, restoreKeys...) {
		candidates = append(candidates, sanitizeKey(k))
	}

	entries, err := c.scanStore()
	if err != nil {
		return false
	}
	_, entry := filterCacheFiles(candidates, entries)
	return entry != nil
}

// Remove deletes the bundle stored under key, if present.
func (c *Cache) Remove(key string) error {
	const op = "remove"
	if err := checkKey(op, key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bundle := c.bundlePath(sanitizeKey(key))
	exists, err := afero.Exists(c.fs, bundle)
	if err != nil {
		return fmt.Errorf("failed to check bundle existence: %w", err)
	}
	if !exists {
		return nil
	}
	if err := c.fs.Remove(bundle); err != nil {
		return fmt.Errorf("failed to remove bundle: %w", err)
	}
	return nil
}

// Clear removes every bundle under the store root.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.fs.RemoveAll(c.storeRoot()); err != nil {
		return fmt.Errorf("failed to remove store root: %w", err)
	}
	if err := c.fs.MkdirAll(c.storeRoot(), 0o755); err != nil {
		return fmt.Errorf("failed to recreate store root: %w", err)
	}
	return nil
}

// archiveFailure logs a failed pack or unpack, removes the offending bundle,
// and applies the SkipFailure policy: nil when failures are being skipped,
// otherwise a KindArchive error wrapping the cause.
func (c *Cache) archiveFailure(op, bundle string, err error) error {
	c.log.Warn("archive tool failed",
		slog.String("op", op),
		slog.String("bundle", bundle),
		slog.Any("error", err))

	if rmErr := c.fs.Remove(bundle); rmErr != nil && !os.IsNotExist(rmErr) {
		c.log.Warn("failed to remove bundle after archive failure",
			slog.String("bundle", bundle),
			slog.Any("error", rmErr))
	}

	if c.cfg.SkipFailure {
		return nil
	}
	return &Error{Kind: KindArchive, Op: op, Msg: "archive tool failed", Err: err}
}
