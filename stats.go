package localcache

import (
	"fmt"
	"path/filepath"
	"time"
)

// Stats represents cache statistics.
type Stats struct {
	Entries     int           // Total number of stored bundles
	TotalSize   int64         // Total size of all bundles in bytes
	OldestEntry time.Duration // Age of the oldest bundle
	NewestEntry time.Duration // Age of the newest bundle
}

// Stats returns statistics about the bundles currently stored.
func (c *Cache) Stats() (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := c.scanStore()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to scan store: %w", err)
	}

	stats := Stats{}
	var oldest, newest time.Time
	for _, entry := range entries {
		stats.Entries++
		stats.TotalSize += entry.Size

		if oldest.IsZero() || entry.ModTime.Before(oldest) {
			oldest = entry.ModTime
		}
		if newest.IsZero() || entry.ModTime.After(newest) {
			newest = entry.ModTime
		}
	}

	now := c.now()
	if !oldest.IsZero() {
		stats.OldestEntry = now.Sub(oldest)
	}
	if !newest.IsZero() {
		stats.NewestEntry = now.Sub(newest)
	}

	return stats, nil
}

// Prune removes bundles whose modification time is older than the given
// duration and returns the number removed. Pruning is housekeeping for the
// host to schedule; Save and Restore never run it implicitly.
func (c *Cache) Prune(olderThan time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.scanStore()
	if err != nil {
		return 0, fmt.Errorf("failed to scan store: %w", err)
	}

	cutoff := c.now().Add(-olderThan)
	count := 0
	for _, entry := range entries {
		if !entry.ModTime.Before(cutoff) {
			continue
		}
		if err := c.fs.Remove(filepath.Join(c.storeRoot(), entry.Path)); err != nil {
			return count, fmt.Errorf("failed to remove bundle %s: %w", entry.Name, err)
		}
		count++
	}
	return count, nil
}
