package localcache

import (
	"os"
	"time"

	"github.com/spf13/afero"
)

// cacheFileEntry describes one bundle found in the store during a lookup.
// Entries live only for the duration of the lookup; nothing is persisted.
type cacheFileEntry struct {
	Name    string // filename, e.g. "deps-linux-a1b2c3.tar.zst"
	Path    string // path relative to the store root
	ModTime time.Time
	Size    int64
}

// scanStore lists the bundle files currently present under the store root.
// A missing store root is an empty store, not an error.
func (c *Cache) scanStore() ([]cacheFileEntry, error) {
	infos, err := afero.ReadDir(c.fs, c.storeRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	entries := make([]cacheFileEntry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		entries = append(entries, cacheFileEntry{
			Name:    info.Name(),
			Path:    info.Name(),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return entries, nil
}
