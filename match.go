package localcache

import "strings"

// filterCacheFiles selects the best stored bundle for an ordered list of
// sanitized candidate keys. Candidates are tried strictly in order: the
// first candidate with at least one matching entry wins, and matches from
// later candidates are never considered even if they exist. A candidate
// matches an entry when the entry's filename contains the candidate as a
// substring — containment, not an anchored prefix, which is the documented
// (if loose) matching rule. Among one candidate's matches the entry with the
// greatest modification time wins; the comparison is strict, so scan order
// breaks ties stably.
//
// Returns the index of the winning candidate and its entry, or (-1, nil)
// when no candidate matches anything.
func filterCacheFiles(candidates []string, entries []cacheFileEntry) (int, *cacheFileEntry) {
	for i, candidate := range candidates {
		var best *cacheFileEntry
		for j := range entries {
			if !strings.Contains(entries[j].Name, candidate) {
				continue
			}
			if best == nil || entries[j].ModTime.After(best.ModTime) {
				best = &entries[j]
			}
		}
		if best != nil {
			return i, best
		}
	}
	return -1, nil
}
