package localcache

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// expandPaths resolves the caller's path specs against baseDir, in list
// order. Each spec is first tried as a glob pattern; if the pattern matches
// nothing it is tried once as a literal existing path; if that also fails the
// spec is dropped with a warning. The result keeps first-seen order and
// records every entry relative to baseDir. An empty final list is a hard
// expansion error.
func (c *Cache) expandPaths(op string, specs []string, baseDir string) ([]string, error) {
	var expanded []string
	for _, spec := range specs {
		matches, err := expandGlob(c.fs, baseDir, spec)
		if err != nil {
			// Filesystem trouble while scanning is not fatal for the
			// request; the spec falls through to the literal check.
			c.log.Warn("glob expansion failed",
				slog.String("pattern", spec),
				slog.Any("error", err))
			matches = nil
		}
		if len(matches) > 0 {
			expanded = append(expanded, matches...)
			continue
		}
		if _, err := c.fs.Stat(filepath.Join(baseDir, spec)); err == nil {
			expanded = append(expanded, filepath.Clean(spec))
			continue
		}
		c.log.Warn("path matched nothing, skipping", slog.String("path", spec))
	}

	if len(expanded) == 0 {
		return nil, newError(KindExpansion, op, "no valid paths in %q", strings.Join(specs, ", "))
	}
	return expanded, nil
}

// expandGlob expands a glob pattern (supporting ** for recursive matching)
// relative to baseDir and returns matching entries as baseDir-relative paths.
// Files and directories are both eligible; a matching directory is recorded
// once and not descended into, since bundles capture directories recursively.
// Symbolic links are not followed. Returns no matches for a pattern without
// glob metacharacters.
func expandGlob(fs afero.Fs, baseDir, pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	if !strings.ContainsAny(pattern, "*?[") {
		return nil, nil
	}

	walkRoot := baseDir
	if root := globRoot(pattern); root != "" {
		walkRoot = filepath.Join(baseDir, root)
	}
	exists, err := afero.DirExists(fs, walkRoot)
	if err != nil || !exists {
		return nil, err
	}

	var matches []string
	err = afero.Walk(fs, walkRoot, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			// Suppress filesystem errors such as permission denied.
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		rel, relErr := filepath.Rel(baseDir, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if !matchesGlobPattern(rel, pattern) {
			return nil
		}
		matches = append(matches, rel)
		if info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	return matches, err
}

// globRoot returns the longest directory prefix of pattern that contains no
// glob metacharacters, used to narrow the walk.
func globRoot(pattern string) string {
	segments := strings.Split(pattern, "/")
	var root []string
	for _, segment := range segments[:len(segments)-1] {
		if strings.ContainsAny(segment, "*?[") {
			break
		}
		root = append(root, segment)
	}
	return filepath.Join(root...)
}

// matchesGlobPattern checks if a path matches a pattern with ** support.
func matchesGlobPattern(path, pattern string) bool {
	pattern = filepath.ToSlash(pattern)
	path = filepath.ToSlash(path)

	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")

	return matchGlobParts(pathParts, patternParts, 0, 0)
}

// matchGlobParts recursively matches path parts against pattern parts.
func matchGlobParts(pathParts, patternParts []string, pathIdx, patternIdx int) bool {
	if patternIdx >= len(patternParts) {
		return pathIdx >= len(pathParts)
	}

	if pathIdx >= len(pathParts) {
		for i := patternIdx; i < len(patternParts); i++ {
			if patternParts[i] != "**" {
				return false
			}
		}
		return true
	}

	patternPart := patternParts[patternIdx]
	pathPart := pathParts[pathIdx]

	if patternPart == "**" {
		if matchGlobParts(pathParts, patternParts, pathIdx, patternIdx+1) {
			return true
		}
		return matchGlobParts(pathParts, patternParts, pathIdx+1, patternIdx)
	}

	matched, err := filepath.Match(patternPart, pathPart)
	if err != nil || !matched {
		return false
	}

	return matchGlobParts(pathParts, patternParts, pathIdx+1, patternIdx+1)
}
