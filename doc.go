/*
Package localcache provides a key-addressed directory/file cache for build
and CI hosts.

Given a set of filesystem paths and a textual key, Save archives the paths
into a single compressed bundle and stores it in a shared cache directory.
Restore reconstructs the original paths from a stored bundle, optionally
falling back through an ordered list of alternate keys when the exact key has
no stored match. The typical use is reusing previously produced artifacts
(dependency directories, build output) across CI runs, keyed by a hash of
their inputs.

# Store layout

Each cache entry is one compressed archive file named after the sanitized
key:

	<cacheRoot>/<namespace>/<sanitizedKey>.tar.zst

There is no manifest or sub-indexing; the store directory itself is the
index. Bundles are created by Save, read (never mutated) by Restore, and
deleted only as failure cleanup or via the Remove/Clear/Prune housekeeping
helpers.

# Matching

Restore tries the primary key first, then each restore key in caller order.
A candidate matches a stored bundle when the bundle's filename contains the
sanitized candidate as a substring; the first candidate with any match wins,
and among its matches the most recently saved bundle wins. A miss is a
normal outcome, not an error.

# Basic usage

Creating a cache and saving paths:

	cache, err := localcache.New(localcache.Config{
	    CacheRoot: "/var/cache/ci",
	    Namespace: "my-org/my-repo",
	})
	if err != nil {
	    log.Fatalf("Failed to create cache: %v", err)
	}

	saved, err := cache.Save(ctx, []string{"node_modules", "dist/*.js"}, key)
	if err != nil {
	    log.Fatalf("Save failed: %v", err)
	}

Restoring with fallback keys:

	result, hit, err := cache.Restore(ctx, paths, key, "deps-linux-", "deps-")
	if err != nil {
	    log.Fatalf("Restore failed: %v", err)
	}
	if hit {
	    fmt.Printf("restored from %s\n", result.MatchedKey)
	}

# Errors

Operations return *Error values tagged with a Kind (KindValidation,
KindExpansion, KindArchive). Validation and expansion failures always
propagate. Archive tool failures are policy-controlled: with
Config.SkipFailure set they are logged, the offending bundle is removed, and
the operation reports "not saved" or a miss instead of failing, so a CI
caller can treat a broken cache as "cache unavailable, proceed without it".

# Archive engines

The default engine writes tar streams compressed with zstd in-process and
honors the cache's filesystem (including in-memory filesystems for tests).
ExecArchiver shells out to the system tar binary instead, forwarding the
child's output line by line to the cache's logger.

Concurrent writers to the same key from separate processes are not
coordinated; the last writer wins at the filesystem level.
*/
package localcache
