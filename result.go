package localcache

// SaveResult describes a bundle produced by Save.
type SaveResult struct {
	// Key is the caller-supplied key.
	Key string

	// SanitizedKey is the token used in the bundle filename.
	SanitizedKey string

	// Path is the bundle's location in the store.
	Path string

	// Size is the bundle size in bytes.
	Size int64
}

// RestoreResult describes a bundle restored by Restore.
type RestoreResult struct {
	// MatchedKey is the caller-supplied key whose bundle was restored.
	// It differs from the primary key when a restore key matched instead.
	MatchedKey string

	// SanitizedKey is the sanitized form of MatchedKey.
	SanitizedKey string

	// Path is the bundle's location in the store.
	Path string

	// Size is the bundle size in bytes.
	Size int64

	// FallbackUsed is true when a restore key matched instead of the
	// primary key.
	FallbackUsed bool
}
