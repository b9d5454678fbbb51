package localcache

import (
	"reflect"
	"testing"
)

func TestExpandPathsLiteral(t *testing.T) {
	cache, memFs, _ := setupTestCache(t)
	createTestFile(t, memFs, workPath("go.sum"), []byte("sum"))

	got, err := cache.expandPaths("save", []string{"go.sum"}, testBaseDir)
	if err != nil {
		t.Fatalf("expandPaths failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"go.sum"}) {
		t.Fatalf("expandPaths = %v, want [go.sum]", got)
	}
}

func TestExpandPathsLiteralDirectory(t *testing.T) {
	cache, memFs, _ := setupTestCache(t)
	createTestFile(t, memFs, workPath("node_modules", "pkg", "index.js"), []byte("js"))

	got, err := cache.expandPaths("save", []string{"node_modules"}, testBaseDir)
	if err != nil {
		t.Fatalf("expandPaths failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"node_modules"}) {
		t.Fatalf("expandPaths = %v, want [node_modules]", got)
	}
}

func TestExpandPathsGlob(t *testing.T) {
	cache, memFs, _ := setupTestCache(t)
	createTestFile(t, memFs, workPath("dist", "a.js"), []byte("a"))
	createTestFile(t, memFs, workPath("dist", "b.js"), []byte("b"))
	createTestFile(t, memFs, workPath("dist", "readme.md"), []byte("md"))

	got, err := cache.expandPaths("save", []string{"dist/*.js"}, testBaseDir)
	if err != nil {
		t.Fatalf("expandPaths failed: %v", err)
	}
	want := map[string]bool{"dist/a.js": true, "dist/b.js": true}
	if len(got) != 2 {
		t.Fatalf("expandPaths = %v, want two .js entries", got)
	}
	for _, p := range got {
		if !want[p] {
			t.Fatalf("expandPaths returned unexpected entry %q (all: %v)", p, got)
		}
	}
}

func TestExpandPathsRecursiveGlob(t *testing.T) {
	cache, memFs, _ := setupTestCache(t)
	createTestFile(t, memFs, workPath("src", "a.txt"), []byte("a"))
	createTestFile(t, memFs, workPath("src", "deep", "nested", "b.txt"), []byte("b"))
	createTestFile(t, memFs, workPath("src", "deep", "c.log"), []byte("c"))

	got, err := cache.expandPaths("save", []string{"src/**/*.txt"}, testBaseDir)
	if err != nil {
		t.Fatalf("expandPaths failed: %v", err)
	}
	found := make(map[string]bool, len(got))
	for _, p := range got {
		found[p] = true
	}
	if !found["src/a.txt"] || !found["src/deep/nested/b.txt"] {
		t.Fatalf("expandPaths = %v, want both .txt files", got)
	}
	if found["src/deep/c.log"] {
		t.Fatalf("expandPaths matched a non-.txt file: %v", got)
	}
}

func TestExpandPathsGlobMatchesDirectoryWhole(t *testing.T) {
	cache, memFs, _ := setupTestCache(t)
	createTestFile(t, memFs, workPath("mod-a", "file.go"), []byte("a"))
	createTestFile(t, memFs, workPath("mod-b", "file.go"), []byte("b"))

	got, err := cache.expandPaths("save", []string{"mod-*"}, testBaseDir)
	if err != nil {
		t.Fatalf("expandPaths failed: %v", err)
	}
	// A matching directory is recorded once; its children are not listed.
	found := make(map[string]bool, len(got))
	for _, p := range got {
		found[p] = true
	}
	if !found["mod-a"] || !found["mod-b"] || len(got) != 2 {
		t.Fatalf("expandPaths = %v, want exactly [mod-a mod-b]", got)
	}
}

func TestExpandPathsDropsMissingWithRemainder(t *testing.T) {
	cache, memFs, _ := setupTestCache(t)
	createTestFile(t, memFs, workPath("present.txt"), []byte("x"))

	got, err := cache.expandPaths("save", []string{"missing.txt", "present.txt"}, testBaseDir)
	if err != nil {
		t.Fatalf("expandPaths failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"present.txt"}) {
		t.Fatalf("expandPaths = %v, want [present.txt]", got)
	}
}

func TestExpandPathsAllMissingFails(t *testing.T) {
	cache, _, _ := setupTestCache(t)

	_, err := cache.expandPaths("save", []string{"missing.txt", "also-missing/*"}, testBaseDir)
	if !IsExpansion(err) {
		t.Fatalf("expandPaths = %v, want an expansion error", err)
	}
}

func TestExpandPathsPreservesSpecOrder(t *testing.T) {
	cache, memFs, _ := setupTestCache(t)
	createTestFile(t, memFs, workPath("second.txt"), []byte("2"))
	createTestFile(t, memFs, workPath("first.txt"), []byte("1"))

	got, err := cache.expandPaths("save", []string{"second.txt", "first.txt"}, testBaseDir)
	if err != nil {
		t.Fatalf("expandPaths failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"second.txt", "first.txt"}) {
		t.Fatalf("expandPaths = %v, want caller order preserved", got)
	}
}

func TestGlobRoot(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"dist/*.js", "dist"},
		{"src/**/*.txt", "src"},
		{"*.js", ""},
		{"**/*.txt", ""},
		{"a/b/c/*.go", "a/b/c"},
	}
	for _, tt := range tests {
		if got := globRoot(tt.pattern); got != tt.want {
			t.Fatalf("globRoot(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestMatchesGlobPattern(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		want    bool
	}{
		{"dist/a.js", "dist/*.js", true},
		{"dist/sub/a.js", "dist/*.js", false},
		{"dist/sub/a.js", "dist/**/*.js", true},
		{"dist/a.js", "dist/**/*.js", true},
		{"dist", "dist/**", true},
		{"other/a.js", "dist/*.js", false},
	}
	for _, tt := range tests {
		if got := matchesGlobPattern(tt.path, tt.pattern); got != tt.want {
			t.Fatalf("matchesGlobPattern(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
		}
	}
}
