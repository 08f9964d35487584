package fetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestFSFetch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"package.json":              []byte(`{"name": "app"}`),
		"src/index.js":              []byte("console.log('hi')"),
		"src/components/App.jsx":    []byte("export const App = () => null"),
		".babelrc":                  []byte("{}"),
		".git/config":               []byte("[core]"),
		"node_modules/react/idx.js": []byte("module.exports = {}"),
		"dist/bundle.js":            []byte("!function(){}()"),
	})

	fs := &FS{}
	snapshot, err := fs.Fetch(context.Background(), Locator{Path: root})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	want := []string{".babelrc", "package.json", "src/components/App.jsx", "src/index.js"}
	if snapshot.TotalFiles != len(want) {
		t.Fatalf("TotalFiles = %d, want %d; files = %+v", snapshot.TotalFiles, len(want), snapshot.Files)
	}
	for i, path := range want {
		if snapshot.Files[i].Path != path {
			t.Errorf("Files[%d].Path = %q, want %q", i, snapshot.Files[i].Path, path)
		}
	}

	m := snapshot.Map()
	if m["src/index.js"] != "console.log('hi')" {
		t.Errorf("content mismatch for src/index.js: %q", m["src/index.js"])
	}
	if snapshot.TotalSize == 0 {
		t.Errorf("TotalSize = 0, want positive")
	}
}

func TestFSFetchSkipsBinaries(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"logo.png":     {0x89, 'P', 'N', 'G', 0x00, 0x1a},
		"src/index.js": []byte("export {}"),
	})

	fs := &FS{}
	snapshot, err := fs.Fetch(context.Background(), Locator{Path: root})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if snapshot.TotalFiles != 1 {
		t.Fatalf("TotalFiles = %d, want 1", snapshot.TotalFiles)
	}
	if len(snapshot.SkippedFiles) != 1 || snapshot.SkippedFiles[0] != "logo.png" {
		t.Errorf("SkippedFiles = %v, want [logo.png]", snapshot.SkippedFiles)
	}
}

func TestFSFetchSkipsOversizeFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"big.js":   []byte(strings.Repeat("x", 100)),
		"small.js": []byte("ok"),
	})

	fs := &FS{MaxFileSize: 50}
	snapshot, err := fs.Fetch(context.Background(), Locator{Path: root})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if snapshot.TotalFiles != 1 || snapshot.Files[0].Path != "small.js" {
		t.Fatalf("Files = %+v, want only small.js", snapshot.Files)
	}
	if len(snapshot.SkippedFiles) != 1 || snapshot.SkippedFiles[0] != "big.js" {
		t.Errorf("SkippedFiles = %v, want [big.js]", snapshot.SkippedFiles)
	}
}

func TestFSFetchExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"src/app.js":        []byte("a"),
		"src/vendor.min.js": []byte("b"),
		"fixtures/data.txt": []byte("c"),
	})

	fs := &FS{Exclude: []string{"*.min.js", "fixtures/*"}}
	snapshot, err := fs.Fetch(context.Background(), Locator{Path: root})
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	if snapshot.TotalFiles != 1 || snapshot.Files[0].Path != "src/app.js" {
		t.Fatalf("Files = %+v, want only src/app.js", snapshot.Files)
	}
	want := []string{"fixtures/data.txt", "src/vendor.min.js"}
	if len(snapshot.SkippedFiles) != len(want) {
		t.Fatalf("SkippedFiles = %v, want %v", snapshot.SkippedFiles, want)
	}
	for i, path := range want {
		if snapshot.SkippedFiles[i] != path {
			t.Errorf("SkippedFiles[%d] = %q, want %q", i, snapshot.SkippedFiles[i], path)
		}
	}
}

func TestFSFetchBadPath(t *testing.T) {
	fs := &FS{}

	if _, err := fs.Fetch(context.Background(), Locator{}); err == nil {
		t.Errorf("Fetch with empty path = nil error, want error")
	}

	if _, err := fs.Fetch(context.Background(), Locator{Path: filepath.Join(t.TempDir(), "gone")}); err == nil {
		t.Errorf("Fetch of missing dir = nil error, want error")
	}

	root := t.TempDir()
	writeTree(t, root, map[string][]byte{"file.txt": []byte("x")})
	if _, err := fs.Fetch(context.Background(), Locator{Path: filepath.Join(root, "file.txt")}); err == nil {
		t.Errorf("Fetch of a plain file = nil error, want error")
	}
}

func TestFSFetchCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{"file.js": []byte("x")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fs := &FS{}
	if _, err := fs.Fetch(ctx, Locator{Path: root}); err == nil {
		t.Errorf("Fetch with cancelled context = nil error, want error")
	}
}
