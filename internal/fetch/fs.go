package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxFileSize bounds what the filesystem fetcher reads into memory
const DefaultMaxFileSize = 1 << 20 // 1 MiB

// skippedDirs are never descended into
var skippedDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
	"bin":          true,
}

// FS fetches a snapshot from a local checkout. Dot-directories, build output
// directories, binary files, and files over MaxFileSize are skipped; skipped
// paths are reported on the snapshot rather than silently dropped.
type FS struct {
	// MaxFileSize overrides DefaultMaxFileSize when positive.
	MaxFileSize int64
	// Exclude holds glob patterns matched against the relative path and the
	// base name, so "*.min.js" works at any depth.
	Exclude []string
}

// Fetch walks repo.Path and captures every eligible file.
func (f *FS) Fetch(ctx context.Context, repo Locator) (*Snapshot, error) {
	root := repo.Path
	if root == "" {
		return nil, fmt.Errorf("filesystem fetcher requires a local path")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat repository: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository path %s is not a directory", root)
	}

	maxSize := f.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	snapshot := &Snapshot{}
	err = filepath.Walk(root, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := info.Name()
		if info.IsDir() {
			if filePath != root && (strings.HasPrefix(name, ".") || skippedDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, filePath)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if f.excluded(relPath) {
			snapshot.SkippedFiles = append(snapshot.SkippedFiles, relPath)
			return nil
		}
		if info.Size() > maxSize {
			snapshot.SkippedFiles = append(snapshot.SkippedFiles, relPath)
			return nil
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("read file %s: %w", relPath, err)
		}
		if isBinary(content) {
			snapshot.SkippedFiles = append(snapshot.SkippedFiles, relPath)
			return nil
		}

		snapshot.Files = append(snapshot.Files, File{
			Path:    relPath,
			Content: string(content),
			Size:    info.Size(),
		})
		snapshot.TotalSize += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}

	sort.Slice(snapshot.Files, func(i, j int) bool {
		return snapshot.Files[i].Path < snapshot.Files[j].Path
	})
	sort.Strings(snapshot.SkippedFiles)
	snapshot.TotalFiles = len(snapshot.Files)
	return snapshot, nil
}

func (f *FS) excluded(relPath string) bool {
	for _, pattern := range f.Exclude {
		if ok, err := filepath.Match(pattern, relPath); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(pattern, path.Base(relPath)); err == nil && ok {
			return true
		}
	}
	return false
}

// isBinary probes the leading bytes for a NUL, the git heuristic
func isBinary(content []byte) bool {
	probe := content
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
