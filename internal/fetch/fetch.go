// Package fetch acquires repository snapshots for a migration run. A Fetcher
// returns every relevant file as an in-memory working set; the engine never
// touches the source again after this point, so a run sees one consistent
// view of the repository.
package fetch

import "context"

// Locator identifies the repository to fetch. Slug names a remote
// ("owner/repo"); Path points at a local checkout; Ref pins a revision for
// fetchers that understand one.
type Locator struct {
	Slug string
	Path string
	Ref  string
}

// Key returns the identity the lock service guards: the slug when present,
// the local path otherwise.
func (l Locator) Key() string {
	if l.Slug != "" {
		return l.Slug
	}
	return l.Path
}

// File is one fetched file.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// Snapshot is the fetched working set.
type Snapshot struct {
	Files        []File   `json:"files"`
	TotalFiles   int      `json:"totalFiles"`
	TotalSize    int64    `json:"totalSize"`
	SkippedFiles []string `json:"skippedFiles,omitempty"`
}

// Map flattens the snapshot into the path→content form the engine works on.
func (s *Snapshot) Map() map[string]string {
	files := make(map[string]string, len(s.Files))
	for _, f := range s.Files {
		files[f.Path] = f.Content
	}
	return files
}

// Fetcher acquires a snapshot of one repository.
type Fetcher interface {
	Fetch(ctx context.Context, repo Locator) (*Snapshot, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, repo Locator) (*Snapshot, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, repo Locator) (*Snapshot, error) {
	return f(ctx, repo)
}
