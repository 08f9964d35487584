package fetch

import (
	"context"
	"sort"
)

// Static serves a fixed in-memory snapshot. Tests and embedders that
// assemble the working set themselves use it in place of a real fetcher.
type Static struct {
	Files map[string]string
	Err   error
}

// Fetch returns the configured files, sorted by path, or the configured
// error.
func (s *Static) Fetch(ctx context.Context, repo Locator) (*Snapshot, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	paths := make([]string, 0, len(s.Files))
	for path := range s.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	snapshot := &Snapshot{}
	for _, path := range paths {
		content := s.Files[path]
		snapshot.Files = append(snapshot.Files, File{
			Path:    path,
			Content: content,
			Size:    int64(len(content)),
		})
		snapshot.TotalSize += int64(len(content))
	}
	snapshot.TotalFiles = len(snapshot.Files)
	return snapshot, nil
}
