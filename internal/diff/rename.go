package diff

// Rename builds the diff for a pure file move: content is unchanged, only the
// path differs. Every line is emitted once as removed under the old path and
// once as added under the new path, so the move stays visible even though the
// text is identical. Empty content yields no visual entries.
func Rename(content, oldPath, newPath string) *Diff {
	lines := splitLines(content)

	visual := make([]Line, 0, 2*len(lines))
	for i, line := range lines {
		o := i + 1
		visual = append(visual, Line{
			Type:          LineRemoved,
			LineNumber:    o,
			Content:       line,
			OldLineNumber: &o,
		})
	}
	for i, line := range lines {
		n := i + 1
		visual = append(visual, Line{
			Type:          LineAdded,
			LineNumber:    n,
			Content:       line,
			NewLineNumber: &n,
		})
	}

	return &Diff{
		Original:       content,
		Transformed:    content,
		Unified:        unified(visual, oldPath, newPath),
		Visual:         visual,
		CharacterLevel: charDiff(content, content),
	}
}
