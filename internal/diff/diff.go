package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType classifies one entry of the visual line diff
type LineType string

const (
	// LineAdded marks a line present only in the transformed content
	LineAdded LineType = "added"
	// LineRemoved marks a line present only in the original content
	LineRemoved LineType = "removed"
	// LineUnchanged marks a line common to both sides
	LineUnchanged LineType = "unchanged"
	// LineEllipsis marks a collapsed run of unchanged lines in a context view
	LineEllipsis LineType = "ellipsis"
)

// Line is a single entry of the line-level diff.
// Unchanged lines carry both OldLineNumber and NewLineNumber with LineNumber
// set to the new-side number. Added lines carry only NewLineNumber, removed
// lines only OldLineNumber. Ellipsis entries use LineNumber -1.
type Line struct {
	Type          LineType `json:"type"`
	LineNumber    int      `json:"lineNumber"`
	Content       string   `json:"content"`
	OldLineNumber *int     `json:"oldLineNumber,omitempty"`
	NewLineNumber *int     `json:"newLineNumber,omitempty"`
}

// Segment is a single entry of the character-level diff used for inline
// highlighting. An unchanged run has both flags false.
type Segment struct {
	Value   string `json:"value"`
	Added   bool   `json:"added"`
	Removed bool   `json:"removed"`
}

// Diff holds the three representations of one change: unified patch text,
// the visual line sequence, and the character-level sequence
type Diff struct {
	Original       string    `json:"original"`
	Transformed    string    `json:"transformed"`
	Unified        string    `json:"unified"`
	Visual         []Line    `json:"visual"`
	CharacterLevel []Segment `json:"characterLevel"`
}

// Stats summarizes a diff at line granularity
type Stats struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
	Total     int `json:"total"`
}

// unifiedContext is the number of unchanged lines kept around each hunk
const unifiedContext = 3

// Compute builds the full diff between two strings. The unified header uses
// the generic "original"/"transformed" labels; use ComputeForPath when the
// file path is known.
func Compute(original, transformed string) *Diff {
	return compute(original, transformed, "original", "transformed")
}

// ComputeForPath builds the full diff between two versions of one file,
// labelling both sides of the unified header with the path
func ComputeForPath(original, transformed, path string) *Diff {
	if path == "" {
		return Compute(original, transformed)
	}
	return compute(original, transformed, path, path)
}

func compute(original, transformed, oldLabel, newLabel string) *Diff {
	visual := lineDiff(original, transformed)

	return &Diff{
		Original:       original,
		Transformed:    transformed,
		Unified:        unified(visual, oldLabel, newLabel),
		Visual:         visual,
		CharacterLevel: charDiff(original, transformed),
	}
}

// Stats counts the visual entries by type. Total is added+removed.
func (d *Diff) Stats() Stats {
	var s Stats
	for _, line := range d.Visual {
		switch line.Type {
		case LineAdded:
			s.Added++
		case LineRemoved:
			s.Removed++
		case LineUnchanged:
			s.Unchanged++
		}
	}
	s.Total = s.Added + s.Removed
	return s
}

// lineDiff computes the line-level LCS between two strings.
// It runs diffmatchpatch in lines-to-runes mode so the LCS operates on whole
// lines rather than characters.
func lineDiff(original, transformed string) []Line {
	dmp := diffmatchpatch.New()
	src, dst, lineArray := dmp.DiffLinesToRunes(original, transformed)
	diffs := dmp.DiffMainRunes(src, dst, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var visual []Line
	oldLine, newLine := 1, 1

	for _, d := range diffs {
		for _, content := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				o, n := oldLine, newLine
				visual = append(visual, Line{
					Type:          LineUnchanged,
					LineNumber:    n,
					Content:       content,
					OldLineNumber: &o,
					NewLineNumber: &n,
				})
				oldLine++
				newLine++

			case diffmatchpatch.DiffDelete:
				o := oldLine
				visual = append(visual, Line{
					Type:          LineRemoved,
					LineNumber:    o,
					Content:       content,
					OldLineNumber: &o,
				})
				oldLine++

			case diffmatchpatch.DiffInsert:
				n := newLine
				visual = append(visual, Line{
					Type:          LineAdded,
					LineNumber:    n,
					Content:       content,
					NewLineNumber: &n,
				})
				newLine++
			}
		}
	}

	return visual
}

// charDiff computes the character-level LCS between two strings
func charDiff(original, transformed string) []Segment {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(original, transformed, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var segments []Segment
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		segments = append(segments, Segment{
			Value:   d.Text,
			Added:   d.Type == diffmatchpatch.DiffInsert,
			Removed: d.Type == diffmatchpatch.DiffDelete,
		})
	}

	return segments
}

// unified renders the visual line sequence as standard patch text:
// "--- a/<old>", "+++ b/<new>" headers and @@ -a,b +c,d @@ hunks with up to
// unifiedContext unchanged lines around each change run
func unified(visual []Line, oldLabel, newLabel string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- a/%s\n", oldLabel)
	fmt.Fprintf(&buf, "+++ b/%s\n", newLabel)

	included := nearChange(visual, unifiedContext)

	i := 0
	for i < len(visual) {
		if !included[i] {
			i++
			continue
		}

		// Collect one contiguous included run as a hunk
		j := i
		for j < len(visual) && included[j] {
			j++
		}

		oldStart, newStart := 0, 0
		oldCount, newCount := 0, 0
		for _, line := range visual[i:j] {
			if line.OldLineNumber != nil {
				if oldCount == 0 {
					oldStart = *line.OldLineNumber
				}
				oldCount++
			}
			if line.NewLineNumber != nil {
				if newCount == 0 {
					newStart = *line.NewLineNumber
				}
				newCount++
			}
		}

		fmt.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)
		for _, line := range visual[i:j] {
			switch line.Type {
			case LineAdded:
				buf.WriteString("+")
			case LineRemoved:
				buf.WriteString("-")
			default:
				buf.WriteString(" ")
			}
			buf.WriteString(line.Content)
			buf.WriteString("\n")
		}

		i = j
	}

	return buf.String()
}

// nearChange marks every visual index that lies within k entries of an added
// or removed entry
func nearChange(visual []Line, k int) []bool {
	if k < 0 {
		k = 0
	}

	included := make([]bool, len(visual))

	// Distance from the previous change, scanning forward
	last := -1
	for i, line := range visual {
		if line.Type == LineAdded || line.Type == LineRemoved {
			last = i
		}
		if last >= 0 && i-last <= k {
			included[i] = true
		}
	}

	// Distance to the next change, scanning backward
	next := -1
	for i := len(visual) - 1; i >= 0; i-- {
		if visual[i].Type == LineAdded || visual[i].Type == LineRemoved {
			next = i
		}
		if next >= 0 && next-i <= k {
			included[i] = true
		}
	}

	return included
}

// splitLines splits diff text into lines without their trailing newline.
// Empty text yields no lines; a final fragment without a trailing newline
// counts as one line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// countLines counts the number of lines in a string.
// Empty string = 0 lines; a string not ending with \n counts its final
// fragment as one line.
func countLines(content string) int {
	if content == "" {
		return 0
	}

	count := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		count++
	}

	return count
}
