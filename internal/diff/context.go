package diff

// WithContext returns the line entries within k lines of any change,
// collapsing each larger unchanged gap into a single ellipsis marker.
// Identical inputs yield no entries. Negative k is treated as zero.
func WithContext(original, transformed string, k int) []Line {
	if original == transformed {
		return nil
	}

	visual := lineDiff(original, transformed)
	included := nearChange(visual, k)

	var out []Line
	gap := false
	for i, line := range visual {
		if !included[i] {
			gap = true
			continue
		}
		if gap {
			out = append(out, Line{
				Type:       LineEllipsis,
				LineNumber: -1,
				Content:    "...",
			})
			gap = false
		}
		out = append(out, line)
	}
	if gap {
		out = append(out, Line{
			Type:       LineEllipsis,
			LineNumber: -1,
			Content:    "...",
		})
	}

	return out
}
