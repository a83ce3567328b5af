package subtitle

import (
	"sort"
)

// Assemble turns entries collected in any order into a track: entries are
// stably sorted by start time and renumbered 1..N. The input slice is left
// untouched.
func Assemble(entries []Entry) *Subtitle {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	for i := range sorted {
		sorted[i].Index = i + 1
	}

	return &Subtitle{
		Entries: sorted,
		Format:  string(FormatSRT),
	}
}
