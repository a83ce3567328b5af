package subtitle

import (
	"testing"
	"time"
)

func TestAssembleStableSort(t *testing.T) {
	input := []Entry{
		{Index: 1, StartTime: 2 * time.Second, EndTime: 3 * time.Second, Text: "late"},
		{Index: 2, StartTime: 0, EndTime: time.Second, Text: "first tie"},
		{Index: 3, StartTime: 0, EndTime: time.Second, Text: "second tie"},
	}

	sub := Assemble(input)

	wantText := []string{"first tie", "second tie", "late"}
	if len(sub.Entries) != len(wantText) {
		t.Fatalf("expected %d entries, got %d", len(wantText), len(sub.Entries))
	}
	for i, entry := range sub.Entries {
		if entry.Text != wantText[i] {
			t.Errorf("entry %d: text %q, want %q", i, entry.Text, wantText[i])
		}
		if entry.Index != i+1 {
			t.Errorf("entry %d: index %d, want %d", i, entry.Index, i+1)
		}
	}

	// input must not be reordered or renumbered
	if input[0].Text != "late" || input[0].Index != 1 || input[2].Index != 3 {
		t.Errorf("input slice was modified: %+v", input)
	}
}

func TestAssembleReindexesContiguously(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"single", []Entry{{Index: 7, StartTime: time.Second}}},
		{
			"gaps and duplicates",
			[]Entry{
				{Index: 10, StartTime: 5 * time.Second},
				{Index: 10, StartTime: 1 * time.Second},
				{Index: 3, StartTime: 3 * time.Second},
				{Index: 0, StartTime: 2 * time.Second},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := Assemble(tt.entries)
			if len(sub.Entries) != len(tt.entries) {
				t.Fatalf("got %d entries, want %d", len(sub.Entries), len(tt.entries))
			}
			for i, entry := range sub.Entries {
				if entry.Index != i+1 {
					t.Errorf("entry %d: index %d", i, entry.Index)
				}
				if i > 0 && sub.Entries[i-1].StartTime > entry.StartTime {
					t.Errorf("entry %d starts before entry %d", i, i-1)
				}
			}
		})
	}
}
