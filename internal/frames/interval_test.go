package frames

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantStart time.Duration
		wantEnd   time.Duration
	}{
		{
			name:      "extractor layout",
			input:     "0_00_01_234__0_00_03_456_0070000007200000000000000000000",
			wantStart: 1234 * time.Millisecond,
			wantEnd:   3456 * time.Millisecond,
		},
		{
			name:      "extractor layout with extension",
			input:     "1_02_03_004__1_02_05_600_0070000007200000000000000000000.jpeg",
			wantStart: time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond,
			wantEnd:   time.Hour + 2*time.Minute + 5*time.Second + 600*time.Millisecond,
		},
		{
			name:      "two digit hours",
			input:     "12_59_59_999__13_00_00_000_x",
			wantStart: 12*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond,
			wantEnd:   13 * time.Hour,
		},
		{
			name:      "long tokens use fixed width prefixes",
			input:     "00x_01y_02z_003456__00_01_04_5000_tail",
			wantStart: time.Minute + 2*time.Second + 3*time.Millisecond,
			wantEnd:   time.Minute + 4*time.Second + 500*time.Millisecond,
		},
		{
			name:      "compact layout",
			input:     "000000000_a__000002500_b.jpeg",
			wantStart: 0,
			wantEnd:   2500 * time.Millisecond,
		},
		{
			name:      "compact layout second frame",
			input:     "000002500_c__000005000_d.jpeg",
			wantStart: 2500 * time.Millisecond,
			wantEnd:   5 * time.Second,
		},
		{
			name:      "inverted interval is returned as is",
			input:     "0_00_05_000__0_00_01_000_x",
			wantStart: 5 * time.Second,
			wantEnd:   time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := ParseInterval(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if iv.Start != tt.wantStart {
				t.Errorf("start = %v, want %v", iv.Start, tt.wantStart)
			}
			if iv.End != tt.wantEnd {
				t.Errorf("end = %v, want %v", iv.End, tt.wantEnd)
			}
		})
	}
}

func TestParseIntervalErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantGroup string
		wantToken int
		wantErr   error
	}{
		{
			name:      "missing double underscore",
			input:     "000000000_a_000002500_b.jpeg",
			wantGroup: "end",
			wantToken: -1,
			wantErr:   ErrMissingSeparator,
		},
		{
			name:      "too few start tokens",
			input:     "0_00__0_00_02_000_x",
			wantGroup: "start",
			wantToken: 2,
			wantErr:   ErrTooFewTokens,
		},
		{
			name:      "non numeric minutes",
			input:     "0_ab_01_000__0_00_02_000_x",
			wantGroup: "start",
			wantToken: 1,
			wantErr:   ErrNotNumeric,
		},
		{
			name:      "missing millisecond token",
			input:     "0_00_01___0_00_02_000_x",
			wantGroup: "start",
			wantToken: 3,
			wantErr:   ErrTooFewTokens,
		},
		{
			name:      "non numeric end seconds",
			input:     "0_00_01_000__0_00_zz_000_x",
			wantGroup: "end",
			wantToken: 2,
			wantErr:   ErrNotNumeric,
		},
		{
			name:      "minutes out of range",
			input:     "0_75_01_000__0_00_02_000_x",
			wantGroup: "start",
			wantToken: 1,
			wantErr:   ErrOutOfRange,
		},
		{
			name:      "three digit hours",
			input:     "100_00_00_000__0_00_01_000_x",
			wantGroup: "start",
			wantToken: 0,
			wantErr:   ErrOutOfRange,
		},
		{
			name:      "three digit end hours",
			input:     "0_00_00_000__123_00_01_000_x",
			wantGroup: "end",
			wantToken: 0,
			wantErr:   ErrOutOfRange,
		},
		{
			name:      "compact with bad end group",
			input:     "000000000_a__b",
			wantGroup: "end",
			wantToken: 1,
			wantErr:   ErrTooFewTokens,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInterval(tt.input)
			if err == nil {
				t.Fatal("expected error but got none")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if perr.Group != tt.wantGroup {
				t.Errorf("group = %q, want %q", perr.Group, tt.wantGroup)
			}
			if perr.Token != tt.wantToken {
				t.Errorf("token = %d, want %d", perr.Token, tt.wantToken)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not wrap %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseIntervalOrderedForSyntheticNames(t *testing.T) {
	for h := 0; h < 100; h += 33 {
		for m := 0; m < 60; m += 17 {
			for s := 0; s < 60; s += 13 {
				for ms := 0; ms < 1000; ms += 333 {
					start := time.Duration(h)*time.Hour +
						time.Duration(m)*time.Minute +
						time.Duration(s)*time.Second +
						time.Duration(ms)*time.Millisecond
					end := start + 1500*time.Millisecond
					name := fmt.Sprintf("%s__%s_0070000", stamp(start), stamp(end))

					iv, err := ParseInterval(name)
					if err != nil {
						t.Fatalf("ParseInterval(%q): %v", name, err)
					}
					if !iv.Ordered() {
						t.Fatalf("ParseInterval(%q) = %v, want start <= end", name, iv)
					}
					if iv.Start != start || iv.End != end {
						t.Fatalf("ParseInterval(%q) = %v, want %v --> %v", name, iv, start, end)
					}
				}
			}
		}
	}
}

func TestParseIntervalDeterministic(t *testing.T) {
	name := "0_01_02_345__0_01_04_000_0070000007200000000000000000000"
	first, err := ParseInterval(name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := ParseInterval(name)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != first {
			t.Fatalf("run %d: got %v, want %v", i, got, first)
		}
	}
}

// extractor-layout group for d; d must stay under 100h
func stamp(d time.Duration) string {
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	ms := int(d/time.Millisecond) % 1000
	return fmt.Sprintf("%d_%02d_%02d_%03d", h, m, s, ms)
}
