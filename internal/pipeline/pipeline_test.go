package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mgpai22/ocrsub/internal/frames"
	"github.com/mgpai22/ocrsub/internal/subtitle"
)

type fakeRecognizer struct {
	mu     sync.Mutex
	texts  map[string]string
	errs   map[string]error
	delays map[string]time.Duration
	calls  []string
	active atomic.Int32
	peak   atomic.Int32
}

func (f *fakeRecognizer) Recognize(ctx context.Context, img frames.Image) (string, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, img.Name)
	delay := f.delays[img.Name]
	err := f.errs[img.Name]
	text := f.texts[img.Name]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (f *fakeRecognizer) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}

func images(names ...string) []frames.Image {
	out := make([]frames.Image, len(names))
	for i, name := range names {
		out[i] = frames.NewImage("/frames/" + name + ".jpeg")
	}
	return out
}

func TestRunAssemblesTrack(t *testing.T) {
	rec := &fakeRecognizer{texts: map[string]string{
		"0_00_00_000__0_00_02_500_a": "Hello",
		"0_00_02_500__0_00_05_000_b": "World",
	}}
	p := New(rec, Options{})

	report, err := p.Run(context.Background(), images(
		"0_00_00_000__0_00_02_500_a",
		"0_00_02_500__0_00_05_000_b",
	))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := []subtitle.Entry{
		{Index: 1, StartTime: 0, EndTime: 2500 * time.Millisecond, Text: "Hello"},
		{Index: 2, StartTime: 2500 * time.Millisecond, EndTime: 5 * time.Second, Text: "World"},
	}
	sub := report.Subtitle()
	if len(sub.Entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(sub.Entries), len(want))
	}
	for i := range want {
		if sub.Entries[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, sub.Entries[i], want[i])
		}
	}
}

func TestRunMalformedNameSkipsRecognition(t *testing.T) {
	rec := &fakeRecognizer{texts: map[string]string{
		"0_00_01_000__0_00_02_000_ok": "Fine",
	}}
	p := New(rec, Options{})

	report, err := p.Run(context.Background(), images(
		"frame_no_timing",
		"0_00_01_000__0_00_02_000_ok",
	))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(report.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(report.Failures))
	}
	var perr *frames.ParseError
	if !errors.As(report.Failures[0].Err, &perr) {
		t.Errorf("expected *frames.ParseError, got %v", report.Failures[0].Err)
	}
	if rec.called("frame_no_timing") {
		t.Error("malformed frame was sent to the recognizer")
	}
	if len(report.Entries) != 1 || report.Entries[0].Text != "Fine" {
		t.Errorf("unexpected entries: %+v", report.Entries)
	}
}

func TestRunKeepsEmptyText(t *testing.T) {
	rec := &fakeRecognizer{texts: map[string]string{}}
	p := New(rec, Options{})

	report, err := p.Run(context.Background(), images("0_00_01_000__0_00_02_000_blank"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Entries) != 1 || report.Entries[0].Text != "" {
		t.Fatalf("expected a single empty entry, got %+v", report.Entries)
	}
}

func TestRunInvertedInterval(t *testing.T) {
	rec := &fakeRecognizer{}
	p := New(rec, Options{})

	report, err := p.Run(context.Background(), images("0_00_05_000__0_00_01_000_x"))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Failures) != 1 || !errors.Is(report.Failures[0].Err, ErrInvertedInterval) {
		t.Fatalf("expected ErrInvertedInterval failure, got %+v", report.Failures)
	}
	if rec.called("0_00_05_000__0_00_01_000_x") {
		t.Error("inverted frame was sent to the recognizer")
	}
}

func TestRunFailFast(t *testing.T) {
	boom := errors.New("backend unavailable")
	rec := &fakeRecognizer{
		texts: map[string]string{"0_00_03_000__0_00_04_000_c": "late"},
		errs:  map[string]error{"0_00_01_000__0_00_02_000_a": boom},
	}
	p := New(rec, Options{FailFast: true})

	report, err := p.Run(context.Background(), images(
		"0_00_01_000__0_00_02_000_a",
		"0_00_03_000__0_00_04_000_c",
	))
	if !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if rec.called("0_00_03_000__0_00_04_000_c") {
		t.Error("frames after the failure should not be recognized")
	}
	if len(report.Entries) != 0 {
		t.Errorf("expected no entries, got %+v", report.Entries)
	}
}

func TestRunWithoutFailFastContinues(t *testing.T) {
	boom := errors.New("backend unavailable")
	rec := &fakeRecognizer{
		texts: map[string]string{"0_00_03_000__0_00_04_000_c": "late"},
		errs:  map[string]error{"0_00_01_000__0_00_02_000_a": boom},
	}
	p := New(rec, Options{})

	report, err := p.Run(context.Background(), images(
		"0_00_01_000__0_00_02_000_a",
		"0_00_03_000__0_00_04_000_c",
	))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(report.Failures) != 1 || !errors.Is(report.Failures[0].Err, boom) {
		t.Errorf("unexpected failures: %+v", report.Failures)
	}
	if len(report.Entries) != 1 || report.Entries[0].Text != "late" {
		t.Errorf("unexpected entries: %+v", report.Entries)
	}
}

func TestRunConcurrentCompletionOrder(t *testing.T) {
	names := []string{
		"0_00_05_000__0_00_06_000_e",
		"0_00_01_000__0_00_02_000_a",
		"0_00_03_000__0_00_04_000_c",
		"0_00_01_000__0_00_01_500_b",
	}
	rec := &fakeRecognizer{
		texts: map[string]string{
			names[0]: "five",
			names[1]: "one",
			names[2]: "three",
			names[3]: "one-b",
		},
		delays: map[string]time.Duration{
			names[0]: 40 * time.Millisecond,
			names[1]: 30 * time.Millisecond,
			names[2]: 10 * time.Millisecond,
		},
	}

	var progressed atomic.Int32
	p := New(rec, Options{
		Concurrency: 4,
		OnProgress:  func(Result) { progressed.Add(1) },
	})

	report, err := p.Run(context.Background(), images(names...))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if progressed.Load() != int32(len(names)) {
		t.Errorf("progress called %d times, want %d", progressed.Load(), len(names))
	}
	if rec.peak.Load() < 2 {
		t.Errorf("expected concurrent recognition, peak was %d", rec.peak.Load())
	}

	// entries keep listing order; ties on start time keep it after sorting
	sub := report.Subtitle()
	wantText := []string{"one", "one-b", "three", "five"}
	for i, want := range wantText {
		if sub.Entries[i].Text != want {
			t.Errorf("entry %d text = %q, want %q", i, sub.Entries[i].Text, want)
		}
		if sub.Entries[i].Index != i+1 {
			t.Errorf("entry %d index = %d, want %d", i, sub.Entries[i].Index, i+1)
		}
	}
}

func TestRunSequentialByDefault(t *testing.T) {
	rec := &fakeRecognizer{texts: map[string]string{}}
	p := New(rec, Options{})

	_, err := p.Run(context.Background(), images(
		"0_00_01_000__0_00_02_000_a",
		"0_00_02_000__0_00_03_000_b",
		"0_00_03_000__0_00_04_000_c",
	))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if rec.peak.Load() != 1 {
		t.Errorf("peak concurrency = %d, want 1", rec.peak.Load())
	}
	want := []string{"0_00_01_000__0_00_02_000_a", "0_00_02_000__0_00_03_000_b", "0_00_03_000__0_00_04_000_c"}
	for i, name := range want {
		if rec.calls[i] != name {
			t.Errorf("call %d = %s, want %s", i, rec.calls[i], name)
		}
	}
}

func TestRunEmptyInput(t *testing.T) {
	report, err := New(&fakeRecognizer{}, Options{}).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Total != 0 || len(report.Entries) != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&fakeRecognizer{}, Options{}).Run(ctx, images("0_00_01_000__0_00_02_000_a"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
