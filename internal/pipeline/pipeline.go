package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/mgpai22/ocrsub/internal/frames"
	"github.com/mgpai22/ocrsub/internal/logging"
	"github.com/mgpai22/ocrsub/internal/subtitle"
)

// ErrInvertedInterval marks a frame whose start time is after its end time.
var ErrInvertedInterval = errors.New("start time is after end time")

// TextRecognizer turns one frame into its subtitle text.
type TextRecognizer interface {
	Recognize(ctx context.Context, img frames.Image) (string, error)
}

type Options struct {
	// number of frames recognized at once; 1 processes them in order
	Concurrency int
	// optional cap on backend requests; nil means unlimited
	Limiter *rate.Limiter
	// abort the run at the first failed frame
	FailFast bool
	// called once per finished frame from the collecting goroutine
	OnProgress func(Result)
	Logger     *logging.Logger
}

// Result is the outcome for one frame.
type Result struct {
	// position in the input listing
	Index int
	Image frames.Image
	Entry subtitle.Entry
	Err   error
}

// Report holds every successful entry and every failed frame, both in input
// order.
type Report struct {
	Total    int
	Entries  []subtitle.Entry
	Failures []Result
}

// Subtitle assembles the successful entries into a sorted, renumbered track.
func (r *Report) Subtitle() *subtitle.Subtitle {
	return subtitle.Assemble(r.Entries)
}

type Pipeline struct {
	recognizer TextRecognizer
	opts       Options
	logger     *logging.Logger
}

func New(recognizer TextRecognizer, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Pipeline{
		recognizer: recognizer,
		opts:       opts,
		logger:     logger,
	}
}

// Run recognizes every image and collects the entries. A failing frame is
// recorded in the report and the rest keep going, unless FailFast is set, in
// which case the first failure cancels outstanding work and is returned.
func (p *Pipeline) Run(ctx context.Context, images []frames.Image) (*Report, error) {
	report := &Report{Total: len(images)}
	if len(images) == 0 {
		return report, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		index int
		image frames.Image
	}

	workChan := make(chan job)
	resultChan := make(chan Result, len(images))

	var wg sync.WaitGroup
	for i := 0; i < p.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-workChan:
					if !ok {
						return
					}
					if ctx.Err() != nil {
						return
					}

					result := p.process(ctx, j.index, j.image)
					if result.Err != nil && p.opts.FailFast {
						cancel()
					}
					resultChan <- result
				}
			}
		}()
	}

	go func() {
		defer close(workChan)
		for i, img := range images {
			select {
			case <-ctx.Done():
				return
			case workChan <- job{index: i, image: img}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]Result, 0, len(images))
	var firstErr error
	for result := range resultChan {
		if result.Err != nil {
			p.logger.Warnw("Frame failed",
				"image", result.Image.Name,
				"error", result.Err,
			)
			if p.opts.FailFast && firstErr == nil {
				firstErr = fmt.Errorf("frame %s failed: %w", result.Image.Name, result.Err)
			}
		} else {
			p.logger.Debugw("Frame recognized",
				"image", result.Image.Name,
				"start", result.Entry.StartTime,
				"end", result.Entry.EndTime,
			)
		}
		if p.opts.OnProgress != nil {
			p.opts.OnProgress(result)
		}
		results = append(results, result)
	}

	// sort by index to maintain order
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	for _, r := range results {
		if r.Err != nil {
			report.Failures = append(report.Failures, r)
			continue
		}
		report.Entries = append(report.Entries, r.Entry)
	}

	if firstErr != nil {
		return report, firstErr
	}
	// only the parent can have cancelled ctx at this point
	if err := ctx.Err(); err != nil {
		return report, err
	}

	return report, nil
}

// process parses the timing first, so a malformed name never reaches the
// backend.
func (p *Pipeline) process(ctx context.Context, index int, img frames.Image) Result {
	result := Result{Index: index, Image: img}

	interval, err := frames.ParseInterval(img.Name)
	if err != nil {
		result.Err = err
		return result
	}
	if !interval.Ordered() {
		result.Err = fmt.Errorf("%w: %s", ErrInvertedInterval, interval)
		return result
	}

	if p.opts.Limiter != nil {
		if err := p.opts.Limiter.Wait(ctx); err != nil {
			result.Err = err
			return result
		}
	}

	text, err := p.recognizer.Recognize(ctx, img)
	if err != nil {
		result.Err = err
		return result
	}

	result.Entry = subtitle.Entry{
		Index:     index + 1,
		StartTime: interval.Start,
		EndTime:   interval.End,
		Text:      text,
	}
	return result
}
