package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var srtTimingRegex = regexp.MustCompile(
	`^(\d{2,}):(\d{2}):(\d{2}),(\d{3})\s*-->\s*(\d{2,}):(\d{2}):(\d{2}),(\d{3})`,
)

// SRTParser reads SubRip files.
type SRTParser struct{}

func (SRTParser) Parse(path string) (*Subtitle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SRT file: %w", err)
	}
	defer file.Close()

	entries, err := scanCues(file, srtTiming, nil)
	if err != nil {
		return nil, fmt.Errorf("error reading SRT file: %w", err)
	}

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatSRT),
	}, nil
}

func srtTiming(line string) (time.Duration, time.Duration, bool, error) {
	matches := srtTimingRegex.FindStringSubmatch(line)
	if len(matches) != 9 {
		return 0, 0, false, nil
	}
	start, err := parseSRTTimestamp(matches[1], matches[2], matches[3], matches[4])
	if err != nil {
		return 0, 0, true, fmt.Errorf("invalid start timestamp: %w", err)
	}
	end, err := parseSRTTimestamp(matches[5], matches[6], matches[7], matches[8])
	if err != nil {
		return 0, 0, true, fmt.Errorf("invalid end timestamp: %w", err)
	}
	return start, end, true, nil
}

type timingFunc func(line string) (start, end time.Duration, ok bool, err error)

// skipFunc reports whether a block starting with line carries no cue
type skipFunc func(line string) bool

// scanCues walks index/timing/text blocks. A cue ends at the first blank line
// after its timing line, so cues with empty text are kept.
func scanCues(r io.Reader, timing timingFunc, skip skipFunc) ([]Entry, error) {
	var (
		entries      []Entry
		current      *Entry
		textLines    []string
		pendingIndex int
		skipping     bool
		lineNum      int
	)

	finish := func() {
		current.Text = strings.Join(textLines, "\n")
		entries = append(entries, *current)
		current = nil
		textLines = nil
		pendingIndex = 0
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		lineNum++

		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		trimmed := strings.TrimSpace(line)

		if current != nil {
			if trimmed == "" {
				finish()
				continue
			}
			textLines = append(textLines, strings.TrimRight(line, "\r"))
			continue
		}

		if trimmed == "" {
			skipping = false
			continue
		}
		if skipping {
			continue
		}
		if skip != nil && skip(trimmed) {
			skipping = true
			continue
		}

		start, end, ok, err := timing(trimmed)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if ok {
			index := pendingIndex
			if index == 0 {
				index = len(entries) + 1
			}
			current = &Entry{Index: index, StartTime: start, EndTime: end}
			continue
		}

		if n, err := strconv.Atoi(trimmed); err == nil {
			pendingIndex = n
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		finish()
	}

	return entries, nil
}

func parseSRTTimestamp(
	hours, minutes, seconds, millis string,
) (time.Duration, error) {
	h := 0
	if hours != "" {
		var err error
		if h, err = strconv.Atoi(hours); err != nil {
			return 0, err
		}
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, err
	}
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, err
	}
	ms, err := strconv.Atoi(millis)
	if err != nil {
		return 0, err
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
