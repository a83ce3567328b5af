package subtitle

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// hours are optional in WebVTT timings; cue settings after the end time are ignored
var vttTimingRegex = regexp.MustCompile(
	`^(?:(\d{2,}):)?(\d{2}):(\d{2})\.(\d{3})\s*-->\s*(?:(\d{2,}):)?(\d{2}):(\d{2})\.(\d{3})`,
)

// VTTParser reads WebVTT files.
type VTTParser struct{}

func (VTTParser) Parse(path string) (*Subtitle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open VTT file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	entries, err := scanCues(file, vttTiming, vttNonCueBlock)
	if err != nil {
		return nil, fmt.Errorf("error reading VTT file: %w", err)
	}

	return &Subtitle{
		Entries: entries,
		Format:  string(FormatVTT),
	}, nil
}

func vttTiming(line string) (time.Duration, time.Duration, bool, error) {
	matches := vttTimingRegex.FindStringSubmatch(line)
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

func vttNonCueBlock(line string) bool {
	for _, prefix := range []string{"WEBVTT", "NOTE", "STYLE", "REGION"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
