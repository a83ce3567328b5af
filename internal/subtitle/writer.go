package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ParseFormat maps a user supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "srt", "subrip":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use srt or vtt", name)
	}
}

// writes the subtitle to an SRT file
func (w *SRTWriter) Write(sub *Subtitle, path string) error {
	var buf bytes.Buffer
	if err := w.Encode(&buf, sub); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

// Encode renders one block per entry: index, timing line, text, blank line.
// The entry's own Index is used so the output matches the assembled track.
func (w *SRTWriter) Encode(out io.Writer, sub *Subtitle) error {
	var sb strings.Builder
	for _, entry := range sub.Entries {
		sb.WriteString(fmt.Sprintf("%d\n", entry.Index))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(entry.StartTime),
			formatSRTTime(entry.EndTime)))

		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	_, err := io.WriteString(out, sb.String())
	return err
}

// writes the subtitle to a VTT file
func (w *VTTWriter) Write(sub *Subtitle, path string) error {
	var buf bytes.Buffer
	if err := w.Encode(&buf, sub); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

func (w *VTTWriter) Encode(out io.Writer, sub *Subtitle) error {
	var sb strings.Builder

	sb.WriteString("WEBVTT\n\n")

	for _, entry := range sub.Entries {
		// optional cue identifier
		sb.WriteString(fmt.Sprintf("%d\n", entry.Index))

		// timestamps: 00:00:00.000 --> 00:00:00.000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatVTTTime(entry.StartTime),
			formatVTTTime(entry.EndTime)))

		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}
	_, err := io.WriteString(out, sb.String())
	return err
}

// FormatTimestamp renders d as an SRT timestamp, HH:MM:SS,mmm.
func FormatTimestamp(d time.Duration) string {
	return formatSRTTime(d)
}

func formatSRTTime(d time.Duration) string {
	hours, minutes, seconds, millis := clockParts(d)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func formatVTTTime(d time.Duration) string {
	hours, minutes, seconds, millis := clockParts(d)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

func clockParts(d time.Duration) (hours, minutes, seconds, millis int) {
	if d < 0 {
		d = 0
	}
	hours = int(d.Hours())
	minutes = int(d.Minutes()) % 60
	seconds = int(d.Seconds()) % 60
	millis = int(d.Milliseconds()) % 1000
	return hours, minutes, seconds, millis
}

// the track is either fully written or not at all
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write subtitles: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move subtitles into place: %w", err)
	}
	return nil
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".vtt":
		return FormatVTT
	default:
		return FormatSRT
	}
}

// file extension for a format
func GetExtensionForFormat(format Format) string {
	switch format {
	case FormatVTT:
		return ".vtt"
	default:
		return ".srt"
	}
}
