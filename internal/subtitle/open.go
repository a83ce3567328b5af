package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Open parses an existing subtitle file, picking the parser by extension.
func Open(path string) (*Subtitle, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return SRTParser{}.Parse(path)
	case ".vtt":
		return VTTParser{}.Parse(path)
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", ext)
	}
}
