package frames

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions are the image types written by subtitle-region extractors.
var DefaultExtensions = []string{".jpeg", ".jpg", ".png", ".bmp"}

// one cropped subtitle frame
type Image struct {
	Path string
	// base name without extension; carries the timing
	Name string
}

func NewImage(path string) Image {
	base := filepath.Base(path)
	return Image{
		Path: path,
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
	}
}

// MIMEType derived from the file extension
func (i Image) MIMEType() string {
	switch strings.ToLower(filepath.Ext(i.Path)) {
	case ".png":
		return "image/png"
	case ".bmp":
		return "image/bmp"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// PreconditionError means the input set is unusable before any work starts.
type PreconditionError struct {
	Dir    string
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("input directory %s: %s: %v", e.Dir, e.Reason, e.Err)
	}
	return fmt.Sprintf("input directory %s: %s", e.Dir, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// Discover lists the images in dir in lexicographic order. An extension list
// of nil means DefaultExtensions.
func Discover(dir string, exts []string) ([]Image, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &PreconditionError{Dir: dir, Reason: "does not exist"}
		}
		return nil, &PreconditionError{Dir: dir, Reason: "cannot stat", Err: err}
	}
	if !info.IsDir() {
		return nil, &PreconditionError{Dir: dir, Reason: "not a directory"}
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &PreconditionError{Dir: dir, Reason: "cannot list", Err: err}
	}

	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}

	// os.ReadDir returns entries sorted by filename
	var images []Image
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		if !allowed[strings.ToLower(filepath.Ext(de.Name()))] {
			continue
		}
		images = append(images, NewImage(filepath.Join(dir, de.Name())))
	}

	if len(images) == 0 {
		return nil, &PreconditionError{
			Dir:    dir,
			Reason: fmt.Sprintf("no images matching %s", strings.Join(exts, ", ")),
		}
	}

	return images, nil
}
