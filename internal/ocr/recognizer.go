package ocr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/mgpai22/ocrsub/internal/frames"
	"github.com/mgpai22/ocrsub/internal/logging"
)

const defaultCleanupTimeout = 30 * time.Second

type RecognizerOptions struct {
	// where the intermediate <name>.txt exports are kept
	TextDir string
	// read an existing intermediate export instead of calling the backend
	ReuseCache     bool
	CleanupTimeout time.Duration
	Logger         *logging.Logger
}

// Recognizer turns one image into plain text through a Backend. Each call
// creates exactly one remote document and always deletes it again.
type Recognizer struct {
	backend        Backend
	textDir        string
	reuseCache     bool
	cleanupTimeout time.Duration
	logger         *logging.Logger
}

func NewRecognizer(backend Backend, opts RecognizerOptions) *Recognizer {
	timeout := opts.CleanupTimeout
	if timeout <= 0 {
		timeout = defaultCleanupTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Recognizer{
		backend:        backend,
		textDir:        opts.TextDir,
		reuseCache:     opts.ReuseCache,
		cleanupTimeout: timeout,
		logger:         logger,
	}
}

// TextPath is the intermediate export location for img.
func (r *Recognizer) TextPath(img frames.Image) string {
	return filepath.Join(r.textDir, img.Name+".txt")
}

// Recognize uploads img, exports the converted document into the
// intermediate text file, deletes the remote document and returns the text
// with the backend's preamble stripped.
func (r *Recognizer) Recognize(ctx context.Context, img frames.Image) (text string, err error) {
	textPath := r.TextPath(img)

	if r.reuseCache {
		data, readErr := os.ReadFile(textPath)
		switch {
		case readErr == nil && len(data) > 0:
			r.logger.Debugw("Using cached export", "image", img.Name, "path", textPath)
			return extractText(data, r.backend.Preamble()), nil
		case readErr != nil && !errors.Is(readErr, fs.ErrNotExist):
			return "", fmt.Errorf("failed to read cached export: %w", readErr)
		}
	}

	if err := os.MkdirAll(r.textDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create text directory: %w", err)
	}

	doc, err := r.backend.Create(ctx, img)
	if err != nil {
		return "", r.remoteErr("create", img, err)
	}

	defer func() {
		if delErr := r.release(ctx, doc); delErr != nil {
			r.logger.Warnw("Failed to delete remote document",
				"image", img.Name,
				"document", doc.ID,
				"error", delErr,
			)
			if err == nil {
				text = ""
				err = r.remoteErr("delete", img, delErr)
			}
		}
	}()

	if err := r.export(ctx, doc, textPath); err != nil {
		return "", r.remoteErr("export", img, err)
	}

	data, err := os.ReadFile(textPath)
	if err != nil {
		return "", fmt.Errorf("failed to read export: %w", err)
	}
	if len(data) == 0 {
		return "", r.remoteErr("export", img, ErrEmptyExport)
	}

	text = extractText(data, r.backend.Preamble())
	r.logger.Debugw("Recognized text",
		"image", img.Name,
		"document", doc.ID,
		"text", truncateString(text, 80),
	)
	return text, nil
}

func (r *Recognizer) export(ctx context.Context, doc *Document, textPath string) error {
	file, err := os.Create(textPath)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	exportErr := r.backend.Export(ctx, doc, file)
	closeErr := file.Close()
	if exportErr == nil {
		exportErr = closeErr
	}
	if exportErr != nil {
		// a partial export must never be mistaken for a cached one
		_ = os.Remove(textPath)
		return exportErr
	}
	return nil
}

// deletes doc even when ctx is already cancelled
func (r *Recognizer) release(ctx context.Context, doc *Document) error {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cleanupTimeout)
	defer cancel()
	return r.backend.Delete(cleanupCtx, doc)
}

func (r *Recognizer) remoteErr(op string, img frames.Image, err error) error {
	return &RemoteServiceError{
		Backend: r.backend.Name(),
		Op:      op,
		Image:   img.Name,
		Err:     err,
	}
}

// extractText drops the first preamble lines of a text export and joins the
// rest without separators.
func extractText(data []byte, preamble int) string {
	s := strings.ToValidUTF8(string(data), "\uFFFD")
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	if preamble >= len(lines) {
		return ""
	}
	if preamble < 0 {
		preamble = 0
	}

	return norm.NFC.String(strings.Join(lines[preamble:], ""))
}
