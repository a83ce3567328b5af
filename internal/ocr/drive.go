package ocr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/mgpai22/ocrsub/internal/frames"
)

const (
	// uploading with this target type makes Drive run OCR on the image
	googleDocMIME = "application/vnd.google-apps.document"
	// the text export starts with a title line and a blank line
	drivePreamble = 2
)

// implements Backend using Google Drive's image-to-Docs conversion
type DriveBackend struct {
	service   *drive.Service
	chunkSize int
	language  string
}

func NewDriveBackend(ctx context.Context, opts Options) (*DriveBackend, error) {
	clientOpts := []option.ClientOption{option.WithScopes(drive.DriveFileScope)}
	if opts.CredentialsFile != "" {
		if _, err := os.Stat(opts.CredentialsFile); err != nil {
			return nil, fmt.Errorf("credentials file: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	service, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive client: %w", err)
	}

	return NewDriveBackendFromService(service, opts), nil
}

// NewDriveBackendFromService wraps an already configured Drive service.
func NewDriveBackendFromService(service *drive.Service, opts Options) *DriveBackend {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = googleapi.DefaultUploadChunkSize
	}
	return &DriveBackend{
		service:   service,
		chunkSize: chunkSize,
		language:  opts.Language,
	}
}

// uploadChunkSize mirrors googleapi.ChunkSize rounding up to a multiple of
// googleapi.MinUploadChunkSize.
func uploadChunkSize(size int) int {
	if rem := size % googleapi.MinUploadChunkSize; rem != 0 {
		size += googleapi.MinUploadChunkSize - rem
	}
	return size
}

func (b *DriveBackend) Name() string {
	return string(ProviderDrive)
}

func (b *DriveBackend) Preamble() int {
	return drivePreamble
}

// uploads the image as a new Google Doc over a resumable session, so an
// interrupted transfer continues from the last acknowledged chunk
func (b *DriveBackend) Create(ctx context.Context, img frames.Image) (*Document, error) {
	file, err := os.Open(img.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}

	meta := &drive.File{
		Name:     fmt.Sprintf("ocrsub-%s-%s", uuid.NewString(), filepath.Base(img.Path)),
		MimeType: googleDocMIME,
	}

	call := b.service.Files.Create(meta)
	if info.Size() >= int64(uploadChunkSize(b.chunkSize)) {
		call = call.Media(
			file,
			googleapi.ContentType(img.MIMEType()),
			googleapi.ChunkSize(b.chunkSize),
		)
	} else {
		// Media sends anything smaller than one chunk as a single multipart
		// request, which cannot resume
		//nolint:staticcheck // the only way to force a resumable session
		call = call.ResumableMedia(ctx, file, info.Size(), img.MIMEType())
	}
	call = call.Fields("id", "mimeType")
	if b.language != "" {
		call = call.OcrLanguage(b.language)
	}

	created, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	if created.Id == "" {
		return nil, fmt.Errorf("upload returned no document id")
	}

	return &Document{ID: created.Id, MIMEType: created.MimeType}, nil
}

// streams the plain text export of doc into w
func (b *DriveBackend) Export(ctx context.Context, doc *Document, w io.Writer) error {
	resp, err := b.service.Files.Export(doc.ID, "text/plain").Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("export failed: unexpected status %s", resp.Status)
	}

	if _, err := io.CopyBuffer(w, resp.Body, make([]byte, 32*1024)); err != nil {
		return fmt.Errorf("export download interrupted: %w", err)
	}
	return nil
}

func (b *DriveBackend) Delete(ctx context.Context, doc *Document) error {
	if err := b.service.Files.Delete(doc.ID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}
