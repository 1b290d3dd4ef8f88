// Package uploads validates and stores event images. Files are staged
// outside the public directory and moved into place only after every
// check passes, so a rejected upload never leaves a partial file behind.
package uploads

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
)

var (
	// ErrImageTooLarge is returned when the upload exceeds the size cap.
	ErrImageTooLarge = errors.New("image too large")

	// ErrUnsupportedImageType is returned when the sniffed content type
	// is not in the allow-list, regardless of the filename extension.
	ErrUnsupportedImageType = errors.New("unsupported image type")
)

// allowedTypes maps sniffed MIME types to the stored file extension.
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Ingest validates and persists an uploaded event image.
type Ingest struct {
	dir        string
	publicPath string
	maxBytes   int64
}

// New creates an Ingest storing files under dir and returning paths
// below publicPath (e.g. /uploads). The directory is created if missing.
func New(dir, publicPath string, maxBytes int64) (*Ingest, error) {
	if dir == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	return &Ingest{dir: dir, publicPath: publicPath, maxBytes: maxBytes}, nil
}

// Accept validates the upload and moves it into the public directory.
// It returns the public-relative path of the stored file, never an
// absolute filesystem path. The declared size is checked before any
// content is read; the actual byte count is enforced again while
// staging. The content type comes from sniffing the bytes, not from the
// client-declared filename or Content-Type.
func (u *Ingest) Accept(file multipart.File, header *multipart.FileHeader, title string) (string, error) {
	if header.Size > u.maxBytes {
		return "", ErrImageTooLarge
	}

	staging, size, err := u.stage(file)
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(staging) }()

	if size > u.maxBytes {
		return "", ErrImageTooLarge
	}

	mtype, err := mimetype.DetectFile(staging)
	if err != nil {
		return "", fmt.Errorf("sniff image type: %w", err)
	}
	ext, ok := allowedTypes[mtype.String()]
	if !ok {
		return "", ErrUnsupportedImageType
	}

	name, err := filename(title, ext)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(u.dir, name)
	if err := os.Rename(staging, dest); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return path.Join(u.publicPath, name), nil
}

// stage copies the upload to a uniquely named temp file next to, but
// not inside, the public directory. Copying stops one byte past the cap
// so an oversized body is detected without buffering it all.
func (u *Ingest) stage(file multipart.File) (string, int64, error) {
	staging := filepath.Join(os.TempDir(), "upload."+ulid.MustNew(ulid.Now(), rand.Reader).String())

	f, err := os.OpenFile(staging, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("stage upload: %w", err)
	}

	size, err := io.Copy(f, io.LimitReader(file, u.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(staging)
		return "", 0, fmt.Errorf("stage upload: %w", err)
	}
	return staging, size, nil
}

// filename builds <slug-of-title>-<random-hex>.<ext>. The random suffix
// rules out collisions, so no two uploads ever race on the same
// destination name.
func filename(title, ext string) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s.%s", Slug(title), hex.EncodeToString(suffix), ext), nil
}
