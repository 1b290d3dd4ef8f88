package uploads

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Magic-number prefixes are enough for content sniffing.
var (
	pngBytes  = append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 64)...)
	jpegBytes = append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 64)...)
	webpBytes = append([]byte("RIFF\x24\x00\x00\x00WEBP"), make([]byte, 64)...)
	gifBytes  = append([]byte("GIF89a"), make([]byte, 64)...)
)

func multipartUpload(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/events", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(8<<20))

	file, header, err := req.FormFile("image")
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	return file, header
}

func newTestIngest(t *testing.T, maxBytes int64) (*Ingest, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	ingest, err := New(dir, "/uploads", maxBytes)
	require.NoError(t, err)
	return ingest, dir
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestAcceptStoresValidImage(t *testing.T) {
	ingest, dir := newTestIngest(t, 2<<20)
	file, header := multipartUpload(t, "poster.png", pngBytes)

	publicPath, err := ingest.Accept(file, header, "Apéro & Talks 2025")

	require.NoError(t, err)
	require.True(t, strings.HasPrefix(publicPath, "/uploads/ap-ro-talks-2025-"))
	require.True(t, strings.HasSuffix(publicPath, ".png"))
	require.False(t, filepath.IsAbs(publicPath) && strings.HasPrefix(publicPath, dir),
		"must not leak the filesystem location")

	entries := dirEntries(t, dir)
	require.Len(t, entries, 1)
	require.Equal(t, filepath.Base(publicPath), entries[0].Name())
}

func TestAcceptDetectsTypeByContentNotExtension(t *testing.T) {
	ingest, dir := newTestIngest(t, 2<<20)

	// A GIF pretending to be a PNG must be rejected.
	file, header := multipartUpload(t, "sneaky.png", gifBytes)
	_, err := ingest.Accept(file, header, "Sneaky")
	require.ErrorIs(t, err, ErrUnsupportedImageType)
	require.Empty(t, dirEntries(t, dir), "no file may remain after rejection")

	// A JPEG with a wrong extension is stored with the sniffed extension.
	file, header = multipartUpload(t, "photo.dat", jpegBytes)
	publicPath, err := ingest.Accept(file, header, "Photo")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(publicPath, ".jpg"))
}

func TestAcceptAllAllowedTypes(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		ext     string
	}{
		{"png", pngBytes, ".png"},
		{"jpeg", jpegBytes, ".jpg"},
		{"webp", webpBytes, ".webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingest, _ := newTestIngest(t, 2<<20)
			file, header := multipartUpload(t, "img.bin", tt.content)

			publicPath, err := ingest.Accept(file, header, "Event")

			require.NoError(t, err)
			require.True(t, strings.HasSuffix(publicPath, tt.ext))
		})
	}
}

func TestAcceptRejectsOversizedUpload(t *testing.T) {
	ingest, dir := newTestIngest(t, 128)
	big := append(append([]byte{}, pngBytes...), make([]byte, 512)...)
	file, header := multipartUpload(t, "big.png", big)

	_, err := ingest.Accept(file, header, "Big")

	require.ErrorIs(t, err, ErrImageTooLarge)
	require.Empty(t, dirEntries(t, dir), "no file may be written to the upload dir")
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Apéro & Talks 2025", "ap-ro-talks-2025"},
		{"  Networking!!!  ", "networking"},
		{"UPPER case", "upper-case"},
		{"---", "event"},
		{"", "event"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}

	for _, tt := range tests {
		require.Equal(t, tt.expected, Slug(tt.input), "Slug(%q)", tt.input)
	}
}
