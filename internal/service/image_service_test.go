package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"campusmarket/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newImageServiceForTest(t *testing.T) *ImageService {
	t.Helper()
	return NewImageService(&config.Config{
		UploadDir:       t.TempDir(),
		UploadMaxSizeMB: 1,
	})
}

func TestImageService_UploadAndResolve(t *testing.T) {
	t.Parallel()

	svc := newImageServiceForTest(t)
	content := tinyPNG(t, 640, 480)

	stored, err := svc.Upload(UploadImageInput{
		UserID:      42,
		Filename:    "lamp.png",
		ContentType: "image/png",
		Content:     content,
	})
	require.NoError(t, err)
	require.NotEmpty(t, stored.Hash)
	assert.Contains(t, stored.URL, stored.Hash)
	assert.Contains(t, stored.ThumbnailURL, "thumb.webp")

	for _, variant := range []string{"full.webp", "thumb.webp", "full.jpg"} {
		path, rerr := svc.ResolveForServing(stored.Hash, variant)
		require.NoError(t, rerr, "variant %s", variant)
		_, statErr := os.Stat(path)
		require.NoError(t, statErr, "variant %s", variant)
	}

	// Same content by the same user maps to the same hash.
	stored2, err := svc.Upload(UploadImageInput{
		UserID:      42,
		Filename:    "lamp-copy.png",
		ContentType: "image/png",
		Content:     content,
	})
	require.NoError(t, err)
	assert.Equal(t, stored.Hash, stored2.Hash)
}

func TestImageService_Upload_ResizesLargeImages(t *testing.T) {
	t.Parallel()

	svc := newImageServiceForTest(t)

	stored, err := svc.Upload(UploadImageInput{
		UserID:      1,
		Filename:    "wide.png",
		ContentType: "image/png",
		Content:     tinyPNG(t, 2400, 600),
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, stored.Width, FullImageMaxSize)
	assert.LessOrEqual(t, stored.Height, FullImageMaxSize)
	// Aspect ratio is preserved: 2400x600 scales to 1600x400.
	assert.Equal(t, 1600, stored.Width)
	assert.Equal(t, 400, stored.Height)
}

func TestImageService_Upload_Validation(t *testing.T) {
	t.Parallel()

	svc := newImageServiceForTest(t)
	valid := tinyPNG(t, 64, 64)

	cases := []struct {
		name string
		in   UploadImageInput
	}{
		{"missing user", UploadImageInput{Filename: "a.png", ContentType: "image/png", Content: valid}},
		{"empty content", UploadImageInput{UserID: 1, Filename: "a.png", ContentType: "image/png"}},
		{"not an image", UploadImageInput{UserID: 1, Filename: "a.txt", ContentType: "text/plain", Content: []byte("just some text, definitely not pixels")}},
		{"corrupt image data", UploadImageInput{UserID: 1, Filename: "a.png", ContentType: "image/png", Content: append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{0xff}, 64)...)}},
		{"content type mismatch", UploadImageInput{UserID: 1, Filename: "a.jpg", ContentType: "image/jpeg", Content: valid}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Upload(tc.in)
			assertValidationError(t, err)
		})
	}
}

func TestImageService_Upload_SizeLimit(t *testing.T) {
	t.Parallel()

	svc := NewImageService(&config.Config{UploadDir: t.TempDir(), UploadMaxSizeMB: 1})

	oversized := make([]byte, 1024*1024+1)
	_, err := svc.Upload(UploadImageInput{UserID: 1, Filename: "big.png", ContentType: "image/png", Content: oversized})
	assertValidationError(t, err)
}

func TestImageService_ResolveForServing_RejectsTraversal(t *testing.T) {
	t.Parallel()

	svc := newImageServiceForTest(t)

	for _, hash := range []string{"../etc", "ABCDEF", "abc/def", "", "deadbeef/.."} {
		_, err := svc.ResolveForServing(hash, "full.webp")
		assertValidationError(t, err)
	}

	_, err := svc.ResolveForServing("deadbeef", "secret.txt")
	assertValidationError(t, err)

	// Valid hash with no stored file is a not-found, never a disk error leak.
	_, err = svc.ResolveForServing("deadbeefdeadbeef", "full.webp")
	assertNotFoundError(t, err)
}

func TestIsValidImageHash(t *testing.T) {
	t.Parallel()

	assert.True(t, isValidImageHash("deadbeef0123456789abcdef"))
	assert.False(t, isValidImageHash(""))
	assert.False(t, isValidImageHash("DEADBEEF"))
	assert.False(t, isValidImageHash("dead-beef"))
	assert.False(t, isValidImageHash(filepath.Join("..", "x")))
}
