package transcoder_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"atelier/internal/transcoder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
}

func makeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 64, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))

	return buf.Bytes()
}

func decodeDataURI(t *testing.T, uri, wantPrefix string) []byte {
	t.Helper()

	require.True(t, strings.HasPrefix(uri, wantPrefix), "data URI prefix, got %.40s", uri)

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, wantPrefix))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	return data
}

func imageWidth(t *testing.T, data []byte) int {
	t.Helper()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)

	return cfg.Width
}

func TestClassify(t *testing.T) {
	assert.Equal(t, transcoder.KindImage, transcoder.Classify("image/jpeg"))
	assert.Equal(t, transcoder.KindImage, transcoder.Classify("image/webp"))
	assert.Equal(t, transcoder.KindVideo, transcoder.Classify("video/mp4"))
	assert.Equal(t, transcoder.KindUnsupported, transcoder.Classify("application/pdf"))
	assert.Equal(t, transcoder.KindUnsupported, transcoder.Classify(""))
}

func TestTranscode_ImageBoundsLargeSource(t *testing.T) {
	tc := transcoder.New(testLogger())

	pair, err := tc.Transcode(context.Background(), makeJPEG(t, 2000, 1000), "image/jpeg")
	require.NoError(t, err)

	thumb := decodeDataURI(t, pair.Thumbnail, "data:image/jpeg;base64,")
	full := decodeDataURI(t, pair.Full, "data:image/jpeg;base64,")

	assert.Equal(t, transcoder.ThumbnailWidth, imageWidth(t, thumb))
	assert.Equal(t, transcoder.FullWidth, imageWidth(t, full))

	// thumbnail re-encodes at lower quality, so it should be the smaller one
	assert.Less(t, len(thumb), len(full))
}

func TestTranscode_ImageNeverUpscales(t *testing.T) {
	tc := transcoder.New(testLogger())

	pair, err := tc.Transcode(context.Background(), makeJPEG(t, 120, 90), "image/png")
	require.NoError(t, err)

	thumb := decodeDataURI(t, pair.Thumbnail, "data:image/jpeg;base64,")
	full := decodeDataURI(t, pair.Full, "data:image/jpeg;base64,")

	assert.Equal(t, 120, imageWidth(t, thumb))
	assert.Equal(t, 120, imageWidth(t, full))
}

func TestTranscode_ImageAspectRatioPreserved(t *testing.T) {
	tc := transcoder.New(testLogger())

	pair, err := tc.Transcode(context.Background(), makeJPEG(t, 600, 300), "image/jpeg")
	require.NoError(t, err)

	thumb := decodeDataURI(t, pair.Thumbnail, "data:image/jpeg;base64,")

	cfg, _, err := image.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, transcoder.ThumbnailWidth, cfg.Width)
	assert.Equal(t, transcoder.ThumbnailWidth/2, cfg.Height)
}

func TestTranscode_CorruptImage(t *testing.T) {
	tc := transcoder.New(testLogger())

	_, err := tc.Transcode(context.Background(), []byte("definitely not an image"), "image/jpeg")
	require.Error(t, err)

	var tErr *transcoder.TranscodeError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, transcoder.KindImage, tErr.Kind)
}

func TestTranscode_UnsupportedContentType(t *testing.T) {
	tc := transcoder.New(testLogger())

	_, err := tc.Transcode(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, transcoder.ErrUnsupportedMedia))
}

// makeSampleVideo synthesizes a short clip with ffmpeg's test source.
func makeSampleVideo(t *testing.T) []byte {
	t.Helper()

	out := filepath.Join(t.TempDir(), "sample.mp4")

	cmd := exec.Command("ffmpeg",
		"-f", "lavfi",
		"-i", "testsrc=duration=1:size=640x480:rate=10",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		out,
	)
	require.NoError(t, cmd.Run(), "failed to synthesize sample video")

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	return data
}

func TestTranscode_Video(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	tc := transcoder.New(testLogger())

	pair, err := tc.Transcode(context.Background(), makeSampleVideo(t), "video/mp4")
	require.NoError(t, err)

	thumb := decodeDataURI(t, pair.Thumbnail, "data:video/mp4;base64,")
	full := decodeDataURI(t, pair.Full, "data:video/mp4;base64,")

	assert.NotEmpty(t, thumb)
	assert.NotEmpty(t, full)
}

func TestTranscode_CorruptVideo(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	tc := transcoder.New(testLogger())

	_, err := tc.Transcode(context.Background(), []byte("not a video"), "video/mp4")
	require.Error(t, err)

	var tErr *transcoder.TranscodeError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, transcoder.KindVideo, tErr.Kind)
}
