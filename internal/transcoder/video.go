package transcoder

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"atelier/internal/domain/models"
	"atelier/internal/lib/logger/sl"

	"github.com/google/uuid"
)

// transcodeVideo re-encodes the blob twice at different bitrates/heights.
// ffmpeg cannot operate purely in memory, so the input and each output go
// through uniquely named scratch files that are removed on every path.
func (t *Transcoder) transcodeVideo(ctx context.Context, blob []byte) (models.MediaPair, error) {
	inPath := scratchPath("input.mp4")

	if err := os.WriteFile(inPath, blob, 0o600); err != nil {
		return models.MediaPair{}, fmt.Errorf("write scratch input: %w", err)
	}
	defer func() {
		if err := os.Remove(inPath); err != nil {
			t.log.Warn("failed to remove scratch input", sl.Err(err))
		}
	}()

	thumb, err := t.renderVideo(ctx, inPath, videoThumbBitrate, videoThumbHeight)
	if err != nil {
		return models.MediaPair{}, err
	}

	full, err := t.renderVideo(ctx, inPath, videoFullBitrate, videoFullHeight)
	if err != nil {
		return models.MediaPair{}, err
	}

	return models.MediaPair{
		Thumbnail: dataURI("video/mp4", thumb),
		Full:      dataURI("video/mp4", full),
	}, nil
}

// renderVideo runs one ffmpeg pass and reads the result back into memory.
// The scale filter never upscales: the target height is capped at the
// source height.
func (t *Transcoder) renderVideo(ctx context.Context, inPath, bitrate string, height int) ([]byte, error) {
	outPath := scratchPath("out.mp4")
	defer os.Remove(outPath)

	args := []string{
		"-y",
		"-i", inPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-b:v", bitrate,
		"-vf", fmt.Sprintf(`scale=-2:min(%d\,ih)`, height),
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-f", "mp4",
		outPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.log.Warn("ffmpeg failed",
			slog.String("bitrate", bitrate),
			slog.String("stderr", stderr.String()),
		)
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read scratch output: %w", err)
	}

	return out, nil
}

func scratchPath(suffix string) string {
	return filepath.Join(os.TempDir(), uuid.New().String()+"-"+suffix)
}
