package transcoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"atelier/internal/domain/models"
	"atelier/internal/metrics"
)

// Derived-variant bounds. Fixed by configuration, never derived from the
// input; inputs smaller than the bound are kept at their original size.
const (
	ThumbnailWidth   = 300
	ThumbnailQuality = 60
	FullWidth        = 1200
	FullQuality      = 80

	videoThumbBitrate = "400k"
	videoFullBitrate  = "800k"
	videoThumbHeight  = 480
	videoFullHeight   = 720
)

type Kind string

const (
	KindImage       Kind = "image"
	KindVideo       Kind = "video"
	KindUnsupported Kind = "unsupported"
)

// Classify determines the media kind from the declared content type.
func Classify(contentType string) Kind {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return KindImage
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo
	default:
		return KindUnsupported
	}
}

var ErrUnsupportedMedia = errors.New("unsupported media type")

// TranscodeError wraps a codec failure (corrupt input, unsupported codec,
// resource exhaustion) for one file.
type TranscodeError struct {
	Kind Kind
	Err  error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("%s transcode failed: %v", e.Kind, e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

type Transcoder struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Transcoder {
	return &Transcoder{log: log}
}

// Transcode converts one raw media blob into its thumbnail/full variant
// pair. Both variants are self-contained data URIs.
func (t *Transcoder) Transcode(ctx context.Context, blob []byte, contentType string) (models.MediaPair, error) {
	const op = "transcoder.Transcode"

	kind := Classify(contentType)
	if kind == KindUnsupported {
		return models.MediaPair{}, fmt.Errorf("%s: %q: %w", op, contentType, ErrUnsupportedMedia)
	}

	start := time.Now()

	var pair models.MediaPair
	var err error

	switch kind {
	case KindImage:
		pair, err = t.transcodeImage(blob)
	case KindVideo:
		pair, err = t.transcodeVideo(ctx, blob)
	}

	metrics.TranscodeDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.TranscodeTotal.WithLabelValues(string(kind), "error").Inc()
		return models.MediaPair{}, fmt.Errorf("%s: %w", op, &TranscodeError{Kind: kind, Err: err})
	}

	metrics.TranscodeTotal.WithLabelValues(string(kind), "ok").Inc()

	return pair, nil
}
