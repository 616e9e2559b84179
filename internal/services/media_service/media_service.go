package services

import (
	"context"
	"log/slog"
	"sync"

	"atelier/internal/domain/models"
	"atelier/internal/lib/logger/sl"
	"atelier/internal/transcoder"
	"atelier/internal/transport/http/dto"
)

type Transcoder interface {
	Transcode(ctx context.Context, blob []byte, contentType string) (models.MediaPair, error)
}

type MediaService struct {
	log        *slog.Logger
	transcoder Transcoder
}

func NewMediaService(log *slog.Logger, t Transcoder) *MediaService {
	return &MediaService{
		log:        log,
		transcoder: t,
	}
}

// Ingest converts the uploaded files into the product media list. Files
// transcode concurrently, but the result keeps upload order: the first
// item is the cover image, so order must not depend on which transcode
// finishes first. A file that fails to transcode is logged and dropped;
// the batch itself never fails.
func (s *MediaService) Ingest(ctx context.Context, files []dto.UploadFile) models.MediaList {
	const op = "media_service.Ingest"

	log := s.log.With(
		slog.String("op", op),
		slog.Int("files", len(files)),
	)

	results := make([]*models.MediaPair, len(files))

	var wg sync.WaitGroup

	for i, file := range files {
		if transcoder.Classify(file.ContentType) == transcoder.KindUnsupported {
			log.Debug("skipping unsupported file",
				slog.String("filename", file.Filename),
				slog.String("content_type", file.ContentType),
			)
			continue
		}

		wg.Add(1)
		go func(i int, file dto.UploadFile) {
			defer wg.Done()

			pair, err := s.transcoder.Transcode(ctx, file.Data, file.ContentType)
			if err != nil {
				log.Warn("file transcode failed, dropping file",
					slog.Int("index", i),
					slog.String("filename", file.Filename),
					sl.Err(err),
				)
				return
			}

			results[i] = &pair
		}(i, file)
	}

	wg.Wait()

	media := make(models.MediaList, 0, len(files))
	for _, pair := range results {
		if pair != nil {
			media = append(media, *pair)
		}
	}

	return media
}
