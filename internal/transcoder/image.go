package transcoder

import (
	"bytes"
	"encoding/base64"
	"image"

	"atelier/internal/domain/models"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp" // WebP decode support
)

func (t *Transcoder) transcodeImage(blob []byte) (models.MediaPair, error) {
	img, err := imaging.Decode(bytes.NewReader(blob), imaging.AutoOrientation(true))
	if err != nil {
		return models.MediaPair{}, err
	}

	thumb, err := encodeJPEG(fitWidth(img, ThumbnailWidth), ThumbnailQuality)
	if err != nil {
		return models.MediaPair{}, err
	}

	full, err := encodeJPEG(fitWidth(img, FullWidth), FullQuality)
	if err != nil {
		return models.MediaPair{}, err
	}

	return models.MediaPair{
		Thumbnail: dataURI("image/jpeg", thumb),
		Full:      dataURI("image/jpeg", full),
	}, nil
}

// fitWidth bounds the image to maxWidth preserving aspect ratio. Smaller
// images pass through untouched.
func fitWidth(img image.Image, maxWidth int) image.Image {
	if img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func dataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
