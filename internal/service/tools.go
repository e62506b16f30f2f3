package service

import (
	"fmt"
	"strings"

	"github.com/UnendingLoop/WebPUploader/internal/model"
)

func validateCredentials(c model.Credentials) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"endpoint", c.Endpoint},
		{"access key", c.AccessKey},
		{"secret key", c.SecretKey},
		{"bucket", c.Bucket},
		{"public url", c.PublicURL},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", model.ErrConfig, strings.Join(missing, ", "))
	}
	return nil
}

func validateNormalizeParams(p *model.UploadParams) error {
	// Обрабатываем пустые значения, присваиваем дефолты если надо
	if p.Quality == 0 {
		p.Quality = model.DefaultQuality
	}
	if p.ThumbQuality == 0 {
		p.ThumbQuality = model.DefaultThumbQuality
	}
	if p.ThumbSize == 0 {
		p.ThumbSize = model.DefaultThumbSize
	}
	p.SessionID = strings.TrimSpace(p.SessionID)

	// Валидируем диапазоны
	if p.Quality < model.MinQuality || p.Quality > model.MaxQuality {
		return fmt.Errorf("%w: quality %d not in [%d..%d]", model.ErrInvalidParams, p.Quality, model.MinQuality, model.MaxQuality)
	}
	if p.ThumbQuality < model.MinQuality || p.ThumbQuality > model.MaxQuality {
		return fmt.Errorf("%w: thumb quality %d not in [%d..%d]", model.ErrInvalidParams, p.ThumbQuality, model.MinQuality, model.MaxQuality)
	}
	if p.ThumbSize < model.MinThumbSize || p.ThumbSize > model.MaxThumbSize {
		return fmt.Errorf("%w: thumb size %d not in [%d..%d]", model.ErrInvalidParams, p.ThumbSize, model.MinThumbSize, model.MaxThumbSize)
	}
	return nil
}
