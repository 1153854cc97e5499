package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
	"catalogadmin/pkg/logger"
	"catalogadmin/pkg/metrics"
)

var (
	ErrEmptyImage     = errors.New("empty image payload")
	ErrInvalidDataURL = errors.New("invalid data url")
)

// DecodeDataURL декодирует "data:<mime>;base64,<payload>" или голый base64
// Пробелы считаются '+', испорченными при передаче через form-urlencoded
func DecodeDataURL(dataURL string) ([]byte, error) {
	payload := strings.TrimSpace(dataURL)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return nil, ErrInvalidDataURL
		}
		payload = payload[comma+1:]
	}

	payload = strings.ReplaceAll(payload, " ", "+")
	if payload == "" {
		return nil, ErrEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	return data, nil
}

// saveImages пишет изображения в blob store до открытия транзакции
// Возвращает путь для каждой загрузки в исходном порядке
func (s *CatalogService) saveImages(ctx context.Context, uploads []entity.ImageUpload) []string {
	paths := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		paths = append(paths, s.saveImage(ctx, upload))
	}
	return paths
}

// saveImage никогда не возвращает ошибку: при сбое записывается заглушка
func (s *CatalogService) saveImage(ctx context.Context, upload entity.ImageUpload) string {
	data, err := DecodeDataURL(upload.DataURL)

	var path string
	if err == nil {
		path, err = s.blobs.Save(ctx, upload.Filename(), data)
	}

	if err != nil {
		metrics.RecordImageSave(false)
		logger.Ctx(ctx).Warn().
			Err(err).
			Str("filename", upload.Filename()).
			Msg("Failed to save product image, using placeholder")
		return entity.ImageSaveFailedPath
	}

	metrics.RecordImageSave(true)
	return path
}
