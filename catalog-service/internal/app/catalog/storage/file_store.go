package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImagesNamespace - поддиректория, в которую пишутся изображения товаров
const ImagesNamespace = "images"

const defaultImageName = "image.png"

var ErrEmptyBlob = errors.New("empty blob")

// BlobStore сохраняет байты под именем и возвращает путь для записи в БД
type BlobStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// FileStore хранит изображения на локальном диске под <root>/images
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Save записывает файл под уникальным именем <uuid>-<имя клиента>
// Имя клиента очищается от путей и небезопасных символов
func (s *FileStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyBlob
	}

	dir := filepath.Join(s.root, ImagesNamespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}

	fileName := uuid.NewString() + "-" + SanitizeFilename(name)
	if err := os.WriteFile(filepath.Join(dir, fileName), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return path.Join(ImagesNamespace, fileName), nil
}

// SanitizeFilename оставляет только базовое имя из символов [A-Za-z0-9._-]
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimLeft(b.String(), ".")
	if cleaned == "" {
		return defaultImageName
	}
	return cleaned
}
