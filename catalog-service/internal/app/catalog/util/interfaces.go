package util

import (
	"context"
	"time"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
)

// VariantCache интерфейс кеша справочника вариантов
// Используется для dependency injection и упрощения тестирования
type VariantCache interface {
	SetVariants(ctx context.Context, variants []entity.Variant, ttl time.Duration) error
	// GetVariants возвращает nil, nil при промахе
	GetVariants(ctx context.Context) ([]entity.Variant, error)
	DeleteVariants(ctx context.Context) error
	Close() error
}

// MessagePublisher интерфейс для отправки событий о товарах (Kafka)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}
