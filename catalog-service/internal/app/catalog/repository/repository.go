package repository

import (
	"context"
	"errors"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

// ProductRepository - товары и их дочерние записи (изображения, варианты, цены)
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uint64) (*entity.Product, error)
	GetWithChildren(ctx context.Context, id uint64) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id uint64) error

	DeleteChildren(ctx context.Context, productID uint64) error
	CreateImages(ctx context.Context, images []entity.ProductImage) error
	CreateVariants(ctx context.Context, variants []entity.ProductVariant) error
	CreatePrices(ctx context.Context, prices []entity.ProductVariantPrice) error

	ListProductVariants(ctx context.Context) ([]entity.ProductVariant, error)
	Search(ctx context.Context, filter entity.ProductFilter, page, perPage int) (*entity.ProductPage, error)

	// Transaction выполняет fn в одной транзакции БД
	Transaction(ctx context.Context, fn func(repo ProductRepository) error) error
}

// VariantRepository - справочник групп вариантов (только чтение)
type VariantRepository interface {
	GetAll(ctx context.Context) ([]entity.Variant, error)
	GetByID(ctx context.Context, id uint64) (*entity.Variant, error)
}
