package service

import (
	"context"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
)

// CatalogServiceInterface - операции каталога, которые вызывают handlers
type CatalogServiceInterface interface {
	ListProducts(ctx context.Context, filter entity.ProductFilter, page int) (*entity.ProductListing, error)
	GetCreateForm(ctx context.Context) (*entity.CreateFormResponse, error)
	GetAllVariants(ctx context.Context) ([]entity.Variant, error)

	CreateProduct(ctx context.Context, req *entity.ProductRequest) (*entity.Product, error)
	GetProduct(ctx context.Context, id uint64) (*entity.Product, error)
	GetEditForm(ctx context.Context, id uint64) (*entity.EditProductResponse, error)
	UpdateProduct(ctx context.Context, id uint64, req *entity.ProductRequest) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id uint64) error
}

var _ CatalogServiceInterface = (*CatalogService)(nil)
