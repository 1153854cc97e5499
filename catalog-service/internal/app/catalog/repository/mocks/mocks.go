package mocks

import (
	"context"
	"time"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
	"catalogadmin/catalog-service/internal/app/catalog/repository"

	"github.com/stretchr/testify/mock"
)

// MockProductRepository мок для ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *entity.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uint64) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) GetWithChildren(ctx context.Context, id uint64) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductRepository) Update(ctx context.Context, product *entity.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) DeleteChildren(ctx context.Context, productID uint64) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func (m *MockProductRepository) CreateImages(ctx context.Context, images []entity.ProductImage) error {
	args := m.Called(ctx, images)
	return args.Error(0)
}

func (m *MockProductRepository) CreateVariants(ctx context.Context, variants []entity.ProductVariant) error {
	args := m.Called(ctx, variants)
	return args.Error(0)
}

func (m *MockProductRepository) CreatePrices(ctx context.Context, prices []entity.ProductVariantPrice) error {
	args := m.Called(ctx, prices)
	return args.Error(0)
}

func (m *MockProductRepository) ListProductVariants(ctx context.Context) ([]entity.ProductVariant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ProductVariant), args.Error(1)
}

func (m *MockProductRepository) Search(ctx context.Context, filter entity.ProductFilter, page, perPage int) (*entity.ProductPage, error) {
	args := m.Called(ctx, filter, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProductPage), args.Error(1)
}

// Transaction вызывает fn с самим моком, если ожидание вернуло nil
// Ошибка из ожидания имитирует сбой Begin
func (m *MockProductRepository) Transaction(ctx context.Context, fn func(repo repository.ProductRepository) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

// MockVariantRepository мок для VariantRepository
type MockVariantRepository struct {
	mock.Mock
}

func (m *MockVariantRepository) GetAll(ctx context.Context) ([]entity.Variant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Variant), args.Error(1)
}

func (m *MockVariantRepository) GetByID(ctx context.Context, id uint64) (*entity.Variant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Variant), args.Error(1)
}

// MockVariantCache мок для util.VariantCache
type MockVariantCache struct {
	mock.Mock
}

func (m *MockVariantCache) SetVariants(ctx context.Context, variants []entity.Variant, ttl time.Duration) error {
	args := m.Called(ctx, variants, ttl)
	return args.Error(0)
}

func (m *MockVariantCache) GetVariants(ctx context.Context) ([]entity.Variant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Variant), args.Error(1)
}

func (m *MockVariantCache) DeleteVariants(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockVariantCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockMessagePublisher мок для util.MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockBlobStore мок для storage.BlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}
