package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
	"catalogadmin/pkg/metrics"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const serviceName = "catalog-service"

// pgForeignKeyViolation - код ошибки PostgreSQL foreign_key_violation
const pgForeignKeyViolation = "23503"

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает репозиторий товаров
// Ожидает *gorm.DB с SkipDefaultTransaction и DisableNestedTransaction,
// транзакции открываются явно через Transaction
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Transaction выполняет fn с репозиторием, привязанным к одной транзакции
// Commit при nil, Rollback при любой ошибке или panic
func (r *productRepository) Transaction(ctx context.Context, fn func(repo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&productRepository{db: tx})
	})
}

// Create создает товар без дочерних записей, id генерирует БД
func (r *productRepository) Create(ctx context.Context, product *entity.Product) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, "products")
	defer func() { timer.Done(err) }()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID получает товар без дочерних записей
func (r *productRepository) GetByID(ctx context.Context, id uint64) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).First(&product, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", result.Error)
	}

	return &product, nil
}

// GetWithChildren получает товар с изображениями, вариантами и ценами
func (r *productRepository) GetWithChildren(ctx context.Context, id uint64) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).
		Preload("Images", orderByID("product_images")).
		Preload("Variants", orderByID("product_variants")).
		Preload("Prices", orderByID("product_variant_prices")).
		First(&product, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product with children: %w", result.Error)
	}

	return &product, nil
}

// Update обновляет базовые поля товара (title, sku, description)
func (r *productRepository) Update(ctx context.Context, product *entity.Product) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, "products")
	defer func() { timer.Done(err) }()

	product.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(&entity.Product{}).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"title":       product.Title,
		"sku":         product.SKU,
		"description": product.Description,
		"updated_at":  product.UpdatedAt,
	})

	if result.Error != nil {
		return fmt.Errorf("failed to update product: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete удаляет товар вместе со всеми дочерними записями в одной транзакции
func (r *productRepository) Delete(ctx context.Context, id uint64) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "products")
	defer func() { timer.Done(err) }()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &productRepository{db: tx}
		if err := txRepo.DeleteChildren(ctx, id); err != nil {
			return err
		}

		result := tx.Delete(&entity.Product{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}

// DeleteChildren удаляет все изображения, варианты и цены товара
// Идемпотентна: отсутствие строк не является ошибкой
func (r *productRepository) DeleteChildren(ctx context.Context, productID uint64) (err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "product_children")
	defer func() { timer.Done(err) }()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		children := []interface{}{
			&entity.ProductImage{},
			&entity.ProductVariant{},
			&entity.ProductVariantPrice{},
		}
		for _, model := range children {
			if err := tx.Where("product_id = ?", productID).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete product children: %w", err)
			}
		}
		return nil
	})
}

// CreateImages вставляет изображения одним запросом
func (r *productRepository) CreateImages(ctx context.Context, images []entity.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&images).Error; err != nil {
		return fmt.Errorf("failed to create product images: %w", mapForeignKey(err, ErrProductNotFound))
	}
	return nil
}

// CreateVariants вставляет назначения вариантов
// Нарушение FK на variants превращается в ErrVariantNotFound
func (r *productRepository) CreateVariants(ctx context.Context, variants []entity.ProductVariant) error {
	if len(variants) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&variants).Error; err != nil {
		return fmt.Errorf("failed to create product variants: %w", mapVariantForeignKey(err))
	}
	return nil
}

// CreatePrices вставляет строки цен и остатков
func (r *productRepository) CreatePrices(ctx context.Context, prices []entity.ProductVariantPrice) error {
	if len(prices) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&prices).Error; err != nil {
		return fmt.Errorf("failed to create product variant prices: %w", mapForeignKey(err, ErrProductNotFound))
	}
	return nil
}

// ListProductVariants получает все назначения вариантов для построения фасетов
func (r *productRepository) ListProductVariants(ctx context.Context) (variants []entity.ProductVariant, err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "product_variants")
	defer func() { timer.Done(err) }()

	if err := r.db.WithContext(ctx).Order("id ASC").Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("failed to list product variants: %w", err)
	}
	return variants, nil
}

func orderByID(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id ASC")
	}
}

func mapForeignKey(err error, target error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return target
	}
	return err
}

// mapVariantForeignKey различает отсутствующий товар и отсутствующую группу вариантов
func mapVariantForeignKey(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		if strings.Contains(pgErr.Detail, `table "variants"`) {
			return ErrVariantNotFound
		}
		return ErrProductNotFound
	}
	return err
}
