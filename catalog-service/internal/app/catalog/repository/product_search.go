package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
	"catalogadmin/pkg/metrics"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern строит LIKE-шаблон "подстрока", экранируя % и _
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

// Search возвращает страницу товаров по фильтру вместе с отфильтрованными ценами
// Сортировка по products.id, чтобы пагинация была детерминированной
func (r *productRepository) Search(ctx context.Context, filter entity.ProductFilter, page, perPage int) (result *entity.ProductPage, err error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "products")
	defer func() { timer.Done(err) }()

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = entity.DefaultPerPage
	}

	var total int64
	if err := r.filteredProducts(ctx, filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	metrics.CatalogSearchResults.Observe(float64(total))

	var products []entity.Product
	if total > 0 {
		err := r.filteredProducts(ctx, filter).
			Preload("Prices", func(db *gorm.DB) *gorm.DB {
				return db.Scopes(priceRowScope(filter)).Order("product_variant_prices.id ASC")
			}).
			Order("products.id ASC").
			Offset((page - 1) * perPage).
			Limit(perPage).
			Find(&products).Error
		if err != nil {
			return nil, fmt.Errorf("failed to search products: %w", err)
		}
	}

	p := entity.NewProductPage(products, total, page, perPage)
	return &p, nil
}

// filteredProducts собирает новый запрос к products с условиями фильтра
// Каждый вызов возвращает отдельный statement, поэтому Count и Find не мешают друг другу
func (r *productRepository) filteredProducts(ctx context.Context, filter entity.ProductFilter) *gorm.DB {
	return r.db.WithContext(ctx).Model(&entity.Product{}).Scopes(productScope(filter))
}

// productScope применяет условия к самим товарам
func productScope(filter entity.ProductFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Title != "" {
			db = db.Where(`products.title LIKE ? ESCAPE '\'`, containsPattern(filter.Title))
		}

		if filter.Date != nil {
			day := time.Date(filter.Date.Year(), filter.Date.Month(), filter.Date.Day(), 0, 0, 0, 0, time.UTC)
			db = db.Where("products.created_at >= ? AND products.created_at < ?", day, day.AddDate(0, 0, 1))
		}

		// Каждое условие на цены проверяется отдельным EXISTS:
		// подходящие строки для разных условий могут не совпадать
		if filter.Variant != "" {
			db = db.Where("EXISTS (?)", priceRowExists(db,
				`product_variant_prices.variant LIKE ? ESCAPE '\'`, containsPattern(filter.Variant)))
		}
		if filter.PriceFrom != nil {
			db = db.Where("EXISTS (?)", priceRowExists(db, "product_variant_prices.price >= ?", *filter.PriceFrom))
		}
		if filter.PriceTo != nil {
			db = db.Where("EXISTS (?)", priceRowExists(db, "product_variant_prices.price <= ?", *filter.PriceTo))
		}

		return db
	}
}

// priceRowExists строит подзапрос "есть строка цены товара с условием"
func priceRowExists(db *gorm.DB, condition string, arg interface{}) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Table("product_variant_prices").
		Select("1").
		Where("product_variant_prices.product_id = products.id").
		Where(condition, arg)
}

// priceRowScope применяет все условия сразу к загружаемым строкам product_variant_prices
func priceRowScope(filter entity.ProductFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Variant != "" {
			db = db.Where(`product_variant_prices.variant LIKE ? ESCAPE '\'`, containsPattern(filter.Variant))
		}
		if filter.PriceFrom != nil {
			db = db.Where("product_variant_prices.price >= ?", *filter.PriceFrom)
		}
		if filter.PriceTo != nil {
			db = db.Where("product_variant_prices.price <= ?", *filter.PriceTo)
		}
		return db
	}
}
