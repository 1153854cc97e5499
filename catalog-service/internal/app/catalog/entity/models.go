package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ImageSaveFailedPath записывается вместо пути, если изображение не удалось сохранить
const ImageSaveFailedPath = "Unable to save the file."

// OtherVariantGroup - группа фасетов для вариантов без известного Variant
const OtherVariantGroup = "Other"

// Product представляет товар в каталоге
// Дочерние записи загружаются только явным Preload в репозитории
type Product struct {
	ID          uint64                `json:"id" gorm:"primaryKey"`
	Title       string                `json:"title" gorm:"not null"`
	SKU         string                `json:"sku" gorm:"column:sku;not null"`
	Description *string               `json:"description"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Images      []ProductImage        `json:"images,omitempty" gorm:"foreignKey:ProductID"`
	Variants    []ProductVariant      `json:"variants,omitempty" gorm:"foreignKey:ProductID"`
	Prices      []ProductVariantPrice `json:"product_variant_prices,omitempty" gorm:"foreignKey:ProductID"`
}

// ProductImage - путь к изображению товара в blob store
type ProductImage struct {
	ID        uint64    `json:"id" gorm:"primaryKey"`
	ProductID uint64    `json:"product_id" gorm:"not null;index"`
	FilePath  string    `json:"file_path" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Variant - группа вариантов (Color, Size), справочник только для чтения
type Variant struct {
	ID          uint64    `json:"id" db:"id" gorm:"primaryKey"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProductVariant - участие товара в группе вариантов с набором тегов
// Variant хранит JSON-массив строк, например ["Red","Blue"]
type ProductVariant struct {
	ID        uint64         `json:"id" gorm:"primaryKey"`
	ProductID uint64         `json:"product_id" gorm:"not null;index"`
	VariantID uint64         `json:"variant_id" gorm:"not null"`
	Variant   datatypes.JSON `json:"variant"`
	CreatedAt time.Time      `json:"created_at"`
}

// Tags декодирует набор тегов
func (pv ProductVariant) Tags() ([]string, error) {
	var tags []string
	if err := json.Unmarshal(pv.Variant, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// NewProductVariant сериализует теги в JSON
func NewProductVariant(productID, variantID uint64, tags []string) (ProductVariant, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return ProductVariant{}, err
	}
	return ProductVariant{
		ProductID: productID,
		VariantID: variantID,
		Variant:   datatypes.JSON(data),
	}, nil
}

// ProductVariantPrice - цена и остаток для конкретной комбинации тегов
type ProductVariantPrice struct {
	ID        uint64          `json:"id" gorm:"primaryKey"`
	ProductID uint64          `json:"product_id" gorm:"not null;index"`
	Variant   string          `json:"variant"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	Stock     int             `json:"stock" gorm:"not null;default:0"`
	CreatedAt time.Time       `json:"created_at"`
}

// Facet - группа вариантов с уникальными значениями для фильтра поиска
type Facet struct {
	Group  string   `json:"group"`
	Values []string `json:"values"`
}

// ProductFilter - необязательные параметры поиска товаров
// nil/пустое значение означает отсутствие фильтра
type ProductFilter struct {
	Title     string
	Date      *time.Time
	Variant   string
	PriceFrom *decimal.Decimal
	PriceTo   *decimal.Decimal
}

// DefaultPerPage - фиксированный размер страницы списка товаров
const DefaultPerPage = 10

// ProductPage - страница результатов поиска
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"current_page"`
	PerPage  int       `json:"per_page"`
	LastPage int       `json:"last_page"`
	From     int       `json:"from"`
	To       int       `json:"to"`
}

// NewProductPage считает служебные поля пагинации
func NewProductPage(products []Product, total int64, page, perPage int) ProductPage {
	if products == nil {
		products = []Product{}
	}
	p := ProductPage{
		Products: products,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		LastPage: 1,
	}
	if perPage > 0 && total > 0 {
		p.LastPage = int((total + int64(perPage) - 1) / int64(perPage))
	}
	if len(products) > 0 {
		p.From = (page-1)*perPage + 1
		p.To = p.From + len(products) - 1
	}
	return p
}

// Типы событий о товарах для Kafka
const (
	EventProductCreated = "PRODUCT_CREATED"
	EventProductUpdated = "PRODUCT_UPDATED"
	EventProductDeleted = "PRODUCT_DELETED"
)

// ProductEvent - событие изменения товара
type ProductEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType string    `json:"event_type"`
	ProductID uint64    `json:"product_id"`
	Title     string    `json:"title,omitempty"`
	SKU       string    `json:"sku,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
