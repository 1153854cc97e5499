package entity

import "github.com/shopspring/decimal"

// ProductRequest - тело POST /products и PUT/PATCH /products/:id
// Необязательные списки по умолчанию пустые
type ProductRequest struct {
	Title                string                `json:"title" validate:"required"`
	SKU                  string                `json:"sku" validate:"required"`
	Description          *string               `json:"description"`
	ProductImage         []ImageUpload         `json:"product_image" validate:"dive"`
	ProductVariant       []VariantAssignment   `json:"product_variant" validate:"dive"`
	ProductVariantPrices []VariantPriceRequest `json:"product_variant_prices" validate:"dive"`
}

// ImageUpload - изображение в виде data URI
// Имя файла приходит в upload.filename (создание) или name (редактирование)
type ImageUpload struct {
	DataURL string        `json:"dataURL"`
	Name    string        `json:"name,omitempty"`
	Upload  *UploadDetail `json:"upload,omitempty"`
}

type UploadDetail struct {
	Filename string `json:"filename"`
}

// Filename возвращает имя файла из upload.filename либо name
func (i ImageUpload) Filename() string {
	if i.Upload != nil && i.Upload.Filename != "" {
		return i.Upload.Filename
	}
	return i.Name
}

// VariantAssignment - теги товара в группе вариантов
type VariantAssignment struct {
	Option uint64   `json:"option" validate:"required"`
	Tags   []string `json:"tags"`
}

// VariantPriceRequest - строка цены; title становится меткой варианта
type VariantPriceRequest struct {
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock" validate:"gte=0"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListFilterEcho - параметры поиска, которые вернулись клиенту для заполнения формы
type ListFilterEcho struct {
	Title     string `json:"title,omitempty"`
	Date      string `json:"date,omitempty"`
	Variant   string `json:"variant,omitempty"`
	PriceFrom string `json:"price_from,omitempty"`
	PriceTo   string `json:"price_to,omitempty"`
}

// ProductListResponse - ответ GET /products
type ProductListResponse struct {
	Products   []Product      `json:"products"`
	Pagination Pagination     `json:"pagination"`
	Facets     []Facet        `json:"facets"`
	Filter     ListFilterEcho `json:"filter"`
}

type Pagination struct {
	Total    int64 `json:"total"`
	Page     int   `json:"current_page"`
	PerPage  int   `json:"per_page"`
	LastPage int   `json:"last_page"`
	From     int   `json:"from"`
	To       int   `json:"to"`
}

// ProductListing - результат сервиса для списка товаров
type ProductListing struct {
	Page   ProductPage
	Facets []Facet
}

// CreateFormResponse - ответ GET /products/create
type CreateFormResponse struct {
	Variants []Variant `json:"variants"`
}

// VariantOption - декодированные теги товара для формы редактирования
type VariantOption struct {
	VariantID uint64   `json:"variant_id"`
	Tags      []string `json:"tags"`
}

// EditProductResponse - ответ GET /products/:id/edit
type EditProductResponse struct {
	Variants            []Variant             `json:"variants"`
	Product             Product               `json:"product"`
	Options             []VariantOption       `json:"options"`
	ProductVariantPrice []ProductVariantPrice `json:"product_variant_price"`
	Images              []ProductImage        `json:"images"`
}
