package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
	"catalogadmin/catalog-service/internal/app/catalog/service"
	"catalogadmin/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// dateLayout - формат параметра date в списке товаров
const dateLayout = "2006-01-02"

// CatalogHandler обрабатывает HTTP запросы админки каталога с использованием Gin
type CatalogHandler struct {
	catalogService service.CatalogServiceInterface
	validator      *validator.Validate
}

// NewCatalogHandler создает новый обработчик каталога
func NewCatalogHandler(catalogService service.CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		validator:      validator.New(),
	}
}

// ListProducts обрабатывает GET /products
// Фильтры: title, date (YYYY-MM-DD), variant, price_from, price_to; страница - page
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter, echo, err := parseProductFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page := parsePage(c.Query("page"))

	listing, err := h.catalogService.ListProducts(c.Request.Context(), filter, page)
	if err != nil {
		logger.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return
	}

	c.JSON(http.StatusOK, entity.ProductListResponse{
		Products: listing.Page.Products,
		Pagination: entity.Pagination{
			Total:    listing.Page.Total,
			Page:     listing.Page.Page,
			PerPage:  listing.Page.PerPage,
			LastPage: listing.Page.LastPage,
			From:     listing.Page.From,
			To:       listing.Page.To,
		},
		Facets: listing.Facets,
		Filter: echo,
	})
}

// CreateForm обрабатывает GET /products/create
func (h *CatalogHandler) CreateForm(c *gin.Context) {
	form, err := h.catalogService.GetCreateForm(c.Request.Context())
	if err != nil {
		logger.Ctx(c.Request.Context()).Error().Err(err).Msg("Failed to load variants")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load variants"})
		return
	}

	c.JSON(http.StatusOK, form)
}

// CreateProduct обрабатывает POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	req, ok := h.bindProductRequest(c)
	if !ok {
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, entity.SuccessResponse{
		Message: "Successfully Added The Product",
		Data:    product,
	})
}

// GetProduct обрабатывает GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// EditForm обрабатывает GET /products/:id/edit
func (h *CatalogHandler) EditForm(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	form, err := h.catalogService.GetEditForm(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to get product")
		return
	}

	c.JSON(http.StatusOK, form)
}

// UpdateProduct обрабатывает PUT/PATCH /products/:id
// Дочерние записи товара заменяются целиком, в ответе только сообщение
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	req, ok := h.bindProductRequest(c)
	if !ok {
		return
	}

	if _, err := h.catalogService.UpdateProduct(c.Request.Context(), id, req); err != nil {
		respondServiceError(c, err, "Failed to update product")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Product updated successfully"})
}

// DeleteProduct обрабатывает DELETE /products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Product deleted successfully"})
}

// bindProductRequest разбирает тело запроса, при ошибке сам пишет ответ
func (h *CatalogHandler) bindProductRequest(c *gin.Context) (*entity.ProductRequest, bool) {
	var req entity.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, entity.ErrorResponse{
			Error:   "Validation failed",
			Message: formatValidationError(err),
		})
		return nil, false
	}

	return &req, true
}

// respondServiceError переводит ошибки сервиса в HTTP статусы
func respondServiceError(c *gin.Context, err error, fallback string) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, entity.ErrorResponse{
			Error:   "Validation failed",
			Message: vErr.Error(),
		})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, service.ErrVariantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Variant not found"})
	default:
		logger.Ctx(c.Request.Context()).Error().Err(err).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func parseProductID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return id, true
}

// parsePage: отсутствующая или некорректная страница - первая
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// parseProductFilter собирает фильтр из query string
// Пустые параметры считаются отсутствующими
func parseProductFilter(c *gin.Context) (entity.ProductFilter, entity.ListFilterEcho, error) {
	var filter entity.ProductFilter
	echo := entity.ListFilterEcho{
		Title:     c.Query("title"),
		Date:      strings.TrimSpace(c.Query("date")),
		Variant:   c.Query("variant"),
		PriceFrom: strings.TrimSpace(c.Query("price_from")),
		PriceTo:   strings.TrimSpace(c.Query("price_to")),
	}

	filter.Title = echo.Title
	filter.Variant = echo.Variant

	if echo.Date != "" {
		date, err := time.Parse(dateLayout, echo.Date)
		if err != nil {
			return filter, echo, errors.New("invalid date, expected YYYY-MM-DD")
		}
		filter.Date = &date
	}

	if echo.PriceFrom != "" {
		price, err := decimal.NewFromString(echo.PriceFrom)
		if err != nil {
			return filter, echo, errors.New("invalid price_from")
		}
		filter.PriceFrom = &price
	}

	if echo.PriceTo != "" {
		price, err := decimal.NewFromString(echo.PriceTo)
		if err != nil {
			return filter, echo, errors.New("invalid price_to")
		}
		filter.PriceTo = &price
	}

	return filter, echo, nil
}

// formatValidationError форматирует первую ошибку валидации
func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
