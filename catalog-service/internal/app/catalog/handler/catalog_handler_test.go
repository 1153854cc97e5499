package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
	"catalogadmin/catalog-service/internal/app/catalog/repository"
	"catalogadmin/catalog-service/internal/app/catalog/repository/mocks"
	"catalogadmin/catalog-service/internal/app/catalog/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Хелперы для создания тестового окружения

type handlerMocks struct {
	products  *mocks.MockProductRepository
	variants  *mocks.MockVariantRepository
	cache     *mocks.MockVariantCache
	publisher *mocks.MockMessagePublisher
	blobs     *mocks.MockBlobStore
}

func setupTestHandler() (*CatalogHandler, *handlerMocks) {
	m := &handlerMocks{
		products:  new(mocks.MockProductRepository),
		variants:  new(mocks.MockVariantRepository),
		cache:     new(mocks.MockVariantCache),
		publisher: new(mocks.MockMessagePublisher),
		blobs:     new(mocks.MockBlobStore),
	}

	catalogService := service.NewCatalogService(m.products, m.variants, m.cache, m.publisher, m.blobs, time.Hour)
	return NewCatalogHandler(catalogService), m
}

func newJSONContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewBuffer(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func testVariants() []entity.Variant {
	return []entity.Variant{{ID: 1, Title: "Color"}, {ID: 2, Title: "Size"}}
}

// ==================== List Handler Tests ====================

func TestCatalogHandler_ListProducts_ParsesFilter(t *testing.T) {
	handler, m := setupTestHandler()

	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	from := decimal.RequireFromString("10")
	to := decimal.RequireFromString("20.5")
	expected := entity.ProductFilter{
		Title:     "Shirt",
		Date:      &date,
		Variant:   "Red",
		PriceFrom: &from,
		PriceTo:   &to,
	}
	page := entity.NewProductPage([]entity.Product{{ID: 21, Title: "Red Shirt"}}, 21, 3, entity.DefaultPerPage)
	red, _ := entity.NewProductVariant(21, 1, []string{"Red"})

	m.products.On("Search", mock.Anything, mock.MatchedBy(func(f entity.ProductFilter) bool {
		return f.Title == expected.Title && f.Variant == expected.Variant &&
			f.Date != nil && f.Date.Equal(date) &&
			f.PriceFrom != nil && f.PriceFrom.Equal(from) &&
			f.PriceTo != nil && f.PriceTo.Equal(to)
	}), 3, entity.DefaultPerPage).Return(&page, nil)
	m.products.On("ListProductVariants", mock.Anything).Return([]entity.ProductVariant{red}, nil)
	m.cache.On("GetVariants", mock.Anything).Return(testVariants(), nil)

	c, w := newJSONContext(http.MethodGet, "/products?title=Shirt&date=2024-05-01&variant=Red&price_from=10&price_to=20.5&page=3", nil)

	handler.ListProducts(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response entity.ProductListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Products, 1)
	assert.Equal(t, int64(21), response.Pagination.Total)
	assert.Equal(t, 3, response.Pagination.Page)
	assert.Equal(t, 3, response.Pagination.LastPage)
	assert.Equal(t, 21, response.Pagination.From)
	assert.Equal(t, 21, response.Pagination.To)
	assert.Equal(t, []entity.Facet{{Group: "Color", Values: []string{"Red"}}}, response.Facets)
	assert.Equal(t, "2024-05-01", response.Filter.Date)
	assert.Equal(t, "Shirt", response.Filter.Title)
}

func TestCatalogHandler_ListProducts_InvalidPageFallsBackToFirst(t *testing.T) {
	handler, m := setupTestHandler()

	page := entity.NewProductPage(nil, 0, 1, entity.DefaultPerPage)
	m.products.On("Search", mock.Anything, entity.ProductFilter{}, 1, entity.DefaultPerPage).Return(&page, nil)
	m.products.On("ListProductVariants", mock.Anything).Return([]entity.ProductVariant{}, nil)
	m.cache.On("GetVariants", mock.Anything).Return(testVariants(), nil)

	c, w := newJSONContext(http.MethodGet, "/products?page=abc", nil)

	handler.ListProducts(c)

	assert.Equal(t, http.StatusOK, w.Code)
	m.products.AssertExpectations(t)
}

func TestCatalogHandler_ListProducts_BadQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"bad date", "/products?date=01.05.2024"},
		{"bad price_from", "/products?price_from=ten"},
		{"bad price_to", "/products?price_to=1,5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := setupTestHandler()
			c, w := newJSONContext(http.MethodGet, tt.query, nil)

			handler.ListProducts(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			m.products.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

// ==================== Create Handler Tests ====================

func TestCatalogHandler_CreateForm(t *testing.T) {
	handler, m := setupTestHandler()
	m.cache.On("GetVariants", mock.Anything).Return(testVariants(), nil)

	c, w := newJSONContext(http.MethodGet, "/products/create", nil)

	handler.CreateForm(c)

	require.Equal(t, http.StatusOK, w.Code)
	var response entity.CreateFormResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Variants, 2)
}

func TestCatalogHandler_CreateProduct_Success(t *testing.T) {
	handler, m := setupTestHandler()

	m.products.On("Transaction", mock.Anything, mock.Anything).Return(nil)
	m.products.On("Create", mock.Anything, mock.AnythingOfType("*entity.Product")).
		Run(func(args mock.Arguments) { args.Get(1).(*entity.Product).ID = 1 }).
		Return(nil)
	m.products.On("CreateImages", mock.Anything, mock.Anything).Return(nil)
	m.products.On("CreateVariants", mock.Anything, mock.Anything).Return(nil)
	m.products.On("CreatePrices", mock.Anything, mock.Anything).Return(nil)
	m.publisher.On("PublishMessage", mock.Anything, "1", mock.Anything).Return(nil)

	body := []byte(`{"title":"Red Shirt","sku":"RS-1","product_variant_prices":[{"title":"Red/","price":10.5,"stock":3}]}`)
	c, w := newJSONContext(http.MethodPost, "/products", body)

	handler.CreateProduct(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Successfully Added The Product", response["message"])
	m.products.AssertExpectations(t)
}

func TestCatalogHandler_CreateProduct_InvalidJSON(t *testing.T) {
	handler, _ := setupTestHandler()
	c, w := newJSONContext(http.MethodPost, "/products", []byte("invalid json"))

	handler.CreateProduct(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogHandler_CreateProduct_MissingTitle(t *testing.T) {
	handler, m := setupTestHandler()
	c, w := newJSONContext(http.MethodPost, "/products", []byte(`{"sku":"RS-1"}`))

	handler.CreateProduct(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var response entity.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Title is required", response.Message)
	m.products.AssertNotCalled(t, "Transaction", mock.Anything, mock.Anything)
}

func TestCatalogHandler_CreateProduct_BlankTitleFromService(t *testing.T) {
	handler, m := setupTestHandler()
	c, w := newJSONContext(http.MethodPost, "/products", []byte(`{"title":"   ","sku":"RS-1"}`))

	handler.CreateProduct(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	m.products.AssertNotCalled(t, "Transaction", mock.Anything, mock.Anything)
}

func TestCatalogHandler_CreateProduct_NegativeStock(t *testing.T) {
	handler, _ := setupTestHandler()
	body := []byte(`{"title":"T","sku":"S","product_variant_prices":[{"title":"x","price":1,"stock":-1}]}`)
	c, w := newJSONContext(http.MethodPost, "/products", body)

	handler.CreateProduct(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCatalogHandler_CreateProduct_UnknownVariant(t *testing.T) {
	handler, m := setupTestHandler()
	m.cache.On("GetVariants", mock.Anything).Return(testVariants(), nil)
	m.variants.On("GetByID", mock.Anything, uint64(42)).Return(nil, repository.ErrVariantNotFound)

	body := []byte(`{"title":"T","sku":"S","product_variant":[{"option":42,"tags":["x"]}]}`)
	c, w := newJSONContext(http.MethodPost, "/products", body)

	handler.CreateProduct(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ==================== Product Handler Tests ====================

func TestCatalogHandler_GetProduct_Success(t *testing.T) {
	handler, m := setupTestHandler()
	m.products.On("GetWithChildren", mock.Anything, uint64(5)).Return(&entity.Product{ID: 5, Title: "T", SKU: "S"}, nil)

	c, w := newJSONContext(http.MethodGet, "/products/5", nil)
	c.Params = gin.Params{{Key: "id", Value: "5"}}

	handler.GetProduct(c)

	require.Equal(t, http.StatusOK, w.Code)
	var response entity.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, uint64(5), response.ID)
}

func TestCatalogHandler_GetProduct_InvalidID(t *testing.T) {
	handler, _ := setupTestHandler()

	c, w := newJSONContext(http.MethodGet, "/products/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.GetProduct(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogHandler_EditForm_NotFound(t *testing.T) {
	handler, m := setupTestHandler()
	m.products.On("GetWithChildren", mock.Anything, uint64(9)).Return(nil, repository.ErrProductNotFound)

	c, w := newJSONContext(http.MethodGet, "/products/9/edit", nil)
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	handler.EditForm(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogHandler_UpdateProduct_NotFound(t *testing.T) {
	handler, m := setupTestHandler()
	m.products.On("GetByID", mock.Anything, uint64(9)).Return(nil, repository.ErrProductNotFound)

	c, w := newJSONContext(http.MethodPut, "/products/9", []byte(`{"title":"T","sku":"S"}`))
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	handler.UpdateProduct(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogHandler_UpdateProduct_Success(t *testing.T) {
	handler, m := setupTestHandler()
	m.products.On("GetByID", mock.Anything, uint64(9)).Return(&entity.Product{ID: 9, Title: "Old", SKU: "O"}, nil)
	m.products.On("Transaction", mock.Anything, mock.Anything).Return(nil)
	m.products.On("Update", mock.Anything, mock.Anything).Return(nil)
	m.products.On("DeleteChildren", mock.Anything, uint64(9)).Return(nil)
	m.products.On("CreateImages", mock.Anything, mock.Anything).Return(nil)
	m.products.On("CreateVariants", mock.Anything, mock.Anything).Return(nil)
	m.products.On("CreatePrices", mock.Anything, mock.Anything).Return(nil)
	m.publisher.On("PublishMessage", mock.Anything, "9", mock.Anything).Return(nil)

	c, w := newJSONContext(http.MethodPatch, "/products/9", []byte(`{"title":"New","sku":"N"}`))
	c.Params = gin.Params{{Key: "id", Value: "9"}}

	handler.UpdateProduct(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, map[string]interface{}{"message": "Product updated successfully"}, response)
	m.products.AssertExpectations(t)
}

func TestCatalogHandler_DeleteProduct(t *testing.T) {
	handler, m := setupTestHandler()
	m.products.On("GetByID", mock.Anything, uint64(3)).Return(&entity.Product{ID: 3}, nil)
	m.products.On("Delete", mock.Anything, uint64(3)).Return(nil)
	m.publisher.On("PublishMessage", mock.Anything, "3", mock.Anything).Return(nil)

	c, w := newJSONContext(http.MethodDelete, "/products/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.DeleteProduct(c)

	assert.Equal(t, http.StatusOK, w.Code)
	m.products.AssertExpectations(t)
}

func TestCatalogHandler_DeleteProduct_NotFound(t *testing.T) {
	handler, m := setupTestHandler()
	m.products.On("GetByID", mock.Anything, uint64(3)).Return(nil, repository.ErrProductNotFound)

	c, w := newJSONContext(http.MethodDelete, "/products/3", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.DeleteProduct(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ==================== Router / Auth Tests ====================

func signToken(t *testing.T, secret, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		UserID:   "u-1",
		RoleName: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestRouter_CreateRouteIsNotAnID(t *testing.T) {
	handler, m := setupTestHandler()
	m.cache.On("GetVariants", mock.Anything).Return(testVariants(), nil)
	router := SetupRoutes(handler, NewAuthMiddleware(""))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/create", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_Health(t *testing.T) {
	handler, _ := setupTestHandler()
	router := SetupRoutes(handler, NewAuthMiddleware("secret"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AuthRequiredWhenSecretSet(t *testing.T) {
	handler, _ := setupTestHandler()
	router := SetupRoutes(handler, NewAuthMiddleware("secret"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/create", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_WriteRequiresRole(t *testing.T) {
	handler, _ := setupTestHandler()
	router := SetupRoutes(handler, NewAuthMiddleware("secret"))

	req := httptest.NewRequest(http.MethodDelete, "/products/1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", "manager"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_ValidTokenPasses(t *testing.T) {
	handler, m := setupTestHandler()
	m.cache.On("GetVariants", mock.Anything).Return(testVariants(), nil)
	router := SetupRoutes(handler, NewAuthMiddleware("secret"))

	req := httptest.NewRequest(http.MethodGet, "/products/create", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", "viewer"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_WrongSecretRejected(t *testing.T) {
	handler, _ := setupTestHandler()
	router := SetupRoutes(handler, NewAuthMiddleware("secret"))

	req := httptest.NewRequest(http.MethodGet, "/products/create", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other", "admin"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
