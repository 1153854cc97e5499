package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"catalogadmin/catalog-service/internal/app/catalog/entity"
	"catalogadmin/catalog-service/internal/app/catalog/repository"
	"catalogadmin/catalog-service/internal/app/catalog/storage"
	"catalogadmin/catalog-service/internal/app/catalog/util"
	"catalogadmin/pkg/logger"
	"catalogadmin/pkg/metrics"

	"github.com/google/uuid"
)

// CatalogService обрабатывает бизнес-логику каталога товаров
// Координирует репозитории, кеш вариантов, blob store и Kafka producer
type CatalogService struct {
	productRepo  repository.ProductRepository
	variantRepo  repository.VariantRepository
	variantCache util.VariantCache     // nil - кеш отключен
	publisher    util.MessagePublisher // nil - события не отправляются
	blobs        storage.BlobStore
	variantsTTL  time.Duration
}

// NewCatalogService создает новый сервис каталога с внедрением зависимостей
func NewCatalogService(
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	variantCache util.VariantCache,
	publisher util.MessagePublisher,
	blobs storage.BlobStore,
	variantsTTL time.Duration,
) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		variantCache: variantCache,
		publisher:    publisher,
		blobs:        blobs,
		variantsTTL:  variantsTTL,
	}
}

// === VARIANTS ===

// GetAllVariants получает справочник вариантов с кешированием в Redis
// Ошибки кеша не прерывают запрос
func (s *CatalogService) GetAllVariants(ctx context.Context) ([]entity.Variant, error) {
	if s.variantCache != nil {
		variants, err := s.variantCache.GetVariants(ctx)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("Failed to read variants from cache")
		} else if variants != nil {
			return variants, nil
		}
	}

	variants, err := s.variantRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get variants: %w", err)
	}

	if s.variantCache != nil {
		if err := s.variantCache.SetVariants(ctx, variants, s.variantsTTL); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("Failed to cache variants")
		}
	}

	return variants, nil
}

// GetCreateForm возвращает группы вариантов для формы создания товара
func (s *CatalogService) GetCreateForm(ctx context.Context) (*entity.CreateFormResponse, error) {
	variants, err := s.GetAllVariants(ctx)
	if err != nil {
		return nil, err
	}
	return &entity.CreateFormResponse{Variants: variants}, nil
}

// === LISTING ===

// ListProducts выполняет поиск по фильтру и строит фасеты по всем товарам
// Фасеты пересчитываются на каждый запрос
func (s *CatalogService) ListProducts(ctx context.Context, filter entity.ProductFilter, page int) (*entity.ProductListing, error) {
	if page < 1 {
		page = 1
	}

	result, err := s.productRepo.Search(ctx, filter, page, entity.DefaultPerPage)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	rows, err := s.productRepo.ListProductVariants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load product variants: %w", err)
	}

	variants, err := s.GetAllVariants(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[uint64]string, len(variants))
	for _, v := range variants {
		names[v.ID] = v.Title
	}

	return &entity.ProductListing{
		Page:   *result,
		Facets: BuildFacets(rows, names),
	}, nil
}

// === PRODUCTS ===

// GetProduct получает товар со всеми дочерними записями
func (s *CatalogService) GetProduct(ctx context.Context, id uint64) (*entity.Product, error) {
	product, err := s.productRepo.GetWithChildren(ctx, id)
	if err != nil {
		return nil, mapRepositoryError("failed to get product", err)
	}
	return product, nil
}

// GetEditForm собирает данные для формы редактирования:
// справочник вариантов, товар, декодированные теги, цены и изображения
func (s *CatalogService) GetEditForm(ctx context.Context, id uint64) (*entity.EditProductResponse, error) {
	product, err := s.productRepo.GetWithChildren(ctx, id)
	if err != nil {
		return nil, mapRepositoryError("failed to get product", err)
	}

	variants, err := s.GetAllVariants(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]entity.VariantOption, 0, len(product.Variants))
	for _, pv := range product.Variants {
		tags, err := pv.Tags()
		if err != nil {
			logger.Ctx(ctx).Warn().
				Err(err).
				Uint64("product_variant_id", pv.ID).
				Msg("Skipping product variant with undecodable tags")
			continue
		}
		if tags == nil {
			tags = []string{}
		}
		options = append(options, entity.VariantOption{VariantID: pv.VariantID, Tags: tags})
	}

	resp := &entity.EditProductResponse{
		Variants:            variants,
		Product:             *product,
		Options:             options,
		ProductVariantPrice: product.Prices,
		Images:              product.Images,
	}
	resp.Product.Images, resp.Product.Variants, resp.Product.Prices = nil, nil, nil
	if resp.ProductVariantPrice == nil {
		resp.ProductVariantPrice = []entity.ProductVariantPrice{}
	}
	if resp.Images == nil {
		resp.Images = []entity.ProductImage{}
	}

	return resp, nil
}

// CreateProduct сохраняет товар вместе с изображениями, вариантами и ценами
// Изображения пишутся до транзакции, все строки БД - в одной транзакции
func (s *CatalogService) CreateProduct(ctx context.Context, req *entity.ProductRequest) (*entity.Product, error) {
	if err := s.validateProductRequest(ctx, req); err != nil {
		metrics.RecordProductWrite("create", "invalid")
		return nil, err
	}

	paths := s.saveImages(ctx, req.ProductImage)

	product := &entity.Product{
		Title:       req.Title,
		SKU:         req.SKU,
		Description: req.Description,
	}

	err := s.productRepo.Transaction(ctx, func(repo repository.ProductRepository) error {
		if err := repo.Create(ctx, product); err != nil {
			return err
		}
		return writeChildren(ctx, repo, product, paths, req)
	})
	if err != nil {
		metrics.RecordProductWrite("create", "failed")
		return nil, mapRepositoryError("failed to create product", err)
	}

	metrics.RecordProductWrite("create", "success")
	logger.Ctx(ctx).Info().
		Uint64("product_id", product.ID).
		Int("images", len(product.Images)).
		Int("variants", len(product.Variants)).
		Int("prices", len(product.Prices)).
		Msg("Product created")

	if err := s.publishProductEvent(ctx, entity.EventProductCreated, product); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Uint64("product_id", product.ID).Msg("Failed to publish product created event")
	}

	return product, nil
}

// UpdateProduct обновляет базовые поля и полностью заменяет дочерние записи
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint64, req *entity.ProductRequest) (*entity.Product, error) {
	if err := s.validateProductRequest(ctx, req); err != nil {
		metrics.RecordProductWrite("update", "invalid")
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError("failed to get product", err)
	}

	paths := s.saveImages(ctx, req.ProductImage)

	product.Title = req.Title
	product.SKU = req.SKU
	product.Description = req.Description

	err = s.productRepo.Transaction(ctx, func(repo repository.ProductRepository) error {
		if err := repo.Update(ctx, product); err != nil {
			return err
		}
		if err := repo.DeleteChildren(ctx, product.ID); err != nil {
			return err
		}
		return writeChildren(ctx, repo, product, paths, req)
	})
	if err != nil {
		metrics.RecordProductWrite("update", "failed")
		return nil, mapRepositoryError("failed to update product", err)
	}

	metrics.RecordProductWrite("update", "success")
	logger.Ctx(ctx).Info().Uint64("product_id", product.ID).Msg("Product updated")

	if err := s.publishProductEvent(ctx, entity.EventProductUpdated, product); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Uint64("product_id", product.ID).Msg("Failed to publish product updated event")
	}

	return product, nil
}

// DeleteProduct удаляет товар и все его дочерние записи
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint64) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return mapRepositoryError("failed to get product", err)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		metrics.RecordProductWrite("delete", "failed")
		return mapRepositoryError("failed to delete product", err)
	}

	metrics.RecordProductWrite("delete", "success")
	logger.Ctx(ctx).Info().Uint64("product_id", id).Msg("Product deleted")

	if err := s.publishProductEvent(ctx, entity.EventProductDeleted, product); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Uint64("product_id", id).Msg("Failed to publish product deleted event")
	}

	return nil
}

// validateProductRequest проверяет базовые поля, цены и ссылки на группы вариантов
func (s *CatalogService) validateProductRequest(ctx context.Context, req *entity.ProductRequest) error {
	if req == nil || strings.TrimSpace(req.Title) == "" {
		return newValidationError("title", "title is required")
	}
	if strings.TrimSpace(req.SKU) == "" {
		return newValidationError("sku", "sku is required")
	}

	for i, price := range req.ProductVariantPrices {
		if price.Price.IsNegative() {
			return newValidationError(fmt.Sprintf("product_variant_prices[%d].price", i), "price must not be negative")
		}
		if price.Stock < 0 {
			return newValidationError(fmt.Sprintf("product_variant_prices[%d].stock", i), "stock must not be negative")
		}
	}

	if len(req.ProductVariant) == 0 {
		return nil
	}

	variants, err := s.GetAllVariants(ctx)
	if err != nil {
		return err
	}
	known := make(map[uint64]struct{}, len(variants))
	for _, v := range variants {
		known[v.ID] = struct{}{}
	}
	for _, assignment := range req.ProductVariant {
		if _, ok := known[assignment.Option]; ok {
			continue
		}
		if err := s.checkVariantExists(ctx, assignment.Option); err != nil {
			return err
		}
		known[assignment.Option] = struct{}{}
	}

	return nil
}

// checkVariantExists проверяет группу, которой нет в справочнике из кеша
// Кеш мог устареть: если группа есть в БД, он сбрасывается
func (s *CatalogService) checkVariantExists(ctx context.Context, id uint64) error {
	if _, err := s.variantRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrVariantNotFound) {
			return fmt.Errorf("%w: id %d", ErrVariantNotFound, id)
		}
		return fmt.Errorf("failed to get variant: %w", err)
	}

	if s.variantCache != nil {
		if err := s.variantCache.DeleteVariants(ctx); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("Failed to invalidate variants cache")
		} else {
			logger.Ctx(ctx).Info().Uint64("variant_id", id).Msg("Variants cache was stale, invalidated")
		}
	}

	return nil
}

// writeChildren вставляет изображения, варианты и цены товара через repo транзакции
func writeChildren(ctx context.Context, repo repository.ProductRepository, product *entity.Product, paths []string, req *entity.ProductRequest) error {
	images := make([]entity.ProductImage, 0, len(paths))
	for _, p := range paths {
		images = append(images, entity.ProductImage{ProductID: product.ID, FilePath: p})
	}

	variants := make([]entity.ProductVariant, 0, len(req.ProductVariant))
	for _, assignment := range req.ProductVariant {
		pv, err := entity.NewProductVariant(product.ID, assignment.Option, assignment.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode variant tags: %w", err)
		}
		variants = append(variants, pv)
	}

	prices := make([]entity.ProductVariantPrice, 0, len(req.ProductVariantPrices))
	for _, p := range req.ProductVariantPrices {
		prices = append(prices, entity.ProductVariantPrice{
			ProductID: product.ID,
			Variant:   p.Title,
			Price:     p.Price,
			Stock:     p.Stock,
		})
	}

	if err := repo.CreateImages(ctx, images); err != nil {
		return err
	}
	if err := repo.CreateVariants(ctx, variants); err != nil {
		return err
	}
	if err := repo.CreatePrices(ctx, prices); err != nil {
		return err
	}

	product.Images = images
	product.Variants = variants
	product.Prices = prices
	return nil
}

// mapRepositoryError переводит ошибки репозитория в ошибки сервиса
func mapRepositoryError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrVariantNotFound):
		return ErrVariantNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// publishProductEvent отправляет событие о товаре в Kafka
// Key - id товара, чтобы события одного товара шли в одну партицию
func (s *CatalogService) publishProductEvent(ctx context.Context, eventType string, product *entity.Product) error {
	if s.publisher == nil {
		return nil
	}

	event := entity.ProductEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		ProductID: product.ID,
		Title:     product.Title,
		SKU:       product.SKU,
		Timestamp: time.Now().UTC(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal product event: %w", err)
	}

	if err := s.publisher.PublishMessage(ctx, strconv.FormatUint(product.ID, 10), eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}
