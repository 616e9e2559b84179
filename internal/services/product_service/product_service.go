package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"atelier/internal/domain/models"
	"atelier/internal/lib/logger/sl"
	"atelier/internal/repository"
	"atelier/internal/storage"
	"atelier/internal/transport/http/dto"

	"github.com/patrickmn/go-cache"
)

type Ingestor interface {
	Ingest(ctx context.Context, files []dto.UploadFile) models.MediaList
}

type ProductService struct {
	log      *slog.Logger
	repo     repository.ProductRepository
	ingestor Ingestor
	cache    *cache.Cache
}

func NewProductService(log *slog.Logger, repo repository.ProductRepository, ingestor Ingestor, cacheTTL time.Duration) *ProductService {
	return &ProductService{
		log:      log,
		repo:     repo,
		ingestor: ingestor,
		cache:    cache.New(cacheTTL, 2*cacheTTL),
	}
}

// CreateProduct validates the scalar fields, ingests the uploaded media
// and persists the assembled record. Validation runs before any transcode
// or store work starts.
func (s *ProductService) CreateProduct(ctx context.Context, input dto.ProductCreateInput) (*models.Product, error) {
	const op = "product_service.CreateProduct"

	log := s.log.With(
		slog.String("op", op),
		slog.String("name", input.Name),
	)

	product := &models.Product{
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		Category:        models.Category(input.Category),
		Sizes:           input.Sizes,
		Colors:          input.Colors,
		Tags:            models.NormalizeTags(input.Tags),
		IsNewCollection: input.IsNewCollection,
	}

	if err := product.Validate(); err != nil {
		log.Warn("product validation failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("creating product", slog.Int("files", len(input.Files)))

	product.Media = s.ingestor.Ingest(ctx, input.Files)

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		log.Error("failed to save product", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Flush()

	log.Info("product created",
		slog.Int64("product_id", created.ID),
		slog.Int("media", len(created.Media)),
	)

	return created, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	const op = "product_service.GetProduct"

	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, q dto.ListQuery) (*repository.ProductPage, error) {
	return s.listPage(ctx, repository.ListFilter{}, q)
}

func (s *ProductService) ListByCategory(ctx context.Context, category string, q dto.ListQuery) (*repository.ProductPage, error) {
	const op = "product_service.ListByCategory"

	c := models.Category(category)
	if !c.Valid() {
		return nil, fmt.Errorf("%s: %q: %w", op, category, storage.ErrInvalidCategory)
	}

	return s.listPage(ctx, repository.ListFilter{Category: c}, q)
}

func (s *ProductService) ListNewCollection(ctx context.Context, q dto.ListQuery) (*repository.ProductPage, error) {
	return s.listPage(ctx, repository.ListFilter{NewCollectionOnly: true}, q)
}

func (s *ProductService) SetSoldOut(ctx context.Context, id int64, soldOut bool) (*models.Product, error) {
	const op = "product_service.SetSoldOut"

	updated, err := s.repo.UpdateSoldOut(ctx, id, soldOut)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Flush()

	return updated, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	const op = "product_service.DeleteProduct"

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.cache.Flush()

	return nil
}

// listPage is the single read path behind "all", "by category" and
// "new collection": one pagination policy, one ordering, one short-TTL
// cache flushed on every mutation.
func (s *ProductService) listPage(ctx context.Context, filter repository.ListFilter, q dto.ListQuery) (*repository.ProductPage, error) {
	const op = "product_service.listPage"

	q.Normalize()

	key := listCacheKey(filter, q)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*repository.ProductPage), nil
	}

	page, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cache.SetDefault(key, page)

	return page, nil
}

func listCacheKey(filter repository.ListFilter, q dto.ListQuery) string {
	return fmt.Sprintf("list:%s:%t:%d:%d", filter.Category, filter.NewCollectionOnly, q.Page, q.PageSize)
}
