package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storefront-backend/internal/domains/catalog/model"
	"storefront-backend/internal/domains/catalog/repository"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/logger"
)

const variantCacheTTL = 5 * time.Minute

// VariantService provides read-through cached access to product variants
type VariantService interface {
	// GetVariant returns a variant with sales loaded, served from cache
	// when possible. Stock counters in the cached copy are informational;
	// stock decisions are always made against the database.
	GetVariant(ctx context.Context, variantID uuid.UUID) (*model.ProductVariant, error)

	// InvalidateVariant drops the cached copy after a stock mutation
	InvalidateVariant(ctx context.Context, variantID uuid.UUID) error
}

type variantService struct {
	repo  repository.VariantRepository
	cache cache.Cache
}

// NewVariantService creates a new variant service
func NewVariantService(repo repository.VariantRepository, cache cache.Cache) VariantService {
	return &variantService{
		repo:  repo,
		cache: cache,
	}
}

func variantCacheKey(variantID uuid.UUID) string {
	return fmt.Sprintf("catalog:variant:%s", variantID)
}

// GetVariant implements VariantService.GetVariant
func (s *variantService) GetVariant(ctx context.Context, variantID uuid.UUID) (*model.ProductVariant, error) {
	key := variantCacheKey(variantID)

	var cached model.ProductVariant
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		// Cache trouble must not break reads, fall through to the database
		logger.Warn("variant cache read failed", map[string]interface{}{
			"variant_id": variantID.String(),
			"error":      err.Error(),
		})
	}
	if found {
		return &cached, nil
	}

	variant, err := s.repo.GetByID(ctx, variantID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, variant, variantCacheTTL); err != nil {
		logger.Warn("variant cache write failed", map[string]interface{}{
			"variant_id": variantID.String(),
			"error":      err.Error(),
		})
	}

	return variant, nil
}

// InvalidateVariant implements VariantService.InvalidateVariant
func (s *variantService) InvalidateVariant(ctx context.Context, variantID uuid.UUID) error {
	return s.cache.Delete(ctx, variantCacheKey(variantID))
}
