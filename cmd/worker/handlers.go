package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	catalogService "storefront-backend/internal/domains/catalog/service"
	orderRepo "storefront-backend/internal/domains/order/repository"
	"storefront-backend/internal/shared"
	"storefront-backend/pkg/container"
	"storefront-backend/pkg/logger"
)

// HandlerRegistry holds every task handler the worker serves
type HandlerRegistry struct {
	stockSync        *StockSyncHandler
	staleDraftReport *StaleDraftReportHandler
}

// initializeHandlers creates the task handlers on top of the shared
// container
func initializeHandlers(c *container.Container, cfg *workerConfig) *HandlerRegistry {
	return &HandlerRegistry{
		stockSync:        &StockSyncHandler{variantService: c.VariantService},
		staleDraftReport: &StaleDraftReportHandler{orderRepo: c.OrderRepo, maxAge: cfg.StaleDraftMaxAge},
	}
}

// RegisterHandlers binds task types to handlers on the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeStockSyncVariant, h.stockSync.ProcessTask)
	mux.HandleFunc(shared.TypeStalePosDraftReport, h.staleDraftReport.ProcessTask)
}

// =====================================================
// STOCK SYNC
// =====================================================
// StockSyncHandler drops the cached variant after its stock counters
// moved, so the next catalog read refetches fresh availability.
type StockSyncHandler struct {
	variantService catalogService.VariantService
}

func (h *StockSyncHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.StockSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid stock sync payload: %w", err)
	}

	variantID, err := uuid.Parse(payload.VariantID)
	if err != nil {
		return fmt.Errorf("invalid variant id %q: %w", payload.VariantID, err)
	}

	if err := h.variantService.InvalidateVariant(ctx, variantID); err != nil {
		return fmt.Errorf("failed to invalidate variant cache: %w", err)
	}

	logger.Info("variant cache invalidated", map[string]interface{}{
		"variant_id": payload.VariantID,
		"source":     payload.Source,
	})
	return nil
}

// =====================================================
// STALE DRAFT REPORT
// =====================================================
// StaleDraftReportHandler surfaces point-of-sale drafts that sat open
// past the cutoff so staff can close them and free the draft limit.
type StaleDraftReportHandler struct {
	orderRepo orderRepo.OrderRepository
	maxAge    time.Duration
}

func (h *StaleDraftReportHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	cutoff := time.Now().Add(-h.maxAge)
	drafts, err := h.orderRepo.ListStalePosDrafts(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to list stale drafts: %w", err)
	}

	if len(drafts) == 0 {
		logger.Debug("no stale point-of-sale drafts")
		return nil
	}

	for _, draft := range drafts {
		logger.Warn("stale point-of-sale draft", map[string]interface{}{
			"order_id":   draft.ID.String(),
			"code":       draft.Code,
			"created_at": draft.CreatedAt.Format(time.RFC3339),
		})
	}
	logger.Info("stale draft report complete", map[string]interface{}{
		"count": len(drafts),
	})
	return nil
}
