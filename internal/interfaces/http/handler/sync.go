// Package handler implements the gin handlers for the sync API.
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parcelscan/backend/internal/application/ordersync"
	"github.com/parcelscan/backend/internal/domain/orders"
	"github.com/parcelscan/backend/internal/interfaces/http/dto"
	"github.com/parcelscan/backend/internal/interfaces/http/middleware"
)

// SyncService is the application surface the sync endpoints drive.
type SyncService interface {
	RunSync(ctx context.Context, opts ordersync.RunOptions) ordersync.Summary
	GetStatus(ctx context.Context) (*ordersync.Status, error)
	MarkScanned(ctx context.Context, trackingNumber string) error
}

// SyncHandler exposes sync triggering, status polling, and scan marking.
type SyncHandler struct {
	service SyncService
}

// NewSyncHandler creates a sync handler over the given service.
func NewSyncHandler(service SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// RegisterRoutes mounts the sync endpoints on the given group.
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ordersGroup := rg.Group("/orders")
	{
		ordersGroup.POST("/sync", h.TriggerSync)
		ordersGroup.GET("/sync/status", h.GetSyncStatus)
		ordersGroup.POST("/scanned", h.MarkScanned)
	}
}

// TriggerSync runs a sync to completion and reports its outcome. An empty
// body triggers an incremental sync with resume enabled.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	req := dto.TriggerSyncRequest{Resume: true}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
			dto.ErrCodeValidation, "invalid request body", err.Error()))
		return
	}

	summary := h.service.RunSync(c.Request.Context(), ordersync.RunOptions{
		Full:         req.Full,
		LookbackDays: req.LookbackDays,
		AllowResume:  req.Resume,
	})

	middleware.GetLogger(c).Info("manual sync completed",
		zap.Int("synced", summary.Synced),
		zap.Int("failed", summary.Failed),
		zap.Int("pages", summary.Pages),
		zap.String("message", summary.Message))

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.TriggerSyncResponse{
		Synced:  summary.Synced,
		Failed:  summary.Failed,
		Pages:   summary.Pages,
		Message: summary.Message,
	}))
}

// GetSyncStatus returns the persisted sync state for polling consumers.
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	status, err := h.service.GetStatus(c.Request.Context())
	if err != nil {
		if errors.Is(err, orders.ErrSyncStateNotFound) {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(
				dto.ErrCodeNotFound, "sync state not initialized"))
			return
		}
		middleware.GetLogger(c).Error("failed to load sync status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.ErrCodeInternal, "failed to load sync status"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(status))
}

// MarkScanned flags the order matching a scanned tracking barcode.
func (h *SyncHandler) MarkScanned(c *gin.Context) {
	var req dto.MarkScannedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
			dto.ErrCodeValidation, "tracking_number is required", err.Error()))
		return
	}

	if err := h.service.MarkScanned(c.Request.Context(), req.TrackingNumber); err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(
				dto.ErrCodeNotFound, "no order matches the tracking number"))
			return
		}
		middleware.GetLogger(c).Error("failed to mark order scanned",
			zap.String("tracking_number", req.TrackingNumber),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.ErrCodeInternal, "failed to mark order scanned"))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{
		"tracking_number": req.TrackingNumber,
		"scanned":         true,
	}))
}
