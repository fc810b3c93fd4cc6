package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-cards/internal/forecast"
	"github.com/vzahanych/weather-cards/internal/server/utils"
	"go.uber.org/zap"
)

type LocationHandler struct {
	view *forecast.View
	// fetches outlive the request that triggered them
	ctx    context.Context
	logger *zap.Logger
}

func NewLocationHandler(ctx context.Context, view *forecast.View, logger *zap.Logger) *LocationHandler {
	return &LocationHandler{
		view:   view,
		ctx:    ctx,
		logger: logger,
	}
}

func (h *LocationHandler) GetLocation(c *gin.Context) {
	coords, _ := h.view.Coordinates()
	c.JSON(http.StatusOK, LocationResponse{
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Loading:   h.view.Loading(),
	})
}

// PutLocation remounts the view; a changed pair starts exactly one fetch.
func (h *LocationHandler) PutLocation(c *gin.Context) {
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reqLogger.Warn("Invalid location body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_BODY",
			Details: err.Error(),
		})
		return
	}

	coords := forecast.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	refetch := h.view.SetCoordinates(h.ctx, coords)

	reqLogger.Info("Location updated",
		zap.String("coordinates", coords.String()),
		zap.Bool("refetch", refetch))

	c.JSON(http.StatusAccepted, LocationResponse{
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Loading:   h.view.Loading(),
		Refetch:   refetch,
	})
}
