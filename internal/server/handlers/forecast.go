package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-cards/internal/forecast"
	"github.com/vzahanych/weather-cards/internal/server/utils"
	"go.uber.org/zap"
)

type ForecastHandler struct {
	fetcher forecast.Fetcher
	logger  *zap.Logger
}

func NewForecastHandler(fetcher forecast.Fetcher, logger *zap.Logger) *ForecastHandler {
	return &ForecastHandler{
		fetcher: fetcher,
		logger:  logger,
	}
}

// GetForecast returns the view model for ad-hoc coordinates as JSON.
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req ForecastRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("Invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}

	if verrs := utils.ValidateStruct(req); verrs != nil {
		reqLogger.Warn("Coordinates out of range", zap.Any("validation", verrs))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:      "Invalid request parameters",
			Code:       "INVALID_PARAMS",
			Validation: verrs,
		})
		return
	}

	coords := forecast.Coordinates{Latitude: *req.Lat, Longitude: *req.Lon}
	reqLogger.Info("Processing forecast request", zap.String("coordinates", coords.String()))

	data, err := h.fetcher.Fetch(ctx, coords)
	if err != nil {
		reqLogger.Error("Failed to get forecast", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "Failed to fetch weather data",
			Code:    "FORECAST_UNAVAILABLE",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, NewForecastResponse(data))
}
