package http

import (
	"errors"
	"net/http"
	"strconv"

	"etf-trend-analyzer/internal/analyzer/dto"
	"etf-trend-analyzer/internal/analyzer/repository"
	"etf-trend-analyzer/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultHistoryLimit = 20

// AnalysisHandler exposes the persisted audit trail over HTTP, read-only.
type AnalysisHandler struct {
	recordRepo repository.AnalysisRecordRepository
	logger     *logger.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(recordRepo repository.AnalysisRecordRepository, logger *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{recordRepo: recordRepo, logger: logger}
}

// RegisterRoutes registers the analysis routes to the Echo group.
func (h *AnalysisHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/:symbol", h.GetRecent)
	g.GET("/:symbol/latest", h.GetLatest)
}

// GetLatest returns the most recent analysis record for a symbol.
func (h *AnalysisHandler) GetLatest(c echo.Context) error {
	symbol := c.Param("symbol")

	record, err := h.recordRepo.GetLatest(c.Request().Context(), symbol)
	if err != nil {
		if errors.Is(err, dto.ErrStorageUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
		}
		h.logger.Error("Failed to load latest analysis record", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if record == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no analysis record for symbol"})
	}

	return c.JSON(http.StatusOK, record)
}

// GetRecent returns up to ?limit= records for a symbol, newest first.
func (h *AnalysisHandler) GetRecent(c echo.Context) error {
	symbol := c.Param("symbol")

	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = parsed
	}

	records, err := h.recordRepo.GetRecent(c.Request().Context(), symbol, limit)
	if err != nil {
		if errors.Is(err, dto.ErrStorageUnavailable) {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
		}
		h.logger.Error("Failed to load analysis records", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, records)
}
