package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/flat-price/internal/domain/valuation"
	apperrors "github.com/yanqian/flat-price/pkg/errors"
)

// ValuationHandler serves the prediction endpoint and its history. svc is nil when no
// inference service is configured.
type ValuationHandler struct {
	svc    valuation.Service
	logger *slog.Logger
}

// NewValuationHandler constructs the handler.
func NewValuationHandler(svc valuation.Service, logger *slog.Logger) *ValuationHandler {
	return &ValuationHandler{svc: svc, logger: logger.With("component", "http.valuation")}
}

// Predict answers with the three model predictions. Errors use the flat
// {"error": "..."} body prediction clients expect.
func (h *ValuationHandler) Predict(c *gin.Context) {
	if h.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Prediction service unavailable"})
		return
	}
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil || raw == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": valuation.MissingFieldsMessage})
		return
	}

	resp, err := h.svc.Predict(c.Request.Context(), raw)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Prediction failed"
		switch {
		case apperrors.IsCode(err, apperrors.CodeMissingFields):
			status = http.StatusBadRequest
			message = valuation.MissingFieldsMessage
		case apperrors.IsCode(err, apperrors.CodeInvalidInput):
			status = http.StatusBadRequest
			message = errMessage(err)
		case apperrors.IsCode(err, apperrors.CodeInferenceFailed):
			status = http.StatusBadGateway
		}
		h.logger.Warn("predict failed", "status", status, "request_id", c.GetString(requestIDKey), "error", err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Recent lists the latest predictions.
func (h *ValuationHandler) Recent(c *gin.Context) {
	if h.svc == nil {
		abortWithError(c, NewHTTPError(http.StatusServiceUnavailable, "valuation_disabled", "valuation service unavailable", nil))
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be an integer", err))
		return
	}
	records, err := h.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, fromAppError(err, "history_failed"))
		return
	}
	if records == nil {
		records = []valuation.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"predictions": records})
}

// Comparables returns past predictions closest to the posted listing.
func (h *ValuationHandler) Comparables(c *gin.Context) {
	if h.svc == nil {
		abortWithError(c, NewHTTPError(http.StatusServiceUnavailable, "valuation_disabled", "valuation service unavailable", nil))
		return
	}
	k, err := queryInt(c, "k")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "k must be an integer", err))
		return
	}
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	matches, err := h.svc.Comparables(c.Request.Context(), raw, k)
	if err != nil {
		abortWithError(c, fromAppError(err, "history_failed"))
		return
	}
	if matches == nil {
		matches = []valuation.Comparable{}
	}
	c.JSON(http.StatusOK, gin.H{"comparables": matches})
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
