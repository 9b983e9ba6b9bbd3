package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/disease-case-tracker/internal/config"
	"github.com/iliyamo/disease-case-tracker/internal/repository"
)

// MapDataHandler serves the public, unauthenticated heat-map projection.
// The projection is built from a SELECT that never reads user_id or
// address, so no PII can cross this boundary whatever the handler does.
type MapDataHandler struct {
	Cfg   config.Config
	Cases *repository.CaseReportRepo
}

func NewMapDataHandler(cfg config.Config, cases *repository.CaseReportRepo) *MapDataHandler {
	return &MapDataHandler{Cfg: cfg, Cases: cases}
}

// MapData handles GET /v1/map-data. Optional filters: disease_type
// (validated against the fixed enum) and days (clamped to [1,365],
// default 90).
func (h *MapDataHandler) MapData(c echo.Context) error {
	days := clampDays(c.QueryParam("days"))

	disease := strings.ToLower(strings.TrimSpace(c.QueryParam("disease_type")))
	if disease != "" && !validDiseases[disease] {
		return fail(c, http.StatusBadRequest, "Invalid disease type")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	points, err := h.Cases.ListMapPoints(ctx, days, disease)
	if err != nil {
		return failStorage(c, http.StatusInternalServerError, "Failed to retrieve map data", h.Cfg.IsDev(), err)
	}

	resp := echo.Map{
		"success": true,
		"data":    points,
		"count":   len(points),
		"days":    days,
	}
	if disease != "" {
		resp["disease_type"] = disease
	}
	return c.JSON(http.StatusOK, resp)
}
