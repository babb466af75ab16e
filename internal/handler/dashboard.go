package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cleancity/waste-collection/internal/service"
)

// DashboardHandler serves the aggregated admin views.
type DashboardHandler struct {
	Stats *service.Stats
}

func NewDashboardHandler(stats *service.Stats) *DashboardHandler {
	return &DashboardHandler{Stats: stats}
}

// Overview handles GET /api/admin/stats?range=7d|30d|all.
func (h *DashboardHandler) Overview(c echo.Context) error {
	rng := c.QueryParam("range")
	if rng == "" {
		rng = service.Range7d
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	stats, err := h.Stats.Dashboard(ctx, rng)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load dashboard failed"})
	}
	return c.JSON(http.StatusOK, stats)
}

// Leaderboard handles GET /api/leaderboard.
func (h *DashboardHandler) Leaderboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	entries, err := h.Stats.Leaderboard(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load leaderboard failed"})
	}
	return c.JSON(http.StatusOK, entries)
}
