package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleancity/waste-collection/internal/model"
	"github.com/cleancity/waste-collection/internal/service"
)

type statsTaskFake struct {
	collections int64
	byDate      map[string]int
	byType      map[string]int
	err         error
}

func (f *statsTaskFake) CountCollections(_ context.Context, _ string) (int64, error) {
	return f.collections, f.err
}
func (f *statsTaskFake) CountByStatus(_ context.Context, _ string) (int64, error) {
	return 2, f.err
}
func (f *statsTaskFake) CollectionCountsByDate(_ context.Context, _ string) (map[string]int, error) {
	return f.byDate, f.err
}
func (f *statsTaskFake) CollectionCountsByType(_ context.Context, _ string) (map[string]int, error) {
	return f.byType, f.err
}

type statsUserFake struct {
	top []model.User
	err error
}

func (f *statsUserFake) CountAll(_ context.Context) (int64, error)             { return 25, f.err }
func (f *statsUserFake) CountByRole(_ context.Context, _ string) (int64, error) { return 3, f.err }
func (f *statsUserFake) TopCitizens(_ context.Context, limit int64) ([]model.User, error) {
	if int64(len(f.top)) > limit {
		return f.top[:limit], f.err
	}
	return f.top, f.err
}

func TestDashboardHandler_Overview(t *testing.T) {
	e := echo.New()
	h := NewDashboardHandler(service.NewStats(
		&statsTaskFake{collections: 9, byDate: map[string]int{}, byType: map[string]int{"plastic": 9}},
		&statsUserFake{},
	))

	c, rec := doJSON(e, http.MethodGet, "/api/admin/stats?range=7d", "")
	require.NoError(t, h.Overview(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats service.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(25), stats.TotalUsers)
	assert.Equal(t, int64(9), stats.TotalCollections)
	assert.Equal(t, int64(2), stats.PendingTasks)
	assert.Equal(t, int64(3), stats.ActiveCollectors)
	assert.Len(t, stats.WeeklyStats, 7)
	require.Len(t, stats.WasteTypeStats, 1)
	assert.Equal(t, "Plastic", stats.WasteTypeStats[0].Name)
}

func TestDashboardHandler_OverviewStoreError(t *testing.T) {
	e := echo.New()
	h := NewDashboardHandler(service.NewStats(
		&statsTaskFake{err: errors.New("boom")},
		&statsUserFake{},
	))

	c, rec := doJSON(e, http.MethodGet, "/api/admin/stats", "")
	require.NoError(t, h.Overview(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDashboardHandler_Leaderboard(t *testing.T) {
	e := echo.New()
	h := NewDashboardHandler(service.NewStats(
		&statsTaskFake{byDate: map[string]int{}, byType: map[string]int{}},
		&statsUserFake{top: []model.User{
			{Name: "Ada", Points: 120},
			{Name: "Grace", Points: 95},
		}},
	))

	c, rec := doJSON(e, http.MethodGet, "/api/leaderboard", "")
	require.NoError(t, h.Leaderboard(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []service.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Ada", entries[0].Name)
	assert.Equal(t, 120, entries[0].Points)
}
