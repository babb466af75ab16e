package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cleancity/waste-collection/internal/model"
)

// Reporting windows accepted by the dashboard.
const (
	Range7d  = "7d"
	Range30d = "30d"
	RangeAll = "all"
)

// StatsTaskStore is the slice of the task repository the aggregation
// needs. sinceDate is a YYYY-MM-DD string; empty means no window.
type StatsTaskStore interface {
	CountCollections(ctx context.Context, sinceDate string) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CollectionCountsByDate(ctx context.Context, sinceDate string) (map[string]int, error)
	CollectionCountsByType(ctx context.Context, sinceDate string) (map[string]int, error)
}

// StatsUserStore is the slice of the user repository the aggregation needs.
type StatsUserStore interface {
	CountAll(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	TopCitizens(ctx context.Context, limit int64) ([]model.User, error)
}

// DayBucket is one point on the collections chart. Date is the ISO day the
// bucket covers; Name is the short label rendered on the axis.
type DayBucket struct {
	Name  string `json:"name"`
	Date  string `json:"date"`
	Waste int    `json:"waste"`
}

// CategoryCount is one slice of the waste-category breakdown.
type CategoryCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DashboardStats is the admin overview payload. TotalUsers is always
// all-time and PendingTasks is always "now"; only collections and the
// category breakdown honor the requested window.
type DashboardStats struct {
	TotalUsers       int64           `json:"totalUsers"`
	TotalCollections int64           `json:"totalCollections"`
	PendingTasks     int64           `json:"pendingTasks"`
	ActiveCollectors int64           `json:"activeCollectors"`
	WeeklyStats      []DayBucket     `json:"weeklyStats"`
	WasteTypeStats   []CategoryCount `json:"wasteTypeStats"`
}

// LeaderboardEntry is one row of the citizen points ranking.
type LeaderboardEntry struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// Stats computes the administrative dashboard aggregates and the citizen
// leaderboard. The now field is injectable so the day buckets are
// deterministic under test.
type Stats struct {
	tasks StatsTaskStore
	users StatsUserStore
	now   func() time.Time
}

func NewStats(tasks StatsTaskStore, users StatsUserStore) *Stats {
	if tasks == nil || users == nil {
		panic("nil store passed to NewStats")
	}
	return &Stats{tasks: tasks, users: users, now: time.Now}
}

// Dashboard aggregates the overview for the requested range ("7d", "30d"
// or "all"; anything else behaves as 7d). Any store failure surfaces as a
// single aggregation error with no partial result.
func (s *Stats) Dashboard(ctx context.Context, rng string) (DashboardStats, error) {
	today := s.now().UTC()

	// stats window: empty sinceDate means all-time
	sinceDate := ""
	switch rng {
	case Range30d:
		sinceDate = today.AddDate(0, 0, -30).Format("2006-01-02")
	case RangeAll:
	default:
		sinceDate = today.AddDate(0, 0, -7).Format("2006-01-02")
	}

	// the chart window is independent of the stats window: "all" still
	// renders a bounded axis so the chart stays readable
	chartDays := 7
	if rng == Range30d {
		chartDays = 30
	}

	totalUsers, err := s.users.CountAll(ctx)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("aggregate dashboard: %w", err)
	}
	totalCollections, err := s.tasks.CountCollections(ctx, sinceDate)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("aggregate dashboard: %w", err)
	}
	pending, err := s.tasks.CountByStatus(ctx, model.StatusPending)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("aggregate dashboard: %w", err)
	}
	collectors, err := s.users.CountByRole(ctx, model.RoleCollector)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("aggregate dashboard: %w", err)
	}

	chartSince := today.AddDate(0, 0, -chartDays).Format("2006-01-02")
	byDate, err := s.tasks.CollectionCountsByDate(ctx, chartSince)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("aggregate dashboard: %w", err)
	}
	buckets := make([]DayBucket, 0, chartDays)
	for i := chartDays - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		iso := d.Format("2006-01-02")
		buckets = append(buckets, DayBucket{
			Name:  d.Format("Mon, Jan 2"),
			Date:  iso,
			Waste: byDate[iso], // zero when no tasks matched that day
		})
	}

	byType, err := s.tasks.CollectionCountsByType(ctx, sinceDate)
	if err != nil {
		return DashboardStats{}, fmt.Errorf("aggregate dashboard: %w", err)
	}
	categories := make([]CategoryCount, 0, len(byType))
	for name, count := range byType {
		categories = append(categories, CategoryCount{Name: capitalize(name), Value: count})
	}

	return DashboardStats{
		TotalUsers:       totalUsers,
		TotalCollections: totalCollections,
		PendingTasks:     pending,
		ActiveCollectors: collectors,
		WeeklyStats:      buckets,
		WasteTypeStats:   categories,
	}, nil
}

// Leaderboard returns the top 10 citizens by point balance.
func (s *Stats) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	top, err := s.users.TopCitizens(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("aggregate leaderboard: %w", err)
	}
	entries := make([]LeaderboardEntry, 0, len(top))
	for _, u := range top {
		entries = append(entries, LeaderboardEntry{Name: u.Name, Points: u.Points})
	}
	return entries, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
