package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cleancity/waste-collection/internal/model"
)

// statsTaskFake serves canned aggregation results and records the window it
// was asked for.
type statsTaskFake struct {
	collections int64
	pending     int64
	byDate      map[string]int
	byType      map[string]int

	lastSince string
	err       error
}

func (f *statsTaskFake) CountCollections(_ context.Context, sinceDate string) (int64, error) {
	f.lastSince = sinceDate
	return f.collections, f.err
}

func (f *statsTaskFake) CountByStatus(_ context.Context, status string) (int64, error) {
	return f.pending, f.err
}

func (f *statsTaskFake) CollectionCountsByDate(_ context.Context, sinceDate string) (map[string]int, error) {
	return f.byDate, f.err
}

func (f *statsTaskFake) CollectionCountsByType(_ context.Context, sinceDate string) (map[string]int, error) {
	return f.byType, f.err
}

type statsUserFake struct {
	total      int64
	collectors int64
	top        []model.User
	err        error
}

func (f *statsUserFake) CountAll(_ context.Context) (int64, error) { return f.total, f.err }
func (f *statsUserFake) CountByRole(_ context.Context, role string) (int64, error) {
	return f.collectors, f.err
}
func (f *statsUserFake) TopCitizens(_ context.Context, limit int64) ([]model.User, error) {
	if int64(len(f.top)) > limit {
		return f.top[:limit], f.err
	}
	return f.top, f.err
}

func fixedNow() time.Time {
	// a Wednesday, so day labels are predictable
	return time.Date(2025, time.June, 18, 12, 0, 0, 0, time.UTC)
}

func TestStats_Dashboard7d(t *testing.T) {
	tasks := &statsTaskFake{
		collections: 12,
		pending:     4,
		byDate: map[string]int{
			"2025-06-18": 3,
			"2025-06-16": 2,
			"2025-06-12": 1,
		},
		byType: map[string]int{"plastic": 7, "organic": 5},
	}
	users := &statsUserFake{total: 40, collectors: 6}
	svc := NewStats(tasks, users)
	svc.now = fixedNow

	stats, err := svc.Dashboard(context.Background(), Range7d)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if stats.TotalUsers != 40 || stats.TotalCollections != 12 || stats.PendingTasks != 4 || stats.ActiveCollectors != 6 {
		t.Errorf("counters = %+v", stats)
	}
	if tasks.lastSince != "2025-06-11" {
		t.Errorf("7d window since %q, want 2025-06-11", tasks.lastSince)
	}

	if len(stats.WeeklyStats) != 7 {
		t.Fatalf("chart has %d buckets, want 7", len(stats.WeeklyStats))
	}
	lastBucket := stats.WeeklyStats[6]
	if lastBucket.Date != "2025-06-18" {
		t.Errorf("chart must end today, last bucket is %q", lastBucket.Date)
	}
	if lastBucket.Name != "Wed, Jun 18" {
		t.Errorf("bucket label = %q, want %q", lastBucket.Name, "Wed, Jun 18")
	}
	if lastBucket.Waste != 3 {
		t.Errorf("today's bucket = %d, want 3", lastBucket.Waste)
	}
	// buckets are contiguous calendar days
	for i := 1; i < len(stats.WeeklyStats); i++ {
		prev, _ := time.Parse("2006-01-02", stats.WeeklyStats[i-1].Date)
		cur, _ := time.Parse("2006-01-02", stats.WeeklyStats[i].Date)
		if cur.Sub(prev) != 24*time.Hour {
			t.Fatalf("buckets not contiguous at %d: %s -> %s", i, prev, cur)
		}
	}
	// a day with no collections appears with a zero
	if stats.WeeklyStats[5].Waste != 0 {
		t.Errorf("empty day bucket = %d, want 0", stats.WeeklyStats[5].Waste)
	}

	// categories are capitalized for display
	seen := map[string]int{}
	for _, c := range stats.WasteTypeStats {
		seen[c.Name] = c.Value
	}
	if seen["Plastic"] != 7 || seen["Organic"] != 5 {
		t.Errorf("waste type stats = %v", seen)
	}
}

func TestStats_Dashboard30dAndAll(t *testing.T) {
	tasks := &statsTaskFake{byDate: map[string]int{}, byType: map[string]int{}}
	users := &statsUserFake{}
	svc := NewStats(tasks, users)
	svc.now = fixedNow

	stats, err := svc.Dashboard(context.Background(), Range30d)
	if err != nil {
		t.Fatalf("Dashboard(30d) failed: %v", err)
	}
	if len(stats.WeeklyStats) != 30 {
		t.Errorf("30d chart has %d buckets, want 30", len(stats.WeeklyStats))
	}
	if tasks.lastSince != "2025-05-19" {
		t.Errorf("30d window since %q, want 2025-05-19", tasks.lastSince)
	}

	stats, err = svc.Dashboard(context.Background(), RangeAll)
	if err != nil {
		t.Fatalf("Dashboard(all) failed: %v", err)
	}
	if tasks.lastSince != "" {
		t.Errorf("all-time window since %q, want empty", tasks.lastSince)
	}
	// "all" still renders the bounded 7-day chart
	if len(stats.WeeklyStats) != 7 {
		t.Errorf("all-time chart has %d buckets, want 7", len(stats.WeeklyStats))
	}
}

func TestStats_DashboardStoreError(t *testing.T) {
	tasks := &statsTaskFake{err: errors.New("aggregation blew up")}
	users := &statsUserFake{}
	svc := NewStats(tasks, users)
	svc.now = fixedNow

	if _, err := svc.Dashboard(context.Background(), Range7d); err == nil {
		t.Fatal("expected an error when the store fails")
	}
}

func TestStats_Leaderboard(t *testing.T) {
	top := make([]model.User, 0, 12)
	for i := 0; i < 12; i++ {
		top = append(top, model.User{Name: "citizen", Points: 120 - i*10})
	}
	svc := NewStats(&statsTaskFake{}, &statsUserFake{top: top})

	entries, err := svc.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("leaderboard has %d entries, want 10", len(entries))
	}
	if entries[0].Points != 120 {
		t.Errorf("top entry = %+v, want 120 points", entries[0])
	}
}
