package statistics

import (
	"testing"
	"time"

	"github.com/example/recallbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewedAt(ts time.Time) models.Progress {
	return models.Progress{LastReview: &ts}
}

func TestHeatmapShape(t *testing.T) {
	for _, days := range []int{1, 7, 30, 365} {
		hm := Heatmap(nil, days, t0)

		require.Len(t, hm, days)
		assert.Equal(t, "2025-06-15", hm[len(hm)-1].Date)
		for i := 1; i < len(hm); i++ {
			assert.Less(t, hm[i-1].Date, hm[i].Date)
		}
	}
}

func TestHeatmapCounts(t *testing.T) {
	var all []models.Progress
	for i := 0; i < 12; i++ {
		all = append(all, reviewedAt(t0.Add(-time.Duration(i)*time.Minute)))
	}
	all = append(all,
		reviewedAt(t0.AddDate(0, 0, -2)),
		reviewedAt(t0.AddDate(0, 0, -30)), // outside the window
		models.Progress{},                 // never reviewed
	)

	hm := Heatmap(all, 7, t0)

	assert.Equal(t, models.HeatmapDay{Date: "2025-06-15", Count: 12, Level: 3}, hm[6])
	assert.Equal(t, models.HeatmapDay{Date: "2025-06-13", Count: 1, Level: 1}, hm[4])
	assert.Equal(t, models.HeatmapDay{Date: "2025-06-09", Count: 0, Level: 0}, hm[0])
}

func TestHeatmapUsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2025, 6, 15, 1, 0, 0, 0, loc) // 2025-06-14 16:00 UTC

	hm := Heatmap([]models.Progress{reviewedAt(time.Date(2025, 6, 14, 15, 30, 0, 0, time.UTC))}, 2, now)

	assert.Equal(t, "2025-06-15", hm[1].Date)
	assert.Equal(t, 1, hm[1].Count)
}

func TestHeatmapZeroDays(t *testing.T) {
	assert.Empty(t, Heatmap(nil, 0, t0))
}

func TestLevel(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 4: 1, 5: 2, 9: 2, 10: 3, 19: 3, 20: 4, 500: 4}
	for count, want := range cases {
		assert.Equal(t, want, Level(count), "count %d", count)
	}
}
