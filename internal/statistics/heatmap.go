package statistics

import (
	"time"

	"github.com/example/recallbot/pkg/models"
)

// DateLayout is the format of HeatmapDay.Date.
const DateLayout = "2006-01-02"

// Heatmap returns one entry per calendar day for the last days days, oldest
// first and ending with today in now's location. Days without reviews are
// included with a zero count.
func Heatmap(all []models.Progress, days int, now time.Time) []models.HeatmapDay {
	if days <= 0 {
		return []models.HeatmapDay{}
	}

	loc := now.Location()
	counts := make(map[string]int)
	for _, p := range all {
		if p.LastReview == nil {
			continue
		}
		counts[p.LastReview.In(loc).Format(DateLayout)]++
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	out := make([]models.HeatmapDay, days)
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i-days+1).Format(DateLayout)
		c := counts[date]
		out[i] = models.HeatmapDay{Date: date, Count: c, Level: Level(c)}
	}
	return out
}

// Level buckets a daily review count for display.
func Level(count int) int {
	switch {
	case count <= 0:
		return 0
	case count < 5:
		return 1
	case count < 10:
		return 2
	case count < 20:
		return 3
	default:
		return 4
	}
}
