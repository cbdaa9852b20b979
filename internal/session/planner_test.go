package session

import (
	"testing"

	"github.com/example/recallbot/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestOptimalNewCards(t *testing.T) {
	cases := []struct {
		name     string
		due      int
		maxNew   int
		expected int
	}{
		{"heavy backlog halves", 60, 20, 10},
		{"heavy backlog floor", 51, 6, 5},
		{"medium backlog", 31, 20, 15},
		{"medium backlog floor", 40, 8, 10},
		{"boundary 50 is medium", 50, 20, 15},
		{"boundary 30 is light", 30, 20, 20},
		{"light", 0, 20, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := OptimalNewCards(models.Stats{DueToday: tc.due}, tc.maxNew)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestEstimateMinutes(t *testing.T) {
	assert.Equal(t, 0, EstimateMinutes(0, 0, 10))
	// 10*10*2 + 20*10 = 400s
	assert.Equal(t, 7, EstimateMinutes(10, 20, 10))
	assert.Equal(t, 1, EstimateMinutes(0, 6, 10))
	assert.Equal(t, 2, EstimateMinutes(0, 7, 10))
	assert.Equal(t, 7, EstimateMinutes(10, 20, 0))
	assert.Equal(t, 4, EstimateMinutes(3, 1, 30))
}
