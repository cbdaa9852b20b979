package models

// Stats summarises a user's progress over a deck.
type Stats struct {
	TotalCards        int     `json:"total_cards"`
	NewCards          int     `json:"new_cards"`
	LearningCards     int     `json:"learning_cards"`
	MasteredCards     int     `json:"mastered_cards"`
	DueToday          int     `json:"due_today"`
	DueTomorrow       int     `json:"due_tomorrow"`
	DueThisWeek       int     `json:"due_this_week"`
	TotalReviews      int     `json:"total_reviews"`
	RetentionRate     float64 `json:"retention_rate"` // percent, 0-100
	AverageEaseFactor float64 `json:"average_ease_factor"`
}

// HeatmapDay is one calendar day of review activity.
type HeatmapDay struct {
	Date  string `json:"date"` // 2006-01-02
	Count int    `json:"count"`
	Level int    `json:"level"` // 0-4
}
