package bot

import (
	"fmt"
	"strings"

	"github.com/example/recallbot/internal/review"
	"github.com/example/recallbot/pkg/models"
)

var heatmapGlyphs = [...]string{"⬜", "🟩", "🟩", "🟢", "🟢"}

// formatCardFront renders the question side of a card.
func formatCardFront(item review.Item, position, total int) string {
	var b strings.Builder
	label := "review"
	if item.IsNew() {
		label = "new"
	}
	fmt.Fprintf(&b, "Card %d/%d (%s)\n\n%s", position, total, label, item.Card.Front)
	if item.Card.Hint != "" {
		fmt.Fprintf(&b, "\n\n💡 Hint: %s", item.Card.Hint)
	}
	return b.String()
}

// formatCardBack renders a card with its answer revealed.
func formatCardBack(item review.Item, position, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Card %d/%d\n\n%s\n\n✅ %s", position, total, item.Card.Front, item.Card.Back)
	if item.Card.Explanation != "" {
		fmt.Fprintf(&b, "\n\n📖 %s", item.Card.Explanation)
	}
	b.WriteString("\n\nHow well did you remember? 0 = blackout, 5 = perfect")
	return b.String()
}

// formatGraded confirms a grade and announces the next review.
func formatGraded(p models.Progress) string {
	if p.Interval == 1 {
		return fmt.Sprintf("Graded %d. See you tomorrow.", p.Quality)
	}
	return fmt.Sprintf("Graded %d. Next review in %d days.", p.Quality, p.Interval)
}

func formatSessionStart(s *review.Session) string {
	return fmt.Sprintf("📚 %d due and %d new cards, about %d min.", s.DueCount, s.NewCount, s.EstimatedMinutes)
}

func formatSessionDone(graded int) string {
	if graded == 0 {
		return "Nothing to review right now. Come back later!"
	}
	return fmt.Sprintf("🎉 Session complete: %d cards reviewed.", graded)
}

func formatStats(d *review.Dashboard) string {
	s := d.Stats
	var b strings.Builder
	b.WriteString("📊 Your statistics\n\n")
	fmt.Fprintf(&b, "Cards: %d (new %d, learning %d, mastered %d)\n", s.TotalCards, s.NewCards, s.LearningCards, s.MasteredCards)
	fmt.Fprintf(&b, "Due today: %d\n", s.DueToday)
	fmt.Fprintf(&b, "Due tomorrow: %d\n", s.DueTomorrow)
	fmt.Fprintf(&b, "Due this week: %d\n", s.DueThisWeek)
	fmt.Fprintf(&b, "Reviews: %d, retention %.1f%%\n", s.TotalReviews, s.RetentionRate)
	fmt.Fprintf(&b, "Average ease: %.2f\n\n", s.AverageEaseFactor)
	fmt.Fprintf(&b, "Suggested today: %d new cards, about %d min.", d.SuggestedNew, d.EstimatedMinutes)
	return b.String()
}

// formatHeatmap draws the calendar as rows of seven days.
func formatHeatmap(days []models.HeatmapDay) string {
	if len(days) == 0 {
		return "No activity yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🗓 Activity %s – %s\n\n", days[0].Date, days[len(days)-1].Date)
	total := 0
	for i, d := range days {
		level := d.Level
		if level < 0 || level >= len(heatmapGlyphs) {
			level = 0
		}
		b.WriteString(heatmapGlyphs[level])
		if (i+1)%7 == 0 && i != len(days)-1 {
			b.WriteByte('\n')
		}
		total += d.Count
	}
	fmt.Fprintf(&b, "\n\n%d cards reviewed", total)
	return b.String()
}

func reminderText(count int) string {
	noun := "cards"
	if count == 1 {
		noun = "card"
	}
	return fmt.Sprintf("⏰ You have %d %s to review! Send /review to start.", count, noun)
}
