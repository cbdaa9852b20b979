package spaced_repetition

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/example/recallbot/pkg/models"
)

// MasteredInterval is the interval in days above which a card counts as mastered.
const MasteredInterval = 30

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Grades below this value are lapses
	PassThreshold Quality
	// Ease lost on a lapse, independent of how bad the lapse was
	LapsePenalty float64
	// Floor for the ease factor
	MinEaseFactor float64
}

var _ Scheduler = (*SM2)(nil)

// NewSM2 creates a new SM2 with default settings
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold: QualityCorrectDifficult,
		LapsePenalty:  0.15,
		MinEaseFactor: MinEaseFactor,
	}
}

// Review applies one grading to progress and returns the updated record.
func (sm *SM2) Review(progress models.Progress, quality Quality, now time.Time) (models.Progress, error) {
	if !quality.IsValid() {
		return progress, &ValidationError{Quality: int(quality)}
	}
	if err := CheckProgress(progress); err != nil {
		return progress, err
	}

	next := progress
	if quality < sm.PassThreshold {
		next.Repetitions = 0
		next.Interval = 1
		next.EaseFactor = math.Max(sm.MinEaseFactor, progress.EaseFactor-sm.LapsePenalty)
		next.IncorrectCount++
		next.Streak = 0
	} else {
		switch progress.Repetitions {
		case 0:
			next.Interval = 1
		case 1:
			next.Interval = 6
		default:
			next.Interval = int(math.Round(float64(progress.Interval) * progress.EaseFactor))
			if next.Interval < 1 {
				next.Interval = 1
			}
		}
		next.Repetitions = progress.Repetitions + 1
		next.EaseFactor = sm.nextEaseFactor(progress.EaseFactor, quality)
		next.CorrectCount++
		next.Streak++
	}

	reviewed := now
	next.LastReview = &reviewed
	next.NextReview = now.AddDate(0, 0, next.Interval)
	next.Quality = int(quality)
	next.ReviewCount++
	return next, nil
}

func (sm *SM2) nextEaseFactor(ef float64, quality Quality) float64 {
	d := float64(QualityPerfect - quality)
	return math.Max(sm.MinEaseFactor, ef+(0.1-d*(0.08+d*0.02)))
}

// IsMastered determines if a card is considered mastered
func IsMastered(p models.Progress) bool {
	return p.Interval > MasteredInterval
}

// CheckProgress rejects records that no scheduler should operate on.
func CheckProgress(p models.Progress) error {
	key := fmt.Sprintf("user %d card %s", p.UserID, p.CardID)
	if p.Interval < 0 {
		return &DataCorruptionError{Key: key, Field: "interval", Value: strconv.Itoa(p.Interval)}
	}
	if p.EaseFactor < 0 || math.IsNaN(p.EaseFactor) {
		return &DataCorruptionError{Key: key, Field: "ease_factor", Value: strconv.FormatFloat(p.EaseFactor, 'f', -1, 64)}
	}
	return nil
}
