package spaced_repetition

import (
	"time"

	"github.com/example/recallbot/pkg/models"
)

// Scheduler computes the next state of a progress record after a grading.
// Implementations must be pure: the input is never modified and the result
// depends only on the arguments.
type Scheduler interface {
	Review(progress models.Progress, quality Quality, now time.Time) (models.Progress, error)
}

// Quality is the learner's self-reported recall grade
type Quality int

const (
	// Complete blackout, unable to recall
	QualityBlackout Quality = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect Quality = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar Quality = 2
	// Correct response but required significant effort
	QualityCorrectDifficult Quality = 3
	// Correct response after some hesitation
	QualityCorrectHesitation Quality = 4
	// Perfect response with no hesitation
	QualityPerfect Quality = 5
)

// IsValid reports whether q is within [0, 5].
func (q Quality) IsValid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// ParseQuality converts a stored or user-entered grade, rejecting values
// outside [0, 5].
func ParseQuality(v int) (Quality, error) {
	q := Quality(v)
	if !q.IsValid() {
		return 0, &ValidationError{Quality: v}
	}
	return q, nil
}
