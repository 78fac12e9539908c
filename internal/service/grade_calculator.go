package service

import (
	"math"

	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/pkg/config"
)

// ComputeTotal aggregates weighted component scores into a 0-10 total.
// Only components present in both scores and weights contribute; a missing
// score contributes nothing rather than zero, so partially graded students
// are not dragged down mid-term. The second return is false when no
// component produced a contribution, which callers must treat as "not yet
// graded" rather than a zero total.
func ComputeTotal(scores map[string]models.ComponentScore, weights models.WeightMap) (float64, bool) {
	total := 0.0
	counted := false
	for code, weight := range weights {
		score, ok := scores[code]
		if !ok || score.MaxScore <= 0 {
			continue
		}
		total += (score.Score / score.MaxScore) * 100 * (weight / 100)
		counted = true
	}
	if !counted {
		return 0, false
	}
	return roundTo(total/10, 2), true
}

// LetterFor maps a 0-10 total onto the configured letter bands. Bands are
// ordered by descending minimum; the first band whose minimum the total
// meets wins.
func LetterFor(bands []config.LetterBand, total float64) string {
	for _, band := range bands {
		if total >= band.Min {
			return band.Letter
		}
	}
	if len(bands) == 0 {
		return ""
	}
	return bands[len(bands)-1].Letter
}

// DetermineStatus derives the final grade status. A recorded total at or
// above the pass grade passes, below fails. Without a recorded total the
// student is incomplete when eligibility blocked the final exam and
// in-progress otherwise.
func DetermineStatus(total float64, recorded bool, passGrade float64, canTakeFinal bool) models.FinalGradeStatus {
	if recorded {
		if total >= passGrade {
			return models.StatusPassed
		}
		return models.StatusFailed
	}
	if !canTakeFinal {
		return models.StatusIncomplete
	}
	return models.StatusInProgress
}

func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
