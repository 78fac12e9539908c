package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/pkg/config"
)

func standardWeights() models.WeightMap {
	return models.WeightMap{
		"attendance": 10,
		"assignment": 20,
		"midterm":    20,
		"final":      50,
	}
}

func TestComputeTotalFullyGraded(t *testing.T) {
	scores := map[string]models.ComponentScore{
		"attendance": {Score: 9, MaxScore: 10},
		"assignment": {Score: 8, MaxScore: 10},
		"midterm":    {Score: 7, MaxScore: 10},
		"final":      {Score: 85, MaxScore: 100},
	}

	total, recorded := ComputeTotal(scores, standardWeights())
	require.True(t, recorded)
	assert.InDelta(t, 8.15, total, 0.001)
}

func TestComputeTotalNoScores(t *testing.T) {
	total, recorded := ComputeTotal(nil, standardWeights())
	assert.False(t, recorded)
	assert.Zero(t, total)
}

func TestComputeTotalPartialScoresSkipMissing(t *testing.T) {
	scores := map[string]models.ComponentScore{
		"midterm": {Score: 10, MaxScore: 10},
	}

	total, recorded := ComputeTotal(scores, standardWeights())
	require.True(t, recorded)
	// Only the midterm contributes: 100 * 0.20 / 10.
	assert.InDelta(t, 2.0, total, 0.001)
}

func TestComputeTotalIgnoresUnweightedComponents(t *testing.T) {
	scores := map[string]models.ComponentScore{
		"quiz": {Score: 10, MaxScore: 10},
	}

	total, recorded := ComputeTotal(scores, standardWeights())
	assert.False(t, recorded)
	assert.Zero(t, total)
}

func TestComputeTotalZeroMaxScoreSkipped(t *testing.T) {
	scores := map[string]models.ComponentScore{
		"final": {Score: 5, MaxScore: 0},
	}

	_, recorded := ComputeTotal(scores, standardWeights())
	assert.False(t, recorded)
}

func TestLetterFor(t *testing.T) {
	bands := []config.LetterBand{
		{Min: 8.5, Letter: "A"},
		{Min: 7.0, Letter: "B"},
		{Min: 5.5, Letter: "C"},
		{Min: 4.0, Letter: "D"},
		{Min: 0, Letter: "F"},
	}

	cases := []struct {
		total  float64
		letter string
	}{
		{9.2, "A"},
		{8.5, "A"},
		{8.49, "B"},
		{7.0, "B"},
		{5.5, "C"},
		{4.0, "D"},
		{3.99, "F"},
		{0, "F"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.letter, LetterFor(bands, tc.total), "total %.2f", tc.total)
	}
}

func TestDetermineStatus(t *testing.T) {
	cases := []struct {
		name         string
		total        float64
		recorded     bool
		canTakeFinal bool
		want         models.FinalGradeStatus
	}{
		{"recorded pass", 7.0, true, true, models.StatusPassed},
		{"recorded fail", 4.0, true, true, models.StatusFailed},
		{"recorded pass while blocked", 7.0, true, false, models.StatusPassed},
		{"no total and blocked", 0, false, false, models.StatusIncomplete},
		{"no total and eligible", 0, false, true, models.StatusInProgress},
		{"exactly at pass grade", 5.5, true, true, models.StatusPassed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetermineStatus(tc.total, tc.recorded, 5.5, tc.canTakeFinal)
			assert.Equal(t, tc.want, got)
		})
	}
}
