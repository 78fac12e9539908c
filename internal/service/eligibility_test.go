package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/lms-go-api/internal/models"
)

func TestCanTakeFinalNilRule(t *testing.T) {
	assert.True(t, CanTakeFinal(nil, 0, 0, 0))
}

func TestCanTakeFinal(t *testing.T) {
	rule := &models.GradeRule{
		RequireVideoProgress: true,
		MinVideoProgress:     80,
		MinAssignments:       3,
		MinAttendanceRate:    75,
	}

	cases := []struct {
		name        string
		progress    float64
		assignments int
		attendance  float64
		want        bool
	}{
		{"all conditions met", 85, 3, 80, true},
		{"progress below minimum", 75, 3, 80, false},
		{"progress exactly at minimum", 80, 3, 80, true},
		{"too few assignments", 85, 2, 80, false},
		{"attendance below minimum", 85, 3, 74.9, false},
		{"everything short", 10, 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTakeFinal(rule, tc.progress, tc.assignments, tc.attendance))
		})
	}
}

func TestCanTakeFinalVideoProgressNotRequired(t *testing.T) {
	rule := &models.GradeRule{
		RequireVideoProgress: false,
		MinVideoProgress:     80,
	}

	assert.True(t, CanTakeFinal(rule, 10, 0, 0))
}
