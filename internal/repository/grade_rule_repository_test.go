package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/models"
)

func TestFindForClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRuleRepository(db)

	now := time.Now()
	classID := "c1"
	rows := sqlmock.NewRows([]string{"id", "subject_id", "class_id", "pass_grade", "min_video_progress", "require_video_progress",
		"min_assignments", "min_attendance_rate", "weights", "is_active", "created_at", "updated_at"}).
		AddRow("r1", "subj1", classID, 5.5, 80.0, true, 3, 75.0, []byte(`{"final":50,"midterm":20,"assignment":20,"attendance":10}`), true, now, now)
	mock.ExpectQuery("FROM grade_rules").
		WithArgs("subj1", "c1").
		WillReturnRows(rows)

	rule, err := repo.FindForClass(context.Background(), "subj1", "c1")
	require.NoError(t, err)
	require.NotNil(t, rule.ClassID)
	assert.Equal(t, "c1", *rule.ClassID)
	assert.InDelta(t, 50.0, rule.Weights["final"], 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSubjectWideTargetsNullScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRuleRepository(db)

	mock.ExpectExec(`ON CONFLICT \(subject_id\) WHERE class_id IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rule := &models.GradeRule{
		SubjectID: "subj1",
		PassGrade: 5.5,
		Weights:   models.WeightMap{"final": 100},
		IsActive:  true,
	}
	require.NoError(t, repo.Upsert(context.Background(), rule))
	assert.NotEmpty(t, rule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertClassRuleTargetsClassScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRuleRepository(db)

	mock.ExpectExec(`ON CONFLICT \(subject_id, class_id\) WHERE class_id IS NOT NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	classID := "c1"
	rule := &models.GradeRule{
		SubjectID: "subj1",
		ClassID:   &classID,
		PassGrade: 5.5,
		Weights:   models.WeightMap{"final": 100},
		IsActive:  true,
	}
	require.NoError(t, repo.Upsert(context.Background(), rule))
	assert.NoError(t, mock.ExpectationsWereMet())
}
