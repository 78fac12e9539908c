package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/models"
)

func TestGradeUpsertApplied(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec("INSERT INTO grades").WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := repo.Upsert(context.Background(), &models.Grade{
		StudentID:     "s1",
		ClassID:       "c1",
		ComponentCode: "midterm",
		Score:         7,
		MaxScore:      10,
		TeacherID:     "t1",
	})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeUpsertSkippedWhenFinalized(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	// The DO UPDATE predicate filters out finalized rows, so the statement
	// reports zero affected rows.
	mock.ExpectExec("INSERT INTO grades").WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.Upsert(context.Background(), &models.Grade{
		StudentID:     "s1",
		ClassID:       "c1",
		ComponentCode: "midterm",
		Score:         9,
		MaxScore:      10,
		TeacherID:     "t1",
	})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByStudentClass(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "component_code", "score", "max_score", "teacher_id", "graded_at", "is_finalized"}).
		AddRow("g1", "s1", "c1", "final", 85.0, 100.0, "t1", now, false).
		AddRow("g2", "s1", "c1", "midterm", 7.0, 10.0, "t1", now, false)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, class_id, component_code, score, max_score, teacher_id, graded_at, is_finalized FROM grades WHERE student_id = $1 AND class_id = $2 ORDER BY component_code")).
		WithArgs("s1", "c1").
		WillReturnRows(rows)

	grades, err := repo.ListByStudentClass(context.Background(), "s1", "c1")
	require.NoError(t, err)
	require.Len(t, grades, 2)
	assert.Equal(t, "final", grades[0].ComponentCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetFinalized(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE grades SET is_finalized = $2 WHERE class_id = $1")).
		WithArgs("c1", true).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.SetFinalized(context.Background(), "c1", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}
