package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// GradeRepository handles grade entry persistence.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = "id, student_id, class_id, component_code, score, max_score, teacher_id, graded_at, is_finalized"

// Upsert inserts or updates the grade for its (student, class, component)
// key. Finalized rows are left untouched; callers detect the skip through
// the returned flag.
func (r *GradeRepository) Upsert(ctx context.Context, grade *models.Grade) (bool, error) {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.GradedAt.IsZero() {
		grade.GradedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grades (id, student_id, class_id, component_code, score, max_score, teacher_id, graded_at, is_finalized)
        VALUES (:id, :student_id, :class_id, :component_code, :score, :max_score, :teacher_id, :graded_at, :is_finalized)
        ON CONFLICT (student_id, class_id, component_code)
        DO UPDATE SET score = EXCLUDED.score, max_score = EXCLUDED.max_score,
            teacher_id = EXCLUDED.teacher_id, graded_at = EXCLUDED.graded_at
        WHERE grades.is_finalized = FALSE`
	result, err := r.db.NamedExecContext(ctx, query, grade)
	if err != nil {
		return false, fmt.Errorf("upsert grade: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert grade: %w", err)
	}
	return affected > 0, nil
}

// ListByStudentClass returns a student's grades within a class.
func (r *GradeRepository) ListByStudentClass(ctx context.Context, studentID, classID string) ([]models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades WHERE student_id = $1 AND class_id = $2 ORDER BY component_code`, gradeColumns)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID, classID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// ListByClass returns every grade recorded for a class.
func (r *GradeRepository) ListByClass(ctx context.Context, classID string) ([]models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades WHERE class_id = $1 ORDER BY student_id, component_code`, gradeColumns)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, classID); err != nil {
		return nil, fmt.Errorf("list class grades: %w", err)
	}
	return grades, nil
}

// FindByKey returns the grade stored for the upsert key, if any.
func (r *GradeRepository) FindByKey(ctx context.Context, studentID, classID, componentCode string) (*models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s FROM grades WHERE student_id = $1 AND class_id = $2 AND component_code = $3`, gradeColumns)
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, studentID, classID, componentCode); err != nil {
		return nil, err
	}
	return &grade, nil
}

// SetFinalized flips the finalized flag for every grade in a class.
func (r *GradeRepository) SetFinalized(ctx context.Context, classID string, finalized bool) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE grades SET is_finalized = $2 WHERE class_id = $1", classID, finalized); err != nil {
		return fmt.Errorf("finalize class grades: %w", err)
	}
	return nil
}
