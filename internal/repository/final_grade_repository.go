package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// FinalGradeRepository manages the derived final grade snapshots.
type FinalGradeRepository struct {
	db *sqlx.DB
}

// NewFinalGradeRepository creates a repository instance.
func NewFinalGradeRepository(db *sqlx.DB) *FinalGradeRepository {
	return &FinalGradeRepository{db: db}
}

const finalGradeColumns = `id, student_id, class_id, attendance_score, assignment_score, midterm_score, final_score,
        total_score, letter_grade, video_progress, can_take_final, status, is_finalized, calculated_at`

// Upsert writes the recomputed snapshot for its (student, class) key.
func (r *FinalGradeRepository) Upsert(ctx context.Context, final *models.FinalGrade) error {
	if final.ID == "" {
		final.ID = uuid.NewString()
	}
	final.CalculatedAt = time.Now().UTC()
	const query = `INSERT INTO final_grades (id, student_id, class_id, attendance_score, assignment_score, midterm_score, final_score,
            total_score, letter_grade, video_progress, can_take_final, status, is_finalized, calculated_at)
        VALUES (:id, :student_id, :class_id, :attendance_score, :assignment_score, :midterm_score, :final_score,
            :total_score, :letter_grade, :video_progress, :can_take_final, :status, :is_finalized, :calculated_at)
        ON CONFLICT (student_id, class_id)
        DO UPDATE SET attendance_score = EXCLUDED.attendance_score,
            assignment_score = EXCLUDED.assignment_score,
            midterm_score = EXCLUDED.midterm_score,
            final_score = EXCLUDED.final_score,
            total_score = EXCLUDED.total_score,
            letter_grade = EXCLUDED.letter_grade,
            video_progress = EXCLUDED.video_progress,
            can_take_final = EXCLUDED.can_take_final,
            status = EXCLUDED.status,
            calculated_at = EXCLUDED.calculated_at`
	if _, err := r.db.NamedExecContext(ctx, query, final); err != nil {
		return fmt.Errorf("upsert final grade: %w", err)
	}
	return nil
}

// FindByStudentClass returns the snapshot for one student in one class.
func (r *FinalGradeRepository) FindByStudentClass(ctx context.Context, studentID, classID string) (*models.FinalGrade, error) {
	query := fmt.Sprintf(`SELECT %s FROM final_grades WHERE student_id = $1 AND class_id = $2`, finalGradeColumns)
	var final models.FinalGrade
	if err := r.db.GetContext(ctx, &final, query, studentID, classID); err != nil {
		return nil, err
	}
	return &final, nil
}

// ListByClass returns all snapshots for a class keyed by student.
func (r *FinalGradeRepository) ListByClass(ctx context.Context, classID string) (map[string]models.FinalGrade, error) {
	query := fmt.Sprintf(`SELECT %s FROM final_grades WHERE class_id = $1`, finalGradeColumns)
	var finals []models.FinalGrade
	if err := r.db.SelectContext(ctx, &finals, query, classID); err != nil {
		return nil, fmt.Errorf("list final grades: %w", err)
	}
	byStudent := make(map[string]models.FinalGrade, len(finals))
	for _, final := range finals {
		byStudent[final.StudentID] = final
	}
	return byStudent, nil
}

// SetFinalized flips the finalized flag for every snapshot in a class.
func (r *FinalGradeRepository) SetFinalized(ctx context.Context, classID string, finalized bool) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE final_grades SET is_finalized = $2 WHERE class_id = $1", classID, finalized); err != nil {
		return fmt.Errorf("finalize final grades: %w", err)
	}
	return nil
}
