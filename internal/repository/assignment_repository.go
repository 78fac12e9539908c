package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AssignmentRepository reads assignment submission counts consumed by the
// final-exam eligibility check. The submission workflow itself lives
// outside this service.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a repository instance.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// CountSubmitted returns how many assignments the student has submitted
// in the class.
func (r *AssignmentRepository) CountSubmitted(ctx context.Context, studentID, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM assignment_submissions
        WHERE student_id = $1 AND class_id = $2 AND submitted_at IS NOT NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, classID); err != nil {
		return 0, fmt.Errorf("count assignment submissions: %w", err)
	}
	return count, nil
}
