package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AttendanceRepository reads attendance rates consumed by the eligibility
// check. Attendance recording lives outside this service.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a repository instance.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Rate returns the student's attendance rate for a class as a 0-100
// percentage. A student with no attendance records has a rate of 0.
func (r *AttendanceRepository) Rate(ctx context.Context, studentID, classID string) (float64, error) {
	const query = `SELECT COALESCE(
            100.0 * COUNT(*) FILTER (WHERE status = 'present') / NULLIF(COUNT(*), 0),
        0) FROM attendance_records WHERE student_id = $1 AND class_id = $2`
	var rate float64
	if err := r.db.GetContext(ctx, &rate, query, studentID, classID); err != nil {
		return 0, fmt.Errorf("compute attendance rate: %w", err)
	}
	return rate, nil
}
