package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// GradeRuleRepository manages grade rule persistence.
type GradeRuleRepository struct {
	db *sqlx.DB
}

// NewGradeRuleRepository creates a new repository instance.
func NewGradeRuleRepository(db *sqlx.DB) *GradeRuleRepository {
	return &GradeRuleRepository{db: db}
}

const gradeRuleColumns = `id, subject_id, class_id, pass_grade, min_video_progress, require_video_progress,
        min_assignments, min_attendance_rate, weights, is_active, created_at, updated_at`

// List returns rules for a subject, class-specific rules first.
func (r *GradeRuleRepository) List(ctx context.Context, subjectID string) ([]models.GradeRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_rules WHERE subject_id = $1
        ORDER BY class_id NULLS LAST, created_at DESC`, gradeRuleColumns)
	var rules []models.GradeRule
	if err := r.db.SelectContext(ctx, &rules, query, subjectID); err != nil {
		return nil, fmt.Errorf("list grade rules: %w", err)
	}
	return rules, nil
}

// FindForClass returns the active rule scoped to (subject, class), if any.
func (r *GradeRuleRepository) FindForClass(ctx context.Context, subjectID, classID string) (*models.GradeRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_rules
        WHERE subject_id = $1 AND class_id = $2 AND is_active = TRUE`, gradeRuleColumns)
	var rule models.GradeRule
	if err := r.db.GetContext(ctx, &rule, query, subjectID, classID); err != nil {
		return nil, err
	}
	return &rule, nil
}

// FindSubjectWide returns the active subject-wide (class_id IS NULL) rule.
func (r *GradeRuleRepository) FindSubjectWide(ctx context.Context, subjectID string) (*models.GradeRule, error) {
	query := fmt.Sprintf(`SELECT %s FROM grade_rules
        WHERE subject_id = $1 AND class_id IS NULL AND is_active = TRUE`, gradeRuleColumns)
	var rule models.GradeRule
	if err := r.db.GetContext(ctx, &rule, query, subjectID); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Upsert inserts or replaces the rule for its (subject, class) scope.
// Postgres treats NULLs as distinct in plain unique constraints, so the
// scope key is enforced with partial unique indexes and the upsert targets
// the matching index predicate explicitly.
func (r *GradeRuleRepository) Upsert(ctx context.Context, rule *models.GradeRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	query := `INSERT INTO grade_rules (id, subject_id, class_id, pass_grade, min_video_progress, require_video_progress,
            min_assignments, min_attendance_rate, weights, is_active, created_at, updated_at)
        VALUES (:id, :subject_id, :class_id, :pass_grade, :min_video_progress, :require_video_progress,
            :min_assignments, :min_attendance_rate, :weights, :is_active, :created_at, :updated_at)
        ON CONFLICT (subject_id, class_id) WHERE class_id IS NOT NULL
        DO UPDATE SET pass_grade = EXCLUDED.pass_grade,
            min_video_progress = EXCLUDED.min_video_progress,
            require_video_progress = EXCLUDED.require_video_progress,
            min_assignments = EXCLUDED.min_assignments,
            min_attendance_rate = EXCLUDED.min_attendance_rate,
            weights = EXCLUDED.weights,
            is_active = EXCLUDED.is_active,
            updated_at = EXCLUDED.updated_at`
	if rule.ClassID == nil {
		query = `INSERT INTO grade_rules (id, subject_id, class_id, pass_grade, min_video_progress, require_video_progress,
                min_assignments, min_attendance_rate, weights, is_active, created_at, updated_at)
            VALUES (:id, :subject_id, :class_id, :pass_grade, :min_video_progress, :require_video_progress,
                :min_assignments, :min_attendance_rate, :weights, :is_active, :created_at, :updated_at)
            ON CONFLICT (subject_id) WHERE class_id IS NULL
            DO UPDATE SET pass_grade = EXCLUDED.pass_grade,
                min_video_progress = EXCLUDED.min_video_progress,
                require_video_progress = EXCLUDED.require_video_progress,
                min_assignments = EXCLUDED.min_assignments,
                min_attendance_rate = EXCLUDED.min_attendance_rate,
                weights = EXCLUDED.weights,
                is_active = EXCLUDED.is_active,
                updated_at = EXCLUDED.updated_at`
	}
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("upsert grade rule: %w", err)
	}
	return nil
}
