package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// ProgressRepository persists lesson watch state and the derived chapter
// and subject rollups.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository creates a repository instance.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// FindLessonProgress returns one student's progress for one lesson.
func (r *ProgressRepository) FindLessonProgress(ctx context.Context, studentID, lessonID string) (*models.LessonProgress, error) {
	const query = `SELECT id, student_id, lesson_id, watched_seconds, is_completed, completed_at, created_at, updated_at
        FROM lesson_progress WHERE student_id = $1 AND lesson_id = $2`
	var progress models.LessonProgress
	if err := r.db.GetContext(ctx, &progress, query, studentID, lessonID); err != nil {
		return nil, err
	}
	return &progress, nil
}

// UpsertLessonProgress writes the watch state for its (student, lesson)
// key. Completion is sticky at the SQL level so two racing watch ticks
// cannot clear a completed flag.
func (r *ProgressRepository) UpsertLessonProgress(ctx context.Context, progress *models.LessonProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if progress.CreatedAt.IsZero() {
		progress.CreatedAt = now
	}
	progress.UpdatedAt = now
	const query = `INSERT INTO lesson_progress (id, student_id, lesson_id, watched_seconds, is_completed, completed_at, created_at, updated_at)
        VALUES (:id, :student_id, :lesson_id, :watched_seconds, :is_completed, :completed_at, :created_at, :updated_at)
        ON CONFLICT (student_id, lesson_id)
        DO UPDATE SET watched_seconds = GREATEST(lesson_progress.watched_seconds, EXCLUDED.watched_seconds),
            is_completed = lesson_progress.is_completed OR EXCLUDED.is_completed,
            completed_at = COALESCE(lesson_progress.completed_at, EXCLUDED.completed_at),
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert lesson progress: %w", err)
	}
	return nil
}

// CompletionByLessonIDs returns the completion flag per lesson for a
// student; lessons with no progress row are simply absent.
func (r *ProgressRepository) CompletionByLessonIDs(ctx context.Context, studentID string, lessonIDs []string) (map[string]bool, error) {
	if len(lessonIDs) == 0 {
		return map[string]bool{}, nil
	}
	placeholders := make([]string, len(lessonIDs))
	args := make([]interface{}, 0, len(lessonIDs)+1)
	args = append(args, studentID)
	for i, id := range lessonIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	query := fmt.Sprintf(`SELECT lesson_id, is_completed FROM lesson_progress
        WHERE student_id = $1 AND lesson_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch lesson completion: %w", err)
	}
	defer rows.Close()

	completion := make(map[string]bool, len(lessonIDs))
	for rows.Next() {
		var lessonID string
		var completed bool
		if err := rows.Scan(&lessonID, &completed); err != nil {
			return nil, fmt.Errorf("scan lesson completion: %w", err)
		}
		completion[lessonID] = completed
	}
	return completion, rows.Err()
}

// UpsertChapterProgress writes the recomputed chapter rollup.
func (r *ProgressRepository) UpsertChapterProgress(ctx context.Context, progress *models.ChapterProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	progress.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO chapter_progress (id, student_id, chapter_id, progress, is_completed, completed_at, updated_at)
        VALUES (:id, :student_id, :chapter_id, :progress, :is_completed, :completed_at, :updated_at)
        ON CONFLICT (student_id, chapter_id)
        DO UPDATE SET progress = EXCLUDED.progress,
            is_completed = EXCLUDED.is_completed,
            completed_at = EXCLUDED.completed_at,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert chapter progress: %w", err)
	}
	return nil
}

// UpsertSubjectProgress writes the recomputed subject rollup.
func (r *ProgressRepository) UpsertSubjectProgress(ctx context.Context, progress *models.SubjectProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	progress.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO subject_progress (id, student_id, subject_id, progress, is_completed, completed_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :progress, :is_completed, :completed_at, :updated_at)
        ON CONFLICT (student_id, subject_id)
        DO UPDATE SET progress = EXCLUDED.progress,
            is_completed = EXCLUDED.is_completed,
            completed_at = EXCLUDED.completed_at,
            updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert subject progress: %w", err)
	}
	return nil
}

// FindChapterProgress returns the stored chapter rollup, if any.
func (r *ProgressRepository) FindChapterProgress(ctx context.Context, studentID, chapterID string) (*models.ChapterProgress, error) {
	const query = `SELECT id, student_id, chapter_id, progress, is_completed, completed_at, updated_at
        FROM chapter_progress WHERE student_id = $1 AND chapter_id = $2`
	var progress models.ChapterProgress
	if err := r.db.GetContext(ctx, &progress, query, studentID, chapterID); err != nil {
		return nil, err
	}
	return &progress, nil
}

// FindSubjectProgress returns the stored subject rollup, if any.
func (r *ProgressRepository) FindSubjectProgress(ctx context.Context, studentID, subjectID string) (*models.SubjectProgress, error) {
	const query = `SELECT id, student_id, subject_id, progress, is_completed, completed_at, updated_at
        FROM subject_progress WHERE student_id = $1 AND subject_id = $2`
	var progress models.SubjectProgress
	if err := r.db.GetContext(ctx, &progress, query, studentID, subjectID); err != nil {
		return nil, err
	}
	return &progress, nil
}

// ListChapterProgressBySubject returns stored chapter rollups keyed by
// chapter for one student across a subject.
func (r *ProgressRepository) ListChapterProgressBySubject(ctx context.Context, studentID, subjectID string) (map[string]models.ChapterProgress, error) {
	const query = `SELECT cp.id, cp.student_id, cp.chapter_id, cp.progress, cp.is_completed, cp.completed_at, cp.updated_at
        FROM chapter_progress cp
        JOIN chapters c ON c.id = cp.chapter_id
        WHERE cp.student_id = $1 AND c.subject_id = $2`
	var rollups []models.ChapterProgress
	if err := r.db.SelectContext(ctx, &rollups, query, studentID, subjectID); err != nil {
		return nil, fmt.Errorf("list chapter progress: %w", err)
	}
	byChapter := make(map[string]models.ChapterProgress, len(rollups))
	for _, rollup := range rollups {
		byChapter[rollup.ChapterID] = rollup
	}
	return byChapter, nil
}
