package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// CourseRepository reads the subject/chapter/lesson reference data the
// progress and grading flows aggregate over.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a repository instance.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindLesson returns a lesson by ID.
func (r *CourseRepository) FindLesson(ctx context.Context, lessonID string) (*models.Lesson, error) {
	const query = `SELECT id, chapter_id, title, position, duration_seconds, created_at FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, lessonID); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// FindChapter returns a chapter by ID.
func (r *CourseRepository) FindChapter(ctx context.Context, chapterID string) (*models.Chapter, error) {
	const query = `SELECT id, subject_id, title, position, created_at FROM chapters WHERE id = $1`
	var chapter models.Chapter
	if err := r.db.GetContext(ctx, &chapter, query, chapterID); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// ListLessonsByChapter returns a chapter's lessons in unlock order.
func (r *CourseRepository) ListLessonsByChapter(ctx context.Context, chapterID string) ([]models.Lesson, error) {
	const query = `SELECT id, chapter_id, title, position, duration_seconds, created_at
        FROM lessons WHERE chapter_id = $1 ORDER BY position, id`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, chapterID); err != nil {
		return nil, fmt.Errorf("list chapter lessons: %w", err)
	}
	return lessons, nil
}

// ListChaptersBySubject returns a subject's chapters in unlock order.
func (r *CourseRepository) ListChaptersBySubject(ctx context.Context, subjectID string) ([]models.Chapter, error) {
	const query = `SELECT id, subject_id, title, position, created_at
        FROM chapters WHERE subject_id = $1 ORDER BY position, id`
	var chapters []models.Chapter
	if err := r.db.SelectContext(ctx, &chapters, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject chapters: %w", err)
	}
	return chapters, nil
}

// ListLessonsBySubject returns every lesson under a subject's chapters,
// ordered by chapter position then lesson position.
func (r *CourseRepository) ListLessonsBySubject(ctx context.Context, subjectID string) ([]models.Lesson, error) {
	const query = `SELECT l.id, l.chapter_id, l.title, l.position, l.duration_seconds, l.created_at
        FROM lessons l
        JOIN chapters c ON c.id = l.chapter_id
        WHERE c.subject_id = $1
        ORDER BY c.position, l.position, l.id`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject lessons: %w", err)
	}
	return lessons, nil
}

// FindClass returns a class by ID.
func (r *CourseRepository) FindClass(ctx context.Context, classID string) (*models.Class, error) {
	const query = `SELECT id, subject_id, teacher_id, name, is_active, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, classID); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListClassStudents returns the roster for a class ordered by name.
func (r *CourseRepository) ListClassStudents(ctx context.Context, classID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.user_id, s.full_name, s.nim
        FROM students s
        JOIN class_students cs ON cs.student_id = s.id
        WHERE cs.class_id = $1
        ORDER BY s.full_name, s.id`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}
