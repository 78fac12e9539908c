package models

import "time"

// LessonProgress tracks one student's watch state for one lesson,
// unique per (student, lesson). Completion is sticky: once a lesson is
// completed further watch events never clear it.
type LessonProgress struct {
	ID             string     `db:"id" json:"id"`
	StudentID      string     `db:"student_id" json:"student_id"`
	LessonID       string     `db:"lesson_id" json:"lesson_id"`
	WatchedSeconds int        `db:"watched_seconds" json:"watched_seconds"`
	IsCompleted    bool       `db:"is_completed" json:"is_completed"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// ChapterProgress is the derived per-chapter rollup, recomputed from the
// full set of child lessons on every completion change.
type ChapterProgress struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	ChapterID   string     `db:"chapter_id" json:"chapter_id"`
	Progress    float64    `db:"progress" json:"progress"`
	IsCompleted bool       `db:"is_completed" json:"is_completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// SubjectProgress is the derived per-subject rollup over all lessons of
// the subject's chapters.
type SubjectProgress struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	SubjectID   string     `db:"subject_id" json:"subject_id"`
	Progress    float64    `db:"progress" json:"progress"`
	IsCompleted bool       `db:"is_completed" json:"is_completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// WatchResult reports the outcome of a watch event.
type WatchResult struct {
	Completed bool `json:"completed"`
	AllowNext bool `json:"allow_next"`
}

// LessonLock pairs a lesson with its derived lock state.
type LessonLock struct {
	LessonID    string `json:"lesson_id"`
	Title       string `json:"title"`
	Position    int    `json:"position"`
	IsCompleted bool   `json:"is_completed"`
	Locked      bool   `json:"locked"`
}

// ChapterOverview summarises one chapter inside a subject progress view.
type ChapterOverview struct {
	ChapterID   string  `json:"chapter_id"`
	Title       string  `json:"title"`
	Position    int     `json:"position"`
	Progress    float64 `json:"progress"`
	IsCompleted bool    `json:"is_completed"`
	Locked      bool    `json:"locked"`
}

// SubjectProgressOverview is the subject rollup with its chapter breakdown.
type SubjectProgressOverview struct {
	SubjectID   string            `json:"subject_id"`
	Progress    float64           `json:"progress"`
	IsCompleted bool              `json:"is_completed"`
	Chapters    []ChapterOverview `json:"chapters"`
}
