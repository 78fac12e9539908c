package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// FinalGradeStatus describes where a student stands in a class.
type FinalGradeStatus string

const (
	// StatusInProgress applies while grading is still underway.
	StatusInProgress FinalGradeStatus = "in_progress"
	// StatusPassed applies when the recorded total meets the pass grade.
	StatusPassed FinalGradeStatus = "passed"
	// StatusFailed applies when the recorded total is below the pass grade.
	StatusFailed FinalGradeStatus = "failed"
	// StatusIncomplete applies when eligibility preconditions block the
	// final exam score.
	StatusIncomplete FinalGradeStatus = "incomplete"
)

// GradeComponent is a named scoring category (attendance, assignment,
// midterm, final) registered once and referenced by code from grades and
// rule weights.
type GradeComponent struct {
	Code          string    `db:"code" json:"code"`
	Name          string    `db:"name" json:"name"`
	DefaultWeight float64   `db:"default_weight" json:"default_weight"`
	SortOrder     int       `db:"sort_order" json:"sort_order"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Grade is a single recorded score, unique per (student, class, component).
type Grade struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	ComponentCode string    `db:"component_code" json:"component_code"`
	Score         float64   `db:"score" json:"score"`
	MaxScore      float64   `db:"max_score" json:"max_score"`
	TeacherID     string    `db:"teacher_id" json:"teacher_id"`
	GradedAt      time.Time `db:"graded_at" json:"graded_at"`
	IsFinalized   bool      `db:"is_finalized" json:"is_finalized"`
}

// WeightMap maps component codes to weight percentages. Stored as JSONB.
type WeightMap map[string]float64

// Value implements driver.Valuer.
func (w WeightMap) Value() (driver.Value, error) {
	if w == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(w)
}

// Scan implements sql.Scanner.
func (w *WeightMap) Scan(src interface{}) error {
	if src == nil {
		*w = WeightMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported weight map source %T", src)
	}
	return json.Unmarshal(raw, w)
}

// GradeRule configures grading for a subject or a specific class. A rule
// with a nil ClassID is the subject-wide default; a class rule for the
// same subject takes precedence over it.
type GradeRule struct {
	ID                   string    `db:"id" json:"id"`
	SubjectID            string    `db:"subject_id" json:"subject_id"`
	ClassID              *string   `db:"class_id" json:"class_id,omitempty"`
	PassGrade            float64   `db:"pass_grade" json:"pass_grade"`
	MinVideoProgress     float64   `db:"min_video_progress" json:"min_video_progress"`
	RequireVideoProgress bool      `db:"require_video_progress" json:"require_video_progress"`
	MinAssignments       int       `db:"min_assignments" json:"min_assignments"`
	MinAttendanceRate    float64   `db:"min_attendance_rate" json:"min_attendance_rate"`
	Weights              WeightMap `db:"weights" json:"weights"`
	IsActive             bool      `db:"is_active" json:"is_active"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// FinalGrade is the derived per-(student, class) grade snapshot. It is
// recomputed from grades and progress on every underlying write and is
// never a source of truth.
type FinalGrade struct {
	ID              string           `db:"id" json:"id"`
	StudentID       string           `db:"student_id" json:"student_id"`
	ClassID         string           `db:"class_id" json:"class_id"`
	AttendanceScore *float64         `db:"attendance_score" json:"attendance_score,omitempty"`
	AssignmentScore *float64         `db:"assignment_score" json:"assignment_score,omitempty"`
	MidtermScore    *float64         `db:"midterm_score" json:"midterm_score,omitempty"`
	FinalScore      *float64         `db:"final_score" json:"final_score,omitempty"`
	TotalScore      *float64         `db:"total_score" json:"total_score,omitempty"`
	LetterGrade     *string          `db:"letter_grade" json:"letter_grade,omitempty"`
	VideoProgress   float64          `db:"video_progress" json:"video_progress"`
	CanTakeFinal    bool             `db:"can_take_final" json:"can_take_final"`
	Status          FinalGradeStatus `db:"status" json:"status"`
	IsFinalized     bool             `db:"is_finalized" json:"is_finalized"`
	CalculatedAt    time.Time        `db:"calculated_at" json:"calculated_at"`
}

// ComponentScore pairs a raw score with its maximum for aggregation.
type ComponentScore struct {
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
}

// StudentGradeRow is one row of the class grade board.
type StudentGradeRow struct {
	StudentID   string                     `json:"student_id"`
	StudentName string                     `json:"student_name"`
	Scores      map[string]*ComponentScore `json:"scores"`
	FinalGrade  *FinalGrade                `json:"final_grade,omitempty"`
}

// ClassGradeBoard lists per-student component scores for a class.
type ClassGradeBoard struct {
	ClassID    string            `json:"class_id"`
	GradeTypes []GradeComponent  `json:"grade_types"`
	Students   []StudentGradeRow `json:"students"`
}
