package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/pkg/config"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

type gradeRepo interface {
	Upsert(ctx context.Context, grade *models.Grade) (bool, error)
	ListByStudentClass(ctx context.Context, studentID, classID string) ([]models.Grade, error)
	ListByClass(ctx context.Context, classID string) ([]models.Grade, error)
	FindByKey(ctx context.Context, studentID, classID, componentCode string) (*models.Grade, error)
	SetFinalized(ctx context.Context, classID string, finalized bool) error
}

type finalGradeRepo interface {
	Upsert(ctx context.Context, final *models.FinalGrade) error
	FindByStudentClass(ctx context.Context, studentID, classID string) (*models.FinalGrade, error)
	ListByClass(ctx context.Context, classID string) (map[string]models.FinalGrade, error)
	SetFinalized(ctx context.Context, classID string, finalized bool) error
}

type classReader interface {
	FindClass(ctx context.Context, classID string) (*models.Class, error)
	ListClassStudents(ctx context.Context, classID string) ([]models.Student, error)
}

type ruleResolver interface {
	Resolve(ctx context.Context, subjectID, classID string) (*models.GradeRule, error)
}

type componentReader interface {
	FindByCode(ctx context.Context, code string) (*models.GradeComponent, error)
	ListActive(ctx context.Context) ([]models.GradeComponent, error)
}

type subjectProgressReader interface {
	GetSubjectProgress(ctx context.Context, studentID, subjectID string) (*models.SubjectProgress, error)
}

type assignmentCounter interface {
	CountSubmitted(ctx context.Context, studentID, classID string) (int, error)
}

type attendanceReader interface {
	Rate(ctx context.Context, studentID, classID string) (float64, error)
}

// SaveGradeRequest records one component score for a student in a class.
type SaveGradeRequest struct {
	StudentID     string  `json:"student_id" validate:"required"`
	ClassID       string  `json:"class_id" validate:"required"`
	ComponentCode string  `json:"component_code" validate:"required"`
	Score         float64 `json:"score" validate:"gte=0"`
	MaxScore      float64 `json:"max_score" validate:"gt=0"`
	TeacherID     string  `json:"teacher_id" validate:"required"`
}

// GradeService orchestrates grade entry and final grade recalculation.
type GradeService struct {
	grades      gradeRepo
	finals      finalGradeRepo
	classes     classReader
	rules       ruleResolver
	components  componentReader
	progress    subjectProgressReader
	assignments assignmentCounter
	attendance  attendanceReader
	cache       *CacheService
	metrics     *MetricsService
	grading     config.GradingConfig
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(
	grades gradeRepo,
	finals finalGradeRepo,
	classes classReader,
	rules ruleResolver,
	components componentReader,
	progress subjectProgressReader,
	assignments assignmentCounter,
	attendance attendanceReader,
	cache *CacheService,
	metrics *MetricsService,
	grading config.GradingConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:      grades,
		finals:      finals,
		classes:     classes,
		rules:       rules,
		components:  components,
		progress:    progress,
		assignments: assignments,
		attendance:  attendance,
		cache:       cache,
		metrics:     metrics,
		grading:     grading,
		validator:   validate,
		logger:      logger,
	}
}

// SaveGrade upserts one score keyed by (student, class, component) and
// synchronously recomputes the student's final grade so a stale pass/fail
// is never served after a write.
func (s *GradeService) SaveGrade(ctx context.Context, req SaveGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if req.Score > req.MaxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score exceeds max_score")
	}
	component, err := s.components.FindByCode(ctx, req.ComponentCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade component not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade component")
	}
	if !component.IsActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade component %s is inactive", component.Code))
	}
	class, err := s.classes.FindClass(ctx, req.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	grade := &models.Grade{
		StudentID:     req.StudentID,
		ClassID:       req.ClassID,
		ComponentCode: req.ComponentCode,
		Score:         req.Score,
		MaxScore:      req.MaxScore,
		TeacherID:     req.TeacherID,
	}
	written, err := s.grades.Upsert(ctx, grade)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grade")
	}
	if !written {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "grade is finalized")
	}

	if _, err := s.Recalculate(ctx, req.StudentID, req.ClassID, class.SubjectID); err != nil {
		return nil, err
	}

	stored, err := s.grades.FindByKey(ctx, req.StudentID, req.ClassID, req.ComponentCode)
	if err != nil {
		return grade, nil
	}
	return stored, nil
}

// Recalculate recomputes the final grade snapshot for one student in one
// class from grades, progress, assignments and attendance. It is a full
// recomputation of a derived artifact; the snapshot is never trusted as a
// source of truth.
func (s *GradeService) Recalculate(ctx context.Context, studentID, classID, subjectID string) (*models.FinalGrade, error) {
	rule, err := s.rules.Resolve(ctx, subjectID, classID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	grades, err := s.grades.ListByStudentClass(ctx, studentID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("grades_by_student_class", time.Since(start))
	}
	scores := make(map[string]models.ComponentScore, len(grades))
	for _, grade := range grades {
		scores[grade.ComponentCode] = models.ComponentScore{Score: grade.Score, MaxScore: grade.MaxScore}
	}

	subjectProgress, err := s.progress.GetSubjectProgress(ctx, studentID, subjectID)
	if err != nil {
		return nil, err
	}
	assignmentsSubmitted, err := s.assignments.CountSubmitted(ctx, studentID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
	}
	attendanceRate, err := s.attendance.Rate(ctx, studentID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance rate")
	}

	canTakeFinal := CanTakeFinal(rule, subjectProgress.Progress, assignmentsSubmitted, attendanceRate)

	weights := models.WeightMap{}
	passGrade := s.grading.DefaultPassGrade
	if rule != nil {
		weights = rule.Weights
		passGrade = rule.PassGrade
	}
	total, recorded := ComputeTotal(scores, weights)

	final := &models.FinalGrade{
		StudentID:       studentID,
		ClassID:         classID,
		AttendanceScore: scoreOn100(scores, "attendance"),
		AssignmentScore: scoreOn100(scores, "assignment"),
		MidtermScore:    scoreOn100(scores, "midterm"),
		FinalScore:      scoreOn100(scores, "final"),
		VideoProgress:   subjectProgress.Progress,
		CanTakeFinal:    canTakeFinal,
		Status:          DetermineStatus(total, recorded, passGrade, canTakeFinal),
	}
	if recorded {
		final.TotalScore = &total
		letter := LetterFor(s.grading.LetterBands, total)
		final.LetterGrade = &letter
	}
	if err := s.finals.Upsert(ctx, final); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save final grade")
	}
	if s.metrics != nil {
		s.metrics.IncGradeRecalculation()
	}
	s.invalidateClassCache(ctx, classID)
	return final, nil
}

// RecalculateClass recomputes the snapshot for every student on the
// class roster.
func (s *GradeService) RecalculateClass(ctx context.Context, classID string) error {
	class, err := s.classes.FindClass(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	students, err := s.classes.ListClassStudents(ctx, classID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class students")
	}
	for _, student := range students {
		if _, err := s.Recalculate(ctx, student.ID, classID, class.SubjectID); err != nil {
			return err
		}
	}
	return nil
}

// FinalizeClass locks every grade and snapshot in the class against
// further writes.
func (s *GradeService) FinalizeClass(ctx context.Context, classID string) error {
	if err := s.RecalculateClass(ctx, classID); err != nil {
		return err
	}
	if err := s.grades.SetFinalized(ctx, classID, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize grades")
	}
	if err := s.finals.SetFinalized(ctx, classID, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize final grades")
	}
	s.invalidateClassCache(ctx, classID)
	return nil
}

// GetFinalGrade returns the cached snapshot for one student in one class,
// or nil when grading has not produced one yet; a missing snapshot is an
// expected state for a new student, not an error.
func (s *GradeService) GetFinalGrade(ctx context.Context, studentID, classID string) (*models.FinalGrade, error) {
	cacheKey := finalGradeCacheKey(studentID, classID)
	if s.cache.Enabled() {
		var cached models.FinalGrade
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}
	final, err := s.finals.FindByStudentClass(ctx, studentID, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load final grade")
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, final, 0); err != nil {
			s.logger.Warn("failed to cache final grade", zap.Error(err))
		}
	}
	return final, nil
}

// GetStudentGrades builds the class grade board: one row per rostered
// student with per-component scores, nulls for components not yet graded.
func (s *GradeService) GetStudentGrades(ctx context.Context, classID string) (*models.ClassGradeBoard, error) {
	if _, err := s.classes.FindClass(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	students, err := s.classes.ListClassStudents(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class students")
	}
	components, err := s.components.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade components")
	}
	start := time.Now()
	grades, err := s.grades.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class grades")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("grade_board", time.Since(start))
	}
	finals, err := s.finals.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list final grades")
	}

	scoresByStudent := make(map[string]map[string]*models.ComponentScore, len(students))
	for _, grade := range grades {
		byComponent, ok := scoresByStudent[grade.StudentID]
		if !ok {
			byComponent = make(map[string]*models.ComponentScore, len(components))
			scoresByStudent[grade.StudentID] = byComponent
		}
		byComponent[grade.ComponentCode] = &models.ComponentScore{Score: grade.Score, MaxScore: grade.MaxScore}
	}

	board := &models.ClassGradeBoard{ClassID: classID, GradeTypes: components}
	for _, student := range students {
		row := models.StudentGradeRow{
			StudentID:   student.ID,
			StudentName: student.FullName,
			Scores:      make(map[string]*models.ComponentScore, len(components)),
		}
		for _, component := range components {
			row.Scores[component.Code] = nil
			if byComponent, ok := scoresByStudent[student.ID]; ok {
				row.Scores[component.Code] = byComponent[component.Code]
			}
		}
		if final, ok := finals[student.ID]; ok {
			snapshot := final
			row.FinalGrade = &snapshot
		}
		board.Students = append(board.Students, row)
	}
	return board, nil
}

func (s *GradeService) invalidateClassCache(ctx context.Context, classID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("grades:%s:*", classID)); err != nil {
		s.logger.Warn("failed to invalidate grade cache", zap.String("class_id", classID), zap.Error(err))
	}
}

func finalGradeCacheKey(studentID, classID string) string {
	return fmt.Sprintf("grades:%s:final:%s", classID, studentID)
}

// scoreOn100 snapshots a component's normalized 0-100 score for the
// final grade record.
func scoreOn100(scores map[string]models.ComponentScore, code string) *float64 {
	score, ok := scores[code]
	if !ok || score.MaxScore <= 0 {
		return nil
	}
	normalized := roundTo(score.Score/score.MaxScore*100, 2)
	return &normalized
}
