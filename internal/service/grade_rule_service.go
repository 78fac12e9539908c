package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-go-api/internal/models"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

// weightSumTolerance is the acceptance window around a 100% weight total.
const weightSumTolerance = 0.01

type gradeRuleRepository interface {
	List(ctx context.Context, subjectID string) ([]models.GradeRule, error)
	FindForClass(ctx context.Context, subjectID, classID string) (*models.GradeRule, error)
	FindSubjectWide(ctx context.Context, subjectID string) (*models.GradeRule, error)
	Upsert(ctx context.Context, rule *models.GradeRule) error
}

type componentRegistry interface {
	ListActive(ctx context.Context) ([]models.GradeComponent, error)
}

// UpsertGradeRuleRequest is the payload for writing a rule. ClassID left
// empty writes the subject-wide default.
type UpsertGradeRuleRequest struct {
	SubjectID            string           `json:"subject_id" validate:"required"`
	ClassID              *string          `json:"class_id,omitempty"`
	PassGrade            float64          `json:"pass_grade" validate:"gte=0,lte=10"`
	MinVideoProgress     float64          `json:"min_video_progress" validate:"gte=0,lte=100"`
	RequireVideoProgress bool             `json:"require_video_progress"`
	MinAssignments       int              `json:"min_assignments" validate:"gte=0"`
	MinAttendanceRate    float64          `json:"min_attendance_rate" validate:"gte=0,lte=100"`
	Weights              models.WeightMap `json:"weights" validate:"required"`
	IsActive             bool             `json:"is_active"`
}

// GradeRuleService resolves and maintains grading rules.
type GradeRuleService struct {
	rules      gradeRuleRepository
	components componentRegistry
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewGradeRuleService constructs the service.
func NewGradeRuleService(rules gradeRuleRepository, components componentRegistry, validate *validator.Validate, logger *zap.Logger) *GradeRuleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeRuleService{rules: rules, components: components, validator: validate, logger: logger}
}

// Resolve returns the rule governing (subject, class): the active
// class-specific rule when one exists, else the active subject-wide rule,
// else nil. Absence of a rule is a valid state, not an error; callers skip
// eligibility gating when no rule applies. Scopes never blend.
func (s *GradeRuleService) Resolve(ctx context.Context, subjectID, classID string) (*models.GradeRule, error) {
	if classID != "" {
		rule, err := s.rules.FindForClass(ctx, subjectID, classID)
		if err == nil {
			return rule, nil
		}
		if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve class grade rule")
		}
	}
	rule, err := s.rules.FindSubjectWide(ctx, subjectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subject grade rule")
	}
	return rule, nil
}

// List returns all rules for a subject, class-specific first.
func (s *GradeRuleService) List(ctx context.Context, subjectID string) ([]models.GradeRule, error) {
	if subjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject_id required")
	}
	rules, err := s.rules.List(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade rules")
	}
	return rules, nil
}

// Upsert validates the payload against the component registry and writes
// the rule for its scope.
func (s *GradeRuleService) Upsert(ctx context.Context, req UpsertGradeRuleRequest) (*models.GradeRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade rule payload")
	}
	if req.ClassID != nil && *req.ClassID == "" {
		req.ClassID = nil
	}
	active, err := s.components.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade components")
	}
	required := make([]string, 0, len(active))
	for _, component := range active {
		required = append(required, component.Code)
	}
	if err := ValidateWeights(req.Weights, required); err != nil {
		return nil, err
	}

	rule := &models.GradeRule{
		SubjectID:            req.SubjectID,
		ClassID:              req.ClassID,
		PassGrade:            req.PassGrade,
		MinVideoProgress:     req.MinVideoProgress,
		RequireVideoProgress: req.RequireVideoProgress,
		MinAssignments:       req.MinAssignments,
		MinAttendanceRate:    req.MinAttendanceRate,
		Weights:              req.Weights,
		IsActive:             req.IsActive,
	}
	if err := s.rules.Upsert(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert grade rule")
	}
	return rule, nil
}

// ValidateWeights checks a weight map against the required component
// codes: every required component must carry a weight, every weight must
// lie in [0,100], and the total must hit 100 within the tolerance window.
// Weight totals are validated at write time, never derived at read time.
func ValidateWeights(weights models.WeightMap, requiredComponents []string) error {
	for _, code := range requiredComponents {
		if _, ok := weights[code]; !ok {
			return appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("missing weight for component %s", code))
		}
	}
	total := 0.0
	for code, weight := range weights {
		if weight < 0 || weight > 100 {
			return appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("weight for component %s outside [0,100]", code))
		}
		total += weight
	}
	if math.Abs(total-100) > weightSumTolerance {
		return appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("weights sum to %.2f, expected 100", total))
	}
	return nil
}
