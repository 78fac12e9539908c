package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-go-api/internal/models"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

type gradeComponentRepository interface {
	ListActive(ctx context.Context) ([]models.GradeComponent, error)
	List(ctx context.Context) ([]models.GradeComponent, error)
	FindByCode(ctx context.Context, code string) (*models.GradeComponent, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	InUse(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, component *models.GradeComponent) error
	Update(ctx context.Context, component *models.GradeComponent) error
	Delete(ctx context.Context, code string) error
}

// CreateGradeComponentRequest is the payload for registering a component.
type CreateGradeComponentRequest struct {
	Code          string  `json:"code" validate:"required,lowercase,alphanum"`
	Name          string  `json:"name" validate:"required"`
	DefaultWeight float64 `json:"default_weight" validate:"gte=0,lte=100"`
	SortOrder     int     `json:"sort_order" validate:"gte=0"`
}

// UpdateGradeComponentRequest is the payload for editing a component.
type UpdateGradeComponentRequest struct {
	Name          string  `json:"name" validate:"required"`
	DefaultWeight float64 `json:"default_weight" validate:"gte=0,lte=100"`
	SortOrder     int     `json:"sort_order" validate:"gte=0"`
	IsActive      bool    `json:"is_active"`
}

// GradeComponentService manages the registry of scoring categories.
type GradeComponentService struct {
	repo      gradeComponentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeComponentService constructs the service.
func NewGradeComponentService(repo gradeComponentRepository, validate *validator.Validate, logger *zap.Logger) *GradeComponentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeComponentService{repo: repo, validator: validate, logger: logger}
}

// ListActive returns active components in registry order.
func (s *GradeComponentService) ListActive(ctx context.Context) ([]models.GradeComponent, error) {
	components, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade components")
	}
	return components, nil
}

// List returns every registered component including inactive ones.
func (s *GradeComponentService) List(ctx context.Context) ([]models.GradeComponent, error) {
	components, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grade components")
	}
	return components, nil
}

// Create registers a new component; duplicate codes are rejected.
func (s *GradeComponentService) Create(ctx context.Context, req CreateGradeComponentRequest) (*models.GradeComponent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade component payload")
	}
	exists, err := s.repo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check grade component")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "grade component code already exists")
	}
	component := &models.GradeComponent{
		Code:          req.Code,
		Name:          req.Name,
		DefaultWeight: req.DefaultWeight,
		SortOrder:     req.SortOrder,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, component); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade component")
	}
	return component, nil
}

// Update edits a component's mutable fields. Disabling a component keeps
// historical grades intact while hiding it from new rules.
func (s *GradeComponentService) Update(ctx context.Context, code string, req UpdateGradeComponentRequest) (*models.GradeComponent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade component payload")
	}
	component, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade component not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade component")
	}
	component.Name = req.Name
	component.DefaultWeight = req.DefaultWeight
	component.SortOrder = req.SortOrder
	component.IsActive = req.IsActive
	if err := s.repo.Update(ctx, component); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade component")
	}
	return component, nil
}

// Delete removes an unreferenced component. Components referenced by any
// grade row must be disabled instead.
func (s *GradeComponentService) Delete(ctx context.Context, code string) error {
	inUse, err := s.repo.InUse(ctx, code)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check grade component usage")
	}
	if inUse {
		return appErrors.Clone(appErrors.ErrComponentInUse, "")
	}
	if err := s.repo.Delete(ctx, code); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "grade component not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade component")
	}
	return nil
}
