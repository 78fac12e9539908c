package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lms-go-api/internal/models"
)

// GradeComponentRepository manages the grade component registry.
type GradeComponentRepository struct {
	db *sqlx.DB
}

// NewGradeComponentRepository creates a repository instance.
func NewGradeComponentRepository(db *sqlx.DB) *GradeComponentRepository {
	return &GradeComponentRepository{db: db}
}

const componentColumns = "code, name, default_weight, sort_order, is_active, created_at, updated_at"

// ListActive returns active components ordered by sort_order, ties broken
// by code so the ordering is deterministic.
func (r *GradeComponentRepository) ListActive(ctx context.Context) ([]models.GradeComponent, error) {
	query := fmt.Sprintf("SELECT %s FROM grade_components WHERE is_active = TRUE ORDER BY sort_order, code", componentColumns)
	var components []models.GradeComponent
	if err := r.db.SelectContext(ctx, &components, query); err != nil {
		return nil, fmt.Errorf("list active grade components: %w", err)
	}
	return components, nil
}

// List returns all components regardless of active state.
func (r *GradeComponentRepository) List(ctx context.Context) ([]models.GradeComponent, error) {
	query := fmt.Sprintf("SELECT %s FROM grade_components ORDER BY sort_order, code", componentColumns)
	var components []models.GradeComponent
	if err := r.db.SelectContext(ctx, &components, query); err != nil {
		return nil, fmt.Errorf("list grade components: %w", err)
	}
	return components, nil
}

// FindByCode returns a component by its code.
func (r *GradeComponentRepository) FindByCode(ctx context.Context, code string) (*models.GradeComponent, error) {
	query := fmt.Sprintf("SELECT %s FROM grade_components WHERE code = $1", componentColumns)
	var component models.GradeComponent
	if err := r.db.GetContext(ctx, &component, query, code); err != nil {
		return nil, err
	}
	return &component, nil
}

// ExistsByCode checks whether a component code is already registered.
func (r *GradeComponentRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM grade_components WHERE code = $1 LIMIT 1", code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check grade component: %w", err)
	}
	return true, nil
}

// InUse reports whether any grade row references the component code.
func (r *GradeComponentRepository) InUse(ctx context.Context, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM grades WHERE component_code = $1 LIMIT 1", code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check grade component usage: %w", err)
	}
	return true, nil
}

// Create inserts a new grade component.
func (r *GradeComponentRepository) Create(ctx context.Context, component *models.GradeComponent) error {
	now := time.Now().UTC()
	if component.CreatedAt.IsZero() {
		component.CreatedAt = now
	}
	component.UpdatedAt = now
	const query = `INSERT INTO grade_components (code, name, default_weight, sort_order, is_active, created_at, updated_at)
        VALUES (:code, :name, :default_weight, :sort_order, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, component); err != nil {
		return fmt.Errorf("create grade component: %w", err)
	}
	return nil
}

// Update modifies mutable component fields.
func (r *GradeComponentRepository) Update(ctx context.Context, component *models.GradeComponent) error {
	component.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grade_components
        SET name = :name, default_weight = :default_weight, sort_order = :sort_order, is_active = :is_active, updated_at = :updated_at
        WHERE code = :code`
	result, err := r.db.NamedExecContext(ctx, query, component)
	if err != nil {
		return fmt.Errorf("update grade component: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a component. Callers must verify the component is not
// referenced by grades first.
func (r *GradeComponentRepository) Delete(ctx context.Context, code string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM grade_components WHERE code = $1", code)
	if err != nil {
		return fmt.Errorf("delete grade component: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
