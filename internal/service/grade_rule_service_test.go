package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/models"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

type mockRuleRepo struct {
	classRule   *models.GradeRule
	subjectRule *models.GradeRule
	rules       []models.GradeRule
	upserted    *models.GradeRule
	upsertErr   error
}

func (m *mockRuleRepo) List(ctx context.Context, subjectID string) ([]models.GradeRule, error) {
	return m.rules, nil
}

func (m *mockRuleRepo) FindForClass(ctx context.Context, subjectID, classID string) (*models.GradeRule, error) {
	if m.classRule == nil {
		return nil, sql.ErrNoRows
	}
	return m.classRule, nil
}

func (m *mockRuleRepo) FindSubjectWide(ctx context.Context, subjectID string) (*models.GradeRule, error) {
	if m.subjectRule == nil {
		return nil, sql.ErrNoRows
	}
	return m.subjectRule, nil
}

func (m *mockRuleRepo) Upsert(ctx context.Context, rule *models.GradeRule) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = rule
	return nil
}

type mockComponentRegistry struct {
	components []models.GradeComponent
}

func (m *mockComponentRegistry) ListActive(ctx context.Context) ([]models.GradeComponent, error) {
	return m.components, nil
}

func standardRegistry() *mockComponentRegistry {
	return &mockComponentRegistry{components: []models.GradeComponent{
		{Code: "attendance"},
		{Code: "assignment"},
		{Code: "midterm"},
		{Code: "final"},
	}}
}

func TestResolvePrefersClassRule(t *testing.T) {
	classRule := &models.GradeRule{ID: "class-rule"}
	subjectRule := &models.GradeRule{ID: "subject-rule"}
	svc := NewGradeRuleService(&mockRuleRepo{classRule: classRule, subjectRule: subjectRule}, standardRegistry(), nil, nil)

	rule, err := svc.Resolve(context.Background(), "subj-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, "class-rule", rule.ID)
}

func TestResolveFallsBackToSubjectRule(t *testing.T) {
	subjectRule := &models.GradeRule{ID: "subject-rule"}
	svc := NewGradeRuleService(&mockRuleRepo{subjectRule: subjectRule}, standardRegistry(), nil, nil)

	rule, err := svc.Resolve(context.Background(), "subj-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, "subject-rule", rule.ID)
}

func TestResolveNoRuleIsNotAnError(t *testing.T) {
	svc := NewGradeRuleService(&mockRuleRepo{}, standardRegistry(), nil, nil)

	rule, err := svc.Resolve(context.Background(), "subj-1", "class-1")
	require.NoError(t, err)
	assert.Nil(t, rule)
}

func TestUpsertNormalizesEmptyClassID(t *testing.T) {
	repo := &mockRuleRepo{}
	svc := NewGradeRuleService(repo, standardRegistry(), nil, nil)

	empty := ""
	_, err := svc.Upsert(context.Background(), UpsertGradeRuleRequest{
		SubjectID: "subj-1",
		ClassID:   &empty,
		PassGrade: 5.5,
		Weights:   models.WeightMap{"attendance": 10, "assignment": 20, "midterm": 20, "final": 50},
		IsActive:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.upserted)
	assert.Nil(t, repo.upserted.ClassID)
}

func TestUpsertRejectsMissingComponentWeight(t *testing.T) {
	svc := NewGradeRuleService(&mockRuleRepo{}, standardRegistry(), nil, nil)

	_, err := svc.Upsert(context.Background(), UpsertGradeRuleRequest{
		SubjectID: "subj-1",
		PassGrade: 5.5,
		Weights:   models.WeightMap{"attendance": 50, "assignment": 50},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidWeights.Code, appErrors.FromError(err).Code)
}

func TestValidateWeights(t *testing.T) {
	required := []string{"attendance", "assignment", "midterm", "final"}

	cases := []struct {
		name    string
		weights models.WeightMap
		wantErr bool
	}{
		{"valid", models.WeightMap{"attendance": 10, "assignment": 20, "midterm": 20, "final": 50}, false},
		{"valid within tolerance", models.WeightMap{"attendance": 10, "assignment": 20, "midterm": 20, "final": 50.009}, false},
		{"sum too high", models.WeightMap{"attendance": 20, "assignment": 20, "midterm": 20, "final": 50}, true},
		{"sum too low", models.WeightMap{"attendance": 5, "assignment": 20, "midterm": 20, "final": 50}, true},
		{"negative weight", models.WeightMap{"attendance": -10, "assignment": 40, "midterm": 20, "final": 50}, true},
		{"weight above 100", models.WeightMap{"attendance": 110, "assignment": -10, "midterm": 0, "final": 0}, true},
		{"missing component", models.WeightMap{"attendance": 50, "assignment": 50}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateWeights(tc.weights, required)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrInvalidWeights.Code, appErrors.FromError(err).Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
