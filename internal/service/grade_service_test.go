package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/pkg/config"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
)

type mockGradeRepo struct {
	grades    []models.Grade
	finalized bool
}

func (m *mockGradeRepo) Upsert(ctx context.Context, grade *models.Grade) (bool, error) {
	if m.finalized {
		return false, nil
	}
	for i := range m.grades {
		if m.grades[i].StudentID == grade.StudentID && m.grades[i].ClassID == grade.ClassID && m.grades[i].ComponentCode == grade.ComponentCode {
			m.grades[i] = *grade
			return true, nil
		}
	}
	m.grades = append(m.grades, *grade)
	return true, nil
}

func (m *mockGradeRepo) ListByStudentClass(ctx context.Context, studentID, classID string) ([]models.Grade, error) {
	var out []models.Grade
	for _, g := range m.grades {
		if g.StudentID == studentID && g.ClassID == classID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGradeRepo) ListByClass(ctx context.Context, classID string) ([]models.Grade, error) {
	var out []models.Grade
	for _, g := range m.grades {
		if g.ClassID == classID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGradeRepo) FindByKey(ctx context.Context, studentID, classID, componentCode string) (*models.Grade, error) {
	for i := range m.grades {
		if m.grades[i].StudentID == studentID && m.grades[i].ClassID == classID && m.grades[i].ComponentCode == componentCode {
			return &m.grades[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) SetFinalized(ctx context.Context, classID string, finalized bool) error {
	m.finalized = finalized
	return nil
}

type mockFinalGradeRepo struct {
	finals    map[string]*models.FinalGrade
	finalized bool
}

func (m *mockFinalGradeRepo) Upsert(ctx context.Context, final *models.FinalGrade) error {
	if m.finals == nil {
		m.finals = map[string]*models.FinalGrade{}
	}
	m.finals[final.StudentID] = final
	return nil
}

func (m *mockFinalGradeRepo) FindByStudentClass(ctx context.Context, studentID, classID string) (*models.FinalGrade, error) {
	if f, ok := m.finals[studentID]; ok {
		return f, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFinalGradeRepo) ListByClass(ctx context.Context, classID string) (map[string]models.FinalGrade, error) {
	out := make(map[string]models.FinalGrade, len(m.finals))
	for id, f := range m.finals {
		out[id] = *f
	}
	return out, nil
}

func (m *mockFinalGradeRepo) SetFinalized(ctx context.Context, classID string, finalized bool) error {
	m.finalized = finalized
	return nil
}

type mockClassReader struct {
	class    *models.Class
	students []models.Student
}

func (m *mockClassReader) FindClass(ctx context.Context, classID string) (*models.Class, error) {
	if m.class == nil {
		return nil, sql.ErrNoRows
	}
	return m.class, nil
}

func (m *mockClassReader) ListClassStudents(ctx context.Context, classID string) ([]models.Student, error) {
	return m.students, nil
}

type mockRuleResolver struct {
	rule *models.GradeRule
}

func (m *mockRuleResolver) Resolve(ctx context.Context, subjectID, classID string) (*models.GradeRule, error) {
	return m.rule, nil
}

type mockComponentReader struct {
	components []models.GradeComponent
}

func (m *mockComponentReader) FindByCode(ctx context.Context, code string) (*models.GradeComponent, error) {
	for i := range m.components {
		if m.components[i].Code == code {
			return &m.components[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockComponentReader) ListActive(ctx context.Context) ([]models.GradeComponent, error) {
	var active []models.GradeComponent
	for _, c := range m.components {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active, nil
}

type mockSubjectProgress struct {
	progress float64
}

func (m *mockSubjectProgress) GetSubjectProgress(ctx context.Context, studentID, subjectID string) (*models.SubjectProgress, error) {
	return &models.SubjectProgress{StudentID: studentID, SubjectID: subjectID, Progress: m.progress}, nil
}

type mockAssignments struct{ submitted int }

func (m *mockAssignments) CountSubmitted(ctx context.Context, studentID, classID string) (int, error) {
	return m.submitted, nil
}

type mockAttendance struct{ rate float64 }

func (m *mockAttendance) Rate(ctx context.Context, studentID, classID string) (float64, error) {
	return m.rate, nil
}

type gradeServiceFixture struct {
	grades      *mockGradeRepo
	finals      *mockFinalGradeRepo
	classes     *mockClassReader
	rules       *mockRuleResolver
	components  *mockComponentReader
	progress    *mockSubjectProgress
	assignments *mockAssignments
	attendance  *mockAttendance
	grading     config.GradingConfig
	svc         *GradeService
}

func newGradeServiceFixture() *gradeServiceFixture {
	f := &gradeServiceFixture{
		grades: &mockGradeRepo{},
		finals: &mockFinalGradeRepo{},
		classes: &mockClassReader{
			class:    &models.Class{ID: "class1", SubjectID: "subj1", TeacherID: "t1"},
			students: []models.Student{{ID: "s1", FullName: "Student One"}},
		},
		rules: &mockRuleResolver{rule: &models.GradeRule{
			PassGrade: 5.5,
			Weights:   models.WeightMap{"attendance": 10, "assignment": 20, "midterm": 20, "final": 50},
		}},
		components: &mockComponentReader{components: []models.GradeComponent{
			{Code: "attendance", Name: "Attendance", IsActive: true},
			{Code: "assignment", Name: "Assignment", IsActive: true},
			{Code: "midterm", Name: "Midterm", IsActive: true},
			{Code: "final", Name: "Final", IsActive: true},
		}},
		progress:    &mockSubjectProgress{progress: 100},
		assignments: &mockAssignments{},
		attendance:  &mockAttendance{rate: 100},
	}
	f.grading = config.GradingConfig{
		LetterBands: []config.LetterBand{
			{Min: 8.5, Letter: "A"},
			{Min: 7.0, Letter: "B"},
			{Min: 5.5, Letter: "C"},
			{Min: 4.0, Letter: "D"},
			{Min: 0, Letter: "F"},
		},
		DefaultPassGrade: 5.5,
	}
	f.svc = NewGradeService(f.grades, f.finals, f.classes, f.rules, f.components,
		f.progress, f.assignments, f.attendance, nil, nil, f.grading, nil, nil)
	return f
}

func saveAllComponents(t *testing.T, f *gradeServiceFixture) {
	t.Helper()
	entries := []struct {
		code     string
		score    float64
		maxScore float64
	}{
		{"attendance", 9, 10},
		{"assignment", 8, 10},
		{"midterm", 7, 10},
		{"final", 85, 100},
	}
	for _, e := range entries {
		_, err := f.svc.SaveGrade(context.Background(), SaveGradeRequest{
			StudentID: "s1", ClassID: "class1", ComponentCode: e.code,
			Score: e.score, MaxScore: e.maxScore, TeacherID: "t1",
		})
		require.NoError(t, err)
	}
}

func TestSaveGradeRecalculatesFinal(t *testing.T) {
	f := newGradeServiceFixture()
	saveAllComponents(t, f)

	final := f.finals.finals["s1"]
	require.NotNil(t, final)
	require.NotNil(t, final.TotalScore)
	assert.InDelta(t, 8.15, *final.TotalScore, 0.001)
	require.NotNil(t, final.LetterGrade)
	assert.Equal(t, "B", *final.LetterGrade)
	assert.Equal(t, models.StatusPassed, final.Status)
	assert.True(t, final.CanTakeFinal)
}

func TestSaveGradeScoreAboveMax(t *testing.T) {
	f := newGradeServiceFixture()

	_, err := f.svc.SaveGrade(context.Background(), SaveGradeRequest{
		StudentID: "s1", ClassID: "class1", ComponentCode: "final",
		Score: 110, MaxScore: 100, TeacherID: "t1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSaveGradeUnknownComponent(t *testing.T) {
	f := newGradeServiceFixture()

	_, err := f.svc.SaveGrade(context.Background(), SaveGradeRequest{
		StudentID: "s1", ClassID: "class1", ComponentCode: "bonus",
		Score: 5, MaxScore: 10, TeacherID: "t1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSaveGradeInactiveComponent(t *testing.T) {
	f := newGradeServiceFixture()
	f.components.components = append(f.components.components, models.GradeComponent{Code: "quiz", IsActive: false})

	_, err := f.svc.SaveGrade(context.Background(), SaveGradeRequest{
		StudentID: "s1", ClassID: "class1", ComponentCode: "quiz",
		Score: 5, MaxScore: 10, TeacherID: "t1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSaveGradeRejectedWhenFinalized(t *testing.T) {
	f := newGradeServiceFixture()
	f.grades.finalized = true

	_, err := f.svc.SaveGrade(context.Background(), SaveGradeRequest{
		StudentID: "s1", ClassID: "class1", ComponentCode: "final",
		Score: 80, MaxScore: 100, TeacherID: "t1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
}

func TestRecalculateWithoutGrades(t *testing.T) {
	f := newGradeServiceFixture()

	final, err := f.svc.Recalculate(context.Background(), "s1", "class1", "subj1")
	require.NoError(t, err)
	assert.Nil(t, final.TotalScore, "no scores must not produce a zero total")
	assert.Nil(t, final.LetterGrade)
	assert.Equal(t, models.StatusInProgress, final.Status)
}

func TestRecalculateIneligibleWithoutTotalIsIncomplete(t *testing.T) {
	f := newGradeServiceFixture()
	f.rules.rule.RequireVideoProgress = true
	f.rules.rule.MinVideoProgress = 80
	f.progress.progress = 50

	final, err := f.svc.Recalculate(context.Background(), "s1", "class1", "subj1")
	require.NoError(t, err)
	assert.False(t, final.CanTakeFinal)
	assert.Equal(t, models.StatusIncomplete, final.Status)
}

func TestRecalculateFailingTotal(t *testing.T) {
	f := newGradeServiceFixture()
	for _, code := range []string{"attendance", "assignment", "midterm", "final"} {
		_, err := f.svc.SaveGrade(context.Background(), SaveGradeRequest{
			StudentID: "s1", ClassID: "class1", ComponentCode: code,
			Score: 3, MaxScore: 10, TeacherID: "t1",
		})
		require.NoError(t, err)
	}

	final := f.finals.finals["s1"]
	require.NotNil(t, final)
	require.NotNil(t, final.TotalScore)
	assert.InDelta(t, 3.0, *final.TotalScore, 0.001)
	assert.Equal(t, models.StatusFailed, final.Status)
	assert.Equal(t, "F", *final.LetterGrade)
}

func TestRecalculateNoRuleUsesDefaults(t *testing.T) {
	f := newGradeServiceFixture()
	f.rules.rule = nil

	final, err := f.svc.Recalculate(context.Background(), "s1", "class1", "subj1")
	require.NoError(t, err)
	assert.True(t, final.CanTakeFinal, "no rule means no gating")
	assert.Equal(t, models.StatusInProgress, final.Status)
}

func TestFinalizeClassLocksEverything(t *testing.T) {
	f := newGradeServiceFixture()
	saveAllComponents(t, f)

	require.NoError(t, f.svc.FinalizeClass(context.Background(), "class1"))
	assert.True(t, f.grades.finalized)
	assert.True(t, f.finals.finalized)

	_, err := f.svc.SaveGrade(context.Background(), SaveGradeRequest{
		StudentID: "s1", ClassID: "class1", ComponentCode: "final",
		Score: 90, MaxScore: 100, TeacherID: "t1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
}

func TestGetStudentGradesBoard(t *testing.T) {
	f := newGradeServiceFixture()
	f.classes.students = append(f.classes.students, models.Student{ID: "s2", FullName: "Student Two"})
	_, err := f.svc.SaveGrade(context.Background(), SaveGradeRequest{
		StudentID: "s1", ClassID: "class1", ComponentCode: "midterm",
		Score: 7, MaxScore: 10, TeacherID: "t1",
	})
	require.NoError(t, err)

	board, err := f.svc.GetStudentGrades(context.Background(), "class1")
	require.NoError(t, err)
	require.Len(t, board.Students, 2)

	var s1, s2 *models.StudentGradeRow
	for i := range board.Students {
		switch board.Students[i].StudentID {
		case "s1":
			s1 = &board.Students[i]
		case "s2":
			s2 = &board.Students[i]
		}
	}
	require.NotNil(t, s1)
	require.NotNil(t, s2)
	require.NotNil(t, s1.Scores["midterm"])
	assert.InDelta(t, 7.0, s1.Scores["midterm"].Score, 0.001)
	assert.Nil(t, s1.Scores["final"], "ungraded component stays null")
	assert.Nil(t, s2.Scores["midterm"], "ungraded student stays null")
	assert.NotNil(t, s1.FinalGrade)
	assert.Nil(t, s2.FinalGrade)
}

func TestGetFinalGradeMissingIsNil(t *testing.T) {
	f := newGradeServiceFixture()

	final, err := f.svc.GetFinalGrade(context.Background(), "s1", "class1")
	require.NoError(t, err)
	assert.Nil(t, final)
}

func TestRecalculateRecordsQueryTiming(t *testing.T) {
	f := newGradeServiceFixture()
	metrics := NewMetricsService()
	f.svc = NewGradeService(f.grades, f.finals, f.classes, f.rules, f.components,
		f.progress, f.assignments, f.attendance, nil, metrics, f.grading, nil, nil)

	_, err := f.svc.Recalculate(context.Background(), "s1", "class1", "subj1")
	require.NoError(t, err)

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.DBQueryCount)
	assert.Equal(t, uint64(1), snap.GradeRecalculations)

	_, err = f.svc.GetStudentGrades(context.Background(), "class1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), metrics.Snapshot().DBQueryCount)
}
