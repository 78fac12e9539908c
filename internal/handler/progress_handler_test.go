package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-go-api/internal/middleware"
	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/service"
)

type progressRepoStub struct {
	completion map[string]bool
	upserted   []*models.LessonProgress
}

func newProgressRepoStub() *progressRepoStub {
	return &progressRepoStub{completion: map[string]bool{}}
}

func (s *progressRepoStub) FindLessonProgress(ctx context.Context, studentID, lessonID string) (*models.LessonProgress, error) {
	return nil, sql.ErrNoRows
}

func (s *progressRepoStub) UpsertLessonProgress(ctx context.Context, progress *models.LessonProgress) error {
	s.upserted = append(s.upserted, progress)
	if progress.IsCompleted {
		s.completion[progress.LessonID] = true
	}
	return nil
}

func (s *progressRepoStub) CompletionByLessonIDs(ctx context.Context, studentID string, lessonIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		if s.completion[id] {
			result[id] = true
		}
	}
	return result, nil
}

func (s *progressRepoStub) UpsertChapterProgress(ctx context.Context, progress *models.ChapterProgress) error {
	return nil
}

func (s *progressRepoStub) UpsertSubjectProgress(ctx context.Context, progress *models.SubjectProgress) error {
	return nil
}

func (s *progressRepoStub) FindChapterProgress(ctx context.Context, studentID, chapterID string) (*models.ChapterProgress, error) {
	return nil, sql.ErrNoRows
}

func (s *progressRepoStub) FindSubjectProgress(ctx context.Context, studentID, subjectID string) (*models.SubjectProgress, error) {
	return nil, sql.ErrNoRows
}

func (s *progressRepoStub) ListChapterProgressBySubject(ctx context.Context, studentID, subjectID string) (map[string]models.ChapterProgress, error) {
	return map[string]models.ChapterProgress{}, nil
}

// courseReaderStub wires one subject with one two-lesson chapter.
type courseReaderStub struct{}

var stubLessons = []models.Lesson{
	{ID: "la", ChapterID: "ch1", Position: 1, DurationSeconds: 100},
	{ID: "lb", ChapterID: "ch1", Position: 2, DurationSeconds: 100},
}

func (courseReaderStub) FindLesson(ctx context.Context, lessonID string) (*models.Lesson, error) {
	for i := range stubLessons {
		if stubLessons[i].ID == lessonID {
			return &stubLessons[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (courseReaderStub) FindChapter(ctx context.Context, chapterID string) (*models.Chapter, error) {
	if chapterID != "ch1" {
		return nil, sql.ErrNoRows
	}
	return &models.Chapter{ID: "ch1", SubjectID: "subj1", Position: 1}, nil
}

func (courseReaderStub) ListLessonsByChapter(ctx context.Context, chapterID string) ([]models.Lesson, error) {
	return stubLessons, nil
}

func (courseReaderStub) ListChaptersBySubject(ctx context.Context, subjectID string) ([]models.Chapter, error) {
	return []models.Chapter{{ID: "ch1", SubjectID: "subj1", Position: 1}}, nil
}

func (courseReaderStub) ListLessonsBySubject(ctx context.Context, subjectID string) ([]models.Lesson, error) {
	return stubLessons, nil
}

func newProgressHandlerFixture() (*ProgressHandler, *progressRepoStub) {
	repo := newProgressRepoStub()
	svc := service.NewProgressService(repo, courseReaderStub{}, 0.30, nil, nil)
	return NewProgressHandler(svc), repo
}

func TestProgressHandlerWatchRejectsMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newProgressHandlerFixture()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/progress/watch", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})

	handler.Watch(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressHandlerWatchForcesStudentIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newProgressHandlerFixture()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{"student_id":"someone-else","lesson_id":"la","watched_seconds":30,"duration_seconds":100}`
	req, _ := http.NewRequest(http.MethodPost, "/progress/watch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "s1", Role: models.RoleStudent})

	handler.Watch(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, repo.upserted, 1)
	require.Equal(t, "s1", repo.upserted[0].StudentID, "students only record their own progress")
}

func TestProgressHandlerLocksWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newProgressHandlerFixture()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/chapters/ch1/locks", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "chapterId", Value: "ch1"}}

	handler.LessonLocks(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProgressHandlerLocksStaffNeedsStudentID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newProgressHandlerFixture()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/chapters/ch1/locks", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "chapterId", Value: "ch1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher})

	handler.LessonLocks(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressHandlerLocksPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newProgressHandlerFixture()
	repo.completion["la"] = true
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/chapters/ch1/locks?student_id=s1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "chapterId", Value: "ch1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "t1", Role: models.RoleTeacher})

	handler.LessonLocks(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.LessonLock `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	require.False(t, envelope.Data[0].Locked)
	require.True(t, envelope.Data[0].IsCompleted)
	require.False(t, envelope.Data[1].Locked)
}
