package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-go-api/internal/models"
	"github.com/noah-isme/lms-go-api/internal/service"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
	"github.com/noah-isme/lms-go-api/pkg/response"
)

// ProgressHandler exposes video progress and lesson lock endpoints.
type ProgressHandler struct {
	progress *service.ProgressService
}

// NewProgressHandler constructs handler.
func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// Watch godoc
// @Summary Record a video watch tick
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body service.RecordWatchRequest true "Watch payload"
// @Success 200 {object} response.Envelope
// @Router /progress/watch [post]
func (h *ProgressHandler) Watch(c *gin.Context) {
	var req service.RecordWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		req.StudentID = claims.UserID
	}
	result, err := h.progress.RecordWatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// LessonLocks godoc
// @Summary Lock state for every lesson in a chapter
// @Tags Progress
// @Produce json
// @Param chapterId path string true "Chapter ID"
// @Param student_id query string false "Student ID (teachers/admins only)"
// @Success 200 {object} response.Envelope
// @Router /chapters/{chapterId}/locks [get]
func (h *ProgressHandler) LessonLocks(c *gin.Context) {
	studentID, err := h.studentScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	locks, err := h.progress.GetLessonLocks(c.Request.Context(), studentID, c.Param("chapterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locks, nil)
}

// ChapterProgress godoc
// @Summary Progress rollup for one chapter
// @Tags Progress
// @Produce json
// @Param chapterId path string true "Chapter ID"
// @Param student_id query string false "Student ID (teachers/admins only)"
// @Success 200 {object} response.Envelope
// @Router /chapters/{chapterId}/progress [get]
func (h *ProgressHandler) ChapterProgress(c *gin.Context) {
	studentID, err := h.studentScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	progress, err := h.progress.GetChapterProgress(c.Request.Context(), studentID, c.Param("chapterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// SubjectOverview godoc
// @Summary Subject progress with per-chapter breakdown and lock state
// @Tags Progress
// @Produce json
// @Param subjectId path string true "Subject ID"
// @Param student_id query string false "Student ID (teachers/admins only)"
// @Success 200 {object} response.Envelope
// @Router /subjects/{subjectId}/progress [get]
func (h *ProgressHandler) SubjectOverview(c *gin.Context) {
	studentID, err := h.studentScope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	overview, err := h.progress.GetSubjectOverview(c.Request.Context(), studentID, c.Param("subjectId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// studentScope resolves which student's progress is being read. Students
// always read their own; staff may pass student_id.
func (h *ProgressHandler) studentScope(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	if claims.Role == models.RoleStudent {
		return claims.UserID, nil
	}
	studentID := c.Query("student_id")
	if studentID == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	return studentID, nil
}
