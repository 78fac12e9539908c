package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-go-api/internal/service"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
	"github.com/noah-isme/lms-go-api/pkg/response"
)

// GradeHandler exposes grade entry, grade board and finalization endpoints.
type GradeHandler struct {
	grades   *service.GradeService
	exporter *service.ExportService
}

// NewGradeHandler constructs handler.
func NewGradeHandler(grades *service.GradeService, exporter *service.ExportService) *GradeHandler {
	return &GradeHandler{grades: grades, exporter: exporter}
}

// Save godoc
// @Summary Save a component score for a student
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.SaveGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Save(c *gin.Context) {
	var req service.SaveGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if claims := claimsFromContext(c); claims != nil && req.TeacherID == "" {
		req.TeacherID = claims.UserID
	}
	grade, err := h.grades.SaveGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Board godoc
// @Summary Grade board for a class
// @Tags Grades
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/grades [get]
func (h *GradeHandler) Board(c *gin.Context) {
	board, err := h.grades.GetStudentGrades(c.Request.Context(), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}

// FinalGrade godoc
// @Summary Final grade snapshot for a student in a class
// @Tags Grades
// @Produce json
// @Param classId path string true "Class ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/grades/{studentId} [get]
func (h *GradeHandler) FinalGrade(c *gin.Context) {
	final, err := h.grades.GetFinalGrade(c.Request.Context(), c.Param("studentId"), c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if final == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "final grade not calculated yet"))
		return
	}
	response.JSON(c, http.StatusOK, final, nil)
}

// Recalculate godoc
// @Summary Recalculate final grades for a class
// @Tags Grades
// @Produce json
// @Param classId path string true "Class ID"
// @Success 204
// @Router /classes/{classId}/grades/recalculate [post]
func (h *GradeHandler) Recalculate(c *gin.Context) {
	if err := h.grades.RecalculateClass(c.Request.Context(), c.Param("classId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Finalize godoc
// @Summary Finalize grades for a class
// @Tags Grades
// @Produce json
// @Param classId path string true "Class ID"
// @Success 204
// @Router /classes/{classId}/grades/finalize [post]
func (h *GradeHandler) Finalize(c *gin.Context) {
	if err := h.grades.FinalizeClass(c.Request.Context(), c.Param("classId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the class grade board
// @Tags Grades
// @Produce text/csv
// @Produce application/pdf
// @Param classId path string true "Class ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /classes/{classId}/grades/export [get]
func (h *GradeHandler) Export(c *gin.Context) {
	file, err := h.exporter.ExportGradeBoard(c.Request.Context(), c.Param("classId"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
