package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-go-api/internal/service"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
	"github.com/noah-isme/lms-go-api/pkg/response"
)

// GradeRuleHandler exposes grading rule endpoints.
type GradeRuleHandler struct {
	rules *service.GradeRuleService
}

// NewGradeRuleHandler constructs handler.
func NewGradeRuleHandler(rules *service.GradeRuleService) *GradeRuleHandler {
	return &GradeRuleHandler{rules: rules}
}

// List godoc
// @Summary List grading rules for a subject
// @Tags Grade Rules
// @Produce json
// @Param subject_id query string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /grade-rules [get]
func (h *GradeRuleHandler) List(c *gin.Context) {
	subjectID := c.Query("subject_id")
	if subjectID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subject_id is required"))
		return
	}
	rules, err := h.rules.List(c.Request.Context(), subjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// Resolve godoc
// @Summary Resolve the effective grading rule for a class
// @Tags Grade Rules
// @Produce json
// @Param subject_id query string true "Subject ID"
// @Param class_id query string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /grade-rules/resolve [get]
func (h *GradeRuleHandler) Resolve(c *gin.Context) {
	subjectID := c.Query("subject_id")
	classID := c.Query("class_id")
	if subjectID == "" || classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subject_id and class_id are required"))
		return
	}
	rule, err := h.rules.Resolve(c.Request.Context(), subjectID, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// Upsert godoc
// @Summary Create or update a grading rule
// @Tags Grade Rules
// @Accept json
// @Produce json
// @Param payload body service.UpsertGradeRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /grade-rules [put]
func (h *GradeRuleHandler) Upsert(c *gin.Context) {
	var req service.UpsertGradeRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rule, err := h.rules.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}
