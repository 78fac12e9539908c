package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-go-api/internal/service"
	appErrors "github.com/noah-isme/lms-go-api/pkg/errors"
	"github.com/noah-isme/lms-go-api/pkg/response"
)

// GradeComponentHandler exposes grade component endpoints.
type GradeComponentHandler struct {
	components *service.GradeComponentService
}

// NewGradeComponentHandler constructs handler.
func NewGradeComponentHandler(components *service.GradeComponentService) *GradeComponentHandler {
	return &GradeComponentHandler{components: components}
}

// List godoc
// @Summary List grade components
// @Tags Grade Components
// @Produce json
// @Param include_inactive query bool false "Include inactive components"
// @Success 200 {object} response.Envelope
// @Router /grade-components [get]
func (h *GradeComponentHandler) List(c *gin.Context) {
	var (
		components interface{}
		err        error
	)
	if c.Query("include_inactive") == "true" {
		components, err = h.components.List(c.Request.Context())
	} else {
		components, err = h.components.ListActive(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, components, nil)
}

// Create godoc
// @Summary Create grade component
// @Tags Grade Components
// @Accept json
// @Produce json
// @Param payload body service.CreateGradeComponentRequest true "Component payload"
// @Success 201 {object} response.Envelope
// @Router /grade-components [post]
func (h *GradeComponentHandler) Create(c *gin.Context) {
	var req service.CreateGradeComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	component, err := h.components.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, component)
}

// Update godoc
// @Summary Update grade component
// @Tags Grade Components
// @Accept json
// @Produce json
// @Param code path string true "Component code"
// @Param payload body service.UpdateGradeComponentRequest true "Component payload"
// @Success 200 {object} response.Envelope
// @Router /grade-components/{code} [put]
func (h *GradeComponentHandler) Update(c *gin.Context) {
	var req service.UpdateGradeComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	component, err := h.components.Update(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, component, nil)
}

// Delete godoc
// @Summary Delete grade component
// @Tags Grade Components
// @Produce json
// @Param code path string true "Component code"
// @Success 204
// @Router /grade-components/{code} [delete]
func (h *GradeComponentHandler) Delete(c *gin.Context) {
	if err := h.components.Delete(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
