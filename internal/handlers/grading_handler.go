package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tarik1bosunia/online-exam-management-system/internal/services"
	"github.com/tarik1bosunia/online-exam-management-system/internal/utils"
	"github.com/tarik1bosunia/online-exam-management-system/internal/validator"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
	validator      *validator.Validator
}

func NewGradingHandler(gradingService services.GradingService, validator *validator.Validator, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
		validator:      validator,
	}
}

// GetReview returns the per-question breakdown of an attempt
// @Summary Review attempt
// @Tags grading
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.AttemptReview
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/review [get]
func (h *GradingHandler) GetReview(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	review, err := h.gradingService.GetReview(c.Request.Context(), principal, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// GradeAnswer sets the score of one answer
// @Summary Manually grade answer
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param question_id path uint true "Question ID"
// @Param grade body validator.GradeUpdateRequest true "Score"
// @Success 200 {object} models.AttemptReview
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/answers/{question_id}/grade [put]
func (h *GradingHandler) GradeAnswer(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}
	principal, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req validator.GradeUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Grading answer",
		"attempt_id", attemptID,
		"question_id", questionID)

	review, err := h.gradingService.ManualGrade(c.Request.Context(), principal, attemptID, questionID, *req.Score)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}
