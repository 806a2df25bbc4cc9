package controllers

import (
	"net/http"

	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/app/services"
	"github.com/campuspulse/campuspulse/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AIController exposes the text generation helpers
type AIController struct {
	aiService services.AIService
}

// NewAIController creates a new AIController
func NewAIController(aiService services.AIService) *AIController {
	return &AIController{aiService: aiService}
}

// GenerateCourseDescription drafts a course description
// @Summary Generate course description
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CourseDescriptionRequest true "Course title, code and keywords"
// @Success 200 {object} dto.APIResponse{data=dto.CourseDescriptionResponse} "Generated description"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 500 {object} dto.ErrorResponse "The AI failed to generate a description"
// @Router /ai/course-description [post]
func (c *AIController) GenerateCourseDescription(ctx *gin.Context) {
	var req dto.CourseDescriptionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.aiService.GenerateCourseDescription(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// SuggestResourceOptimizations drafts resource allocation suggestions
// @Summary Suggest resource optimizations
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ResourceOptimizationRequest true "Current resource usage"
// @Success 200 {object} dto.APIResponse{data=dto.ResourceOptimizationResponse} "Suggestions"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 500 {object} dto.ErrorResponse "The AI failed to generate suggestions"
// @Router /ai/resource-optimization [post]
func (c *AIController) SuggestResourceOptimizations(ctx *gin.Context) {
	var req dto.ResourceOptimizationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.aiService.SuggestResourceOptimizations(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
