package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tarik1bosunia/online-exam-management-system/internal/services"
	"github.com/tarik1bosunia/online-exam-management-system/internal/utils"
	"github.com/tarik1bosunia/online-exam-management-system/internal/validator"
)

type HandlerManager struct {
	serviceManager  services.ServiceManager
	attemptHandler  *AttemptHandler
	gradingHandler  *GradingHandler
	examHandler     *ExamHandler
	questionHandler *QuestionHandler
	authMiddleware  *AuthMiddleware
	logger          utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	verifier TokenVerifier,
	policy services.AccessPolicy,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:  serviceManager,
		attemptHandler:  NewAttemptHandler(serviceManager.Attempt(), logger),
		gradingHandler:  NewGradingHandler(serviceManager.Grading(), validator, logger),
		examHandler:     NewExamHandler(serviceManager.Exam(), logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), logger),
		authMiddleware:  NewAuthMiddleware(verifier, policy, logger),
		logger:          logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	elevated := hm.authMiddleware.RequireElevated()

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.Authenticate())
	{
		exams := v1.Group("/exams")
		{
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.POST("/:id/start", hm.attemptHandler.StartAttempt)

			exams.POST("", elevated, hm.examHandler.CreateExam)
			exams.PATCH("/:id", elevated, hm.examHandler.UpdateExam)
			exams.GET("/:id/questions", elevated, hm.examHandler.GetQuestions)
			exams.POST("/:id/questions", elevated, hm.examHandler.AddQuestions)
			exams.DELETE("/:id/questions/:question_id", elevated, hm.examHandler.RemoveQuestion)
			exams.GET("/:id/attempts", elevated, hm.attemptHandler.ListExamAttempts)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.GET("/me", hm.attemptHandler.ListMyAttempts)
			attempts.POST("/:id/answers", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/review", hm.gradingHandler.GetReview)
			attempts.PUT("/:id/answers/:question_id/grade", elevated, hm.gradingHandler.GradeAnswer)
		}

		questions := v1.Group("/questions")
		questions.Use(elevated)
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.POST("/import", hm.questionHandler.ImportQuestions)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
		}
	}

	router.GET("/health", hm.health)
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		utils.FromContext(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "exam-service",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "exam-service",
	})
}
