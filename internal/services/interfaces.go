package services

import (
	"context"
	"io"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories"
	"github.com/tarik1bosunia/online-exam-management-system/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type CreateQuestionRequest = validator.QuestionCreateRequest
type CreateExamRequest = validator.ExamCreateRequest
type UpdateExamRequest = validator.ExamUpdateRequest
type SaveAnswerRequest = validator.AnswerSaveRequest

// Page is an offset window. Zero values select the repository defaults.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// window orders the page by column, largest first.
func (p Page) window(column string) repositories.Window {
	return repositories.Window{Limit: p.Limit, Offset: p.Offset, SortBy: column, Desc: true}
}

type QuestionListResponse struct {
	Questions []*models.Question `json:"questions"`
	Total     int64              `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

type ExamListResponse struct {
	Exams  []*models.ExamSummary `json:"exams"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type AttemptListResponse struct {
	Attempts []*models.AttemptSummary `json:"attempts"`
	Total    int64                    `json:"total"`
}

type AddQuestionsResponse struct {
	ExamID uint `json:"exam_id"`
	Added  int  `json:"added"`
}

// ===== SERVICE INTERFACES =====

// AttemptService runs the attempt lifecycle: in_progress -> submitted.
type AttemptService interface {
	StartOrResume(ctx context.Context, principal models.Principal, examID uint) (*models.AttemptState, error)
	SaveAnswer(ctx context.Context, principal models.Principal, attemptID uint, req *SaveAnswerRequest) error
	Submit(ctx context.Context, principal models.Principal, attemptID uint) (*models.AttemptResult, error)

	ListMyAttempts(ctx context.Context, principal models.Principal, page Page) (*AttemptListResponse, error)
	ListExamAttempts(ctx context.Context, principal models.Principal, examID uint, page Page) (*AttemptListResponse, error)
}

// GradingService exposes post-submission review and manual grading.
type GradingService interface {
	GetReview(ctx context.Context, principal models.Principal, attemptID uint) (*models.AttemptReview, error)
	ManualGrade(ctx context.Context, principal models.Principal, attemptID, questionID uint, score float64) (*models.AttemptReview, error)
}

type ExamService interface {
	Create(ctx context.Context, principal models.Principal, req *CreateExamRequest) (*models.Exam, error)
	Update(ctx context.Context, principal models.Principal, id uint, req *UpdateExamRequest) (*models.Exam, error)
	Get(ctx context.Context, principal models.Principal, id uint) (*models.ExamSummary, error)
	List(ctx context.Context, principal models.Principal, page Page) (*ExamListResponse, error)

	AddQuestions(ctx context.Context, principal models.Principal, examID uint, questionIDs []uint) (*AddQuestionsResponse, error)
	RemoveQuestion(ctx context.Context, principal models.Principal, examID, questionID uint) error
	GetQuestions(ctx context.Context, principal models.Principal, examID uint) ([]models.Question, error)
}

type QuestionService interface {
	Create(ctx context.Context, principal models.Principal, req *CreateQuestionRequest) (*models.Question, error)
	CreateBatch(ctx context.Context, principal models.Principal, questions []*models.Question) error
	Get(ctx context.Context, principal models.Principal, id uint) (*models.Question, error)
	List(ctx context.Context, principal models.Principal, page Page) (*QuestionListResponse, error)
	Import(ctx context.Context, principal models.Principal, r io.Reader) (*models.ImportResult, error)
}

// ServiceManager owns service construction and lifecycle
type ServiceManager interface {
	Attempt() AttemptService
	Grading() GradingService
	Exam() ExamService
	Question() QuestionService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
