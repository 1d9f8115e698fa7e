package repositories

import (
	"context"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"gorm.io/gorm"
)

// Repository groups the per-entity stores. Every method on them takes an
// optional *gorm.DB; a non-nil one binds the call to that transaction.
type Repository interface {
	Question() QuestionRepository
	Exam() ExamRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository

	Ping(ctx context.Context) error
	Close() error
}

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
}

// Window is a page of rows in a requested order. Zero values mean the
// store's defaults.
type Window struct {
	Limit  int
	Offset int
	SortBy string
	Desc   bool
}

type QuestionFilters struct {
	Type *models.QuestionType
	Window
}

type ExamFilters struct {
	PublishedOnly bool
	Window
}

type AttemptFilters struct {
	StudentID *string
	ExamID    *uint
	Window
}

// AttemptWithExam is an attempt row joined with its exam title.
type AttemptWithExam struct {
	models.Attempt
	ExamTitle string `json:"exam_title"`
}
