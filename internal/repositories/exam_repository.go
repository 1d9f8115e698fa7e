package repositories

import (
	"context"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"gorm.io/gorm"
)

// ExamRepository covers exam metadata and exam-question membership.
type ExamRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)

	// Question membership
	// GetQuestions may serve a cached list; LoadQuestions always reads through tx.
	GetQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]models.Question, error)
	LoadQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]models.Question, error)
	AddQuestions(ctx context.Context, tx *gorm.DB, examID uint, questionIDs []uint) (int, error)
	RemoveQuestion(ctx context.Context, tx *gorm.DB, examID, questionID uint) error
	HasQuestion(ctx context.Context, tx *gorm.DB, examID, questionID uint) (bool, error)
	CountQuestions(ctx context.Context, tx *gorm.DB, examIDs []uint) (map[uint]int, error)
	MaxPossibleScores(ctx context.Context, tx *gorm.DB, examIDs []uint) (map[uint]float64, error)
}
