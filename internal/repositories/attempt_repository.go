package repositories

import (
	"context"
	"time"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository never serves attempt rows from cache.
type AttemptRepository interface {
	// CreateIfAbsent inserts attempt unless one already exists for the same
	// (student, exam) pair. attempt is always filled with the stored row.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) (created bool, err error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
	// GetByIDForUpdate locks the row for the rest of the transaction.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error)
	GetByStudentAndExam(ctx context.Context, tx *gorm.DB, studentID string, examID uint) (*models.Attempt, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Attempt, error)

	// MarkSubmitted moves an in-progress attempt to submitted. It reports
	// false when the attempt was not in progress anymore.
	MarkSubmitted(ctx context.Context, tx *gorm.DB, id uint, submittedAt time.Time, totalScore float64) (bool, error)
	UpdateTotalScore(ctx context.Context, tx *gorm.DB, id uint, totalScore float64) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*AttemptWithExam, int64, error)
}

// AnswerRepository interface for answer operations
type AnswerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	// Upsert writes the content fields of answer for its (attempt, question).
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.Answer, error)
	GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.Answer, error)
	// UpdateGrade persists the grading fields of answer.
	UpdateGrade(ctx context.Context, tx *gorm.DB, answer *models.Answer) error
	SumScores(ctx context.Context, tx *gorm.DB, attemptID uint) (float64, error)
}
