package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var attemptSortColumns = map[string]string{
	"started_at":  "attempts.started_at",
	"total_score": "attempts.total_score",
	"id":          "attempts.id",
}

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

// CreateIfAbsent relies on the (student_id, exam_id) unique index: a losing
// concurrent insert becomes a no-op and the winner's row is read back.
func (a *AttemptPostgreSQL) CreateIfAbsent(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) (bool, error) {
	db := a.getDB(tx)

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "exam_id"}},
			DoNothing: true,
		}).
		Create(attempt)
	if result.Error != nil && !repositories.IsDuplicateKeyError(result.Error) {
		return false, fmt.Errorf("failed to create attempt: %w", result.Error)
	}
	if result.Error == nil && result.RowsAffected == 1 {
		return true, nil
	}

	existing, err := a.GetByStudentAndExam(ctx, tx, attempt.StudentID, attempt.ExamID)
	if err != nil {
		return false, err
	}
	*attempt = *existing
	return false, nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	db := a.getDB(tx)
	var attempt models.Attempt
	if err := db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt %d: %w", id, err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Attempt, error) {
	db := a.getDB(tx)
	var attempt models.Attempt
	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&attempt, id).Error; err != nil {
		return nil, fmt.Errorf("failed to lock attempt %d: %w", id, err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByStudentAndExam(ctx context.Context, tx *gorm.DB, studentID string, examID uint) (*models.Attempt, error) {
	db := a.getDB(tx)
	var attempt models.Attempt
	if err := db.WithContext(ctx).
		Where("student_id = ? AND exam_id = ?", studentID, examID).
		First(&attempt).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt for exam %d: %w", examID, err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Attempt, error) {
	db := a.getDB(tx)
	var attempts []*models.Attempt
	if err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempts by student: %w", err)
	}
	return attempts, nil
}

// MarkSubmitted is a compare-and-set on status. Concurrent callers serialize
// on the row; only the first one sees an affected row.
func (a *AttemptPostgreSQL) MarkSubmitted(ctx context.Context, tx *gorm.DB, id uint, submittedAt time.Time, totalScore float64) (bool, error) {
	db := a.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ? AND status = ?", id, models.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":       models.AttemptSubmitted,
			"submitted_at": submittedAt,
			"total_score":  totalScore,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to submit attempt: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (a *AttemptPostgreSQL) UpdateTotalScore(ctx context.Context, tx *gorm.DB, id uint, totalScore float64) error {
	db := a.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ?", id).
		Update("total_score", totalScore)
	if result.Error != nil {
		return fmt.Errorf("failed to update total score: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*repositories.AttemptWithExam, int64, error) {
	db := a.getDB(tx)
	var rows []*repositories.AttemptWithExam
	var total int64

	query := db.WithContext(ctx).
		Table("attempts").
		Joins("JOIN exams ON exams.id = attempts.exam_id")
	query = a.applyFiltersAttempt(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count attempts: %w", err)
	}

	if err := query.
		Scopes(window(filters.Window, attemptSortColumns, "started_at")).
		Select("attempts.*, exams.title AS exam_title").
		Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}

	return rows, total, nil
}

func (a *AttemptPostgreSQL) applyFiltersAttempt(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.StudentID != nil {
		query = query.Where("attempts.student_id = ?", *filters.StudentID)
	}
	if filters.ExamID != nil {
		query = query.Where("attempts.exam_id = ?", *filters.ExamID)
	}
	return query
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// ===== ANSWERS =====

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (ar *AnswerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	db := ar.getDB(tx)
	if err := db.WithContext(ctx).Create(answer).Error; err != nil {
		return fmt.Errorf("failed to create answer: %w", err)
	}
	return nil
}

// Upsert is a single statement so concurrent saves for the same question
// resolve to one of the written values.
func (ar *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	db := ar.getDB(tx)
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"selected_options", "text_answer", "updated_at"}),
		}).
		Create(answer).Error; err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

func (ar *AnswerPostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.Answer, error) {
	db := ar.getDB(tx)
	answers := []models.Answer{}
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to get answers by attempt: %w", err)
	}
	return answers, nil
}

func (ar *AnswerPostgreSQL) GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.Answer, error) {
	db := ar.getDB(tx)
	var answer models.Answer
	if err := db.WithContext(ctx).
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error; err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return &answer, nil
}

func (ar *AnswerPostgreSQL) UpdateGrade(ctx context.Context, tx *gorm.DB, answer *models.Answer) error {
	db := ar.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("id = ?", answer.ID).
		Updates(map[string]interface{}{
			"score_awarded": answer.ScoreAwarded,
			"is_correct":    answer.IsCorrect,
			"is_graded":     answer.IsGraded,
			"graded_by":     answer.GradedBy,
			"graded_at":     answer.GradedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to grade answer: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (ar *AnswerPostgreSQL) SumScores(ctx context.Context, tx *gorm.DB, attemptID uint) (float64, error) {
	db := ar.getDB(tx)
	var result struct {
		Total float64
	}
	if err := db.WithContext(ctx).
		Model(&models.Answer{}).
		Select("COALESCE(SUM(score_awarded), 0) AS total").
		Where("attempt_id = ?", attemptID).
		Scan(&result).Error; err != nil {
		return 0, fmt.Errorf("failed to sum answer scores: %w", err)
	}
	return result.Total, nil
}

func (ar *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ar.db
}
