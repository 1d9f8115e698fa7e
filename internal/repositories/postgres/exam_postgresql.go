package postgres

import (
	"context"
	"fmt"

	"github.com/tarik1bosunia/online-exam-management-system/internal/cache"
	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var examSortColumns = map[string]string{
	"id":         "id",
	"created_at": "created_at",
	"title":      "title",
	"start_time": "start_time",
}

type ExamPostgreSQL struct {
	db    *gorm.DB
	cache *cache.Manager
}

func NewExamPostgreSQL(db *gorm.DB, cm *cache.Manager) repositories.ExamRepository {
	return &ExamPostgreSQL{db: db, cache: cm}
}

// ===== BASIC CRUD OPERATIONS =====

func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

// GetByID retrieves an exam by ID with caching
func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	return cache.Fetch(ctx, e.cache.Exams, cache.ExamKey(id), func(ctx context.Context) (*models.Exam, error) {
		var exam models.Exam
		if err := db.WithContext(ctx).First(&exam, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get exam %d: %w", id, err)
		}
		return &exam, nil
	})
}

func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Save(exam).Error; err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}

	e.cache.ForgetExam(ctx, exam.ID)
	return nil
}

func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	db := e.getDB(tx)
	var exams []*models.Exam
	var total int64

	query := db.WithContext(ctx).Model(&models.Exam{})
	if filters.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count exams: %w", err)
	}

	if err := query.Scopes(window(filters.Window, examSortColumns, "created_at")).Find(&exams).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}

	return exams, total, nil
}

// ===== QUESTION MEMBERSHIP =====

// GetQuestions returns the exam's current question set, ordered by question id.
func (e *ExamPostgreSQL) GetQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]models.Question, error) {
	db := e.getDB(tx)
	return cache.Fetch(ctx, e.cache.Exams, cache.ExamQuestionsKey(examID), func(ctx context.Context) ([]models.Question, error) {
		return e.LoadQuestions(ctx, db, examID)
	})
}

func (e *ExamPostgreSQL) LoadQuestions(ctx context.Context, tx *gorm.DB, examID uint) ([]models.Question, error) {
	db := e.getDB(tx)
	questions := []models.Question{}
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Joins("JOIN exam_questions ON exam_questions.question_id = questions.id").
		Where("exam_questions.exam_id = ?", examID).
		Order("questions.id ASC").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get exam questions: %w", err)
	}
	return questions, nil
}

// AddQuestions links the given questions into the exam. Unknown and already
// linked ids are skipped; the number of new links is returned.
func (e *ExamPostgreSQL) AddQuestions(ctx context.Context, tx *gorm.DB, examID uint, questionIDs []uint) (int, error) {
	questionIDs = uniqueIDs(questionIDs)
	if len(questionIDs) == 0 {
		return 0, nil
	}

	db := e.getDB(tx)

	var existing []uint
	if err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id IN ?", questionIDs).
		Order("id ASC").
		Pluck("id", &existing).Error; err != nil {
		return 0, fmt.Errorf("failed to check questions: %w", err)
	}
	if len(existing) == 0 {
		return 0, nil
	}

	links := make([]models.ExamQuestion, len(existing))
	for i, id := range existing {
		links[i] = models.ExamQuestion{ExamID: examID, QuestionID: id}
	}

	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&links)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to link questions: %w", result.Error)
	}

	e.cache.ForgetExam(ctx, examID)
	return int(result.RowsAffected), nil
}

func (e *ExamPostgreSQL) RemoveQuestion(ctx context.Context, tx *gorm.DB, examID, questionID uint) error {
	db := e.getDB(tx)
	result := db.WithContext(ctx).
		Where("exam_id = ? AND question_id = ?", examID, questionID).
		Delete(&models.ExamQuestion{})
	if result.Error != nil {
		return fmt.Errorf("failed to unlink question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	e.cache.ForgetExam(ctx, examID)
	return nil
}

func (e *ExamPostgreSQL) HasQuestion(ctx context.Context, tx *gorm.DB, examID, questionID uint) (bool, error) {
	db := e.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.ExamQuestion{}).
		Where("exam_id = ? AND question_id = ?", examID, questionID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check exam question: %w", err)
	}
	return count > 0, nil
}

type examAggregate struct {
	ExamID uint
	Count  int
	Total  float64
}

func (e *ExamPostgreSQL) aggregate(ctx context.Context, tx *gorm.DB, examIDs []uint) ([]examAggregate, error) {
	examIDs = uniqueIDs(examIDs)
	if len(examIDs) == 0 {
		return nil, nil
	}

	db := e.getDB(tx)
	var rows []examAggregate
	if err := db.WithContext(ctx).
		Table("exam_questions").
		Select("exam_questions.exam_id AS exam_id, COUNT(*) AS count, COALESCE(SUM(questions.max_score), 0) AS total").
		Joins("JOIN questions ON questions.id = exam_questions.question_id").
		Where("exam_questions.exam_id IN ?", examIDs).
		Group("exam_questions.exam_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate exam questions: %w", err)
	}
	return rows, nil
}

// CountQuestions returns the question count per exam. Exams without
// questions are absent from the map.
func (e *ExamPostgreSQL) CountQuestions(ctx context.Context, tx *gorm.DB, examIDs []uint) (map[uint]int, error) {
	rows, err := e.aggregate(ctx, tx, examIDs)
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int, len(rows))
	for _, r := range rows {
		counts[r.ExamID] = r.Count
	}
	return counts, nil
}

// MaxPossibleScores returns the sum of max scores per exam.
func (e *ExamPostgreSQL) MaxPossibleScores(ctx context.Context, tx *gorm.DB, examIDs []uint) (map[uint]float64, error) {
	rows, err := e.aggregate(ctx, tx, examIDs)
	if err != nil {
		return nil, err
	}
	totals := make(map[uint]float64, len(rows))
	for _, r := range rows {
		totals[r.ExamID] = r.Total
	}
	return totals, nil
}

func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}
