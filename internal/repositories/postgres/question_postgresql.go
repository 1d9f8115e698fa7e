package postgres

import (
	"context"
	"fmt"

	"github.com/tarik1bosunia/online-exam-management-system/internal/cache"
	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories"
	"gorm.io/gorm"
)

var questionSortColumns = map[string]string{
	"id":         "id",
	"created_at": "created_at",
	"title":      "title",
	"type":       "type",
	"max_score":  "max_score",
}

type QuestionPostgreSQL struct {
	db    *gorm.DB
	cache *cache.Store
}

func NewQuestionPostgreSQL(db *gorm.DB, store *cache.Store) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db, cache: store}
}

// ===== BASIC CRUD OPERATIONS =====

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// GetByID retrieves a question by ID with caching
func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	return cache.Fetch(ctx, q.cache, cache.QuestionKey(id), func(ctx context.Context) (*models.Question, error) {
		var question models.Question
		if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get question %d: %w", id, err)
		}
		return &question, nil
	})
}

// ===== BULK OPERATIONS =====

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (q *QuestionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	var total int64

	query := db.WithContext(ctx).Model(&models.Question{})
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}

	// insertion order by default keeps paging stable across imports
	if err := query.Scopes(window(filters.Window, questionSortColumns, "id")).Find(&questions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	return questions, total, nil
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
