package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tarik1bosunia/online-exam-management-system/internal/cache"
	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories"
)

// Config wires the stores to their connections. Redis is optional; without
// it exam and question reads go straight to the database.
type Config struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// Store is the gorm-backed repositories.Repository.
type Store struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.Manager

	questions repositories.QuestionRepository
	exams     repositories.ExamRepository
	attempts  repositories.AttemptRepository
	answers   repositories.AnswerRepository
}

var _ repositories.Repository = (*Store)(nil)

func New(cfg Config) *Store {
	cm := cache.NewManager(cfg.Redis)
	return &Store{
		db:        cfg.DB,
		redis:     cfg.Redis,
		cache:     cm,
		questions: NewQuestionPostgreSQL(cfg.DB, cm.Questions),
		exams:     NewExamPostgreSQL(cfg.DB, cm),
		attempts:  NewAttemptPostgreSQL(cfg.DB),
		answers:   NewAnswerPostgreSQL(cfg.DB),
	}
}

// Open builds a Store after checking that its connections answer.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DB == nil {
		return nil, errors.New("database connection is required")
	}
	s := New(cfg)
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Question() repositories.QuestionRepository { return s.questions }
func (s *Store) Exam() repositories.ExamRepository         { return s.exams }
func (s *Store) Attempt() repositories.AttemptRepository   { return s.attempts }
func (s *Store) Answer() repositories.AnswerRepository     { return s.answers }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	if s.redis == nil {
		return nil
	}
	return s.cache.Ping(ctx)
}

// Close releases the database pool and the redis client, reporting every
// failure.
func (s *Store) Close() error {
	var errs []error
	if sqlDB, err := s.db.DB(); err != nil {
		errs = append(errs, fmt.Errorf("database handle: %w", err))
	} else if err := sqlDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
