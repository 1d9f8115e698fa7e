package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/tarik1bosunia/online-exam-management-system/internal/importer"
	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories"
	"github.com/tarik1bosunia/online-exam-management-system/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	opts      serviceOptions
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, opts ...Option) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		opts:      buildOptions(opts),
	}
}

func (s *questionService) Create(ctx context.Context, principal models.Principal, req *CreateQuestionRequest) (*models.Question, error) {
	if !s.opts.policy.IsElevated(principal) {
		return nil, NewPermissionError(principal.UserID, 0, "question", "create", "elevated role required")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question := req.ToModel()
	if err := s.repo.Question().Create(ctx, s.db, question); err != nil {
		return nil, err
	}

	s.logger.Info("Question created",
		"question_id", question.ID,
		"type", question.Type,
		"created_by", principal.UserID)
	return question, nil
}

// CreateBatch stores every question or none.
func (s *questionService) CreateBatch(ctx context.Context, principal models.Principal, questions []*models.Question) error {
	if !s.opts.policy.IsElevated(principal) {
		return NewPermissionError(principal.UserID, 0, "question", "create", "elevated role required")
	}
	if len(questions) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Question().CreateBatch(ctx, tx, questions)
	})
}

func (s *questionService) Get(ctx context.Context, principal models.Principal, id uint) (*models.Question, error) {
	if !s.opts.policy.IsElevated(principal) {
		return nil, NewPermissionError(principal.UserID, id, "question", "view", "elevated role required")
	}

	question, err := s.repo.Question().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

func (s *questionService) List(ctx context.Context, principal models.Principal, page Page) (*QuestionListResponse, error) {
	if !s.opts.policy.IsElevated(principal) {
		return nil, NewPermissionError(principal.UserID, 0, "question", "list", "elevated role required")
	}

	questions, total, err := s.repo.Question().List(ctx, s.db, repositories.QuestionFilters{
		Window: repositories.Window{Limit: page.Limit, Offset: page.Offset},
	})
	if err != nil {
		return nil, err
	}

	return &QuestionListResponse{
		Questions: questions,
		Total:     total,
		Limit:     page.Limit,
		Offset:    page.Offset,
	}, nil
}

// Import reads a workbook, validates each row and stores the valid ones in a
// single batch. Row failures are reported as "Row N: message" and do not stop
// the other rows. When no row is valid and some failed, an *ImportError is
// returned.
func (s *questionService) Import(ctx context.Context, principal models.Principal, r io.Reader) (*models.ImportResult, error) {
	if !s.opts.policy.IsElevated(principal) {
		return nil, NewPermissionError(principal.UserID, 0, "question", "import", "elevated role required")
	}

	rows, err := importer.ReadQuestions(r)
	if err != nil {
		return nil, NewValidationError("file", err.Error(), nil)
	}

	var (
		valid     []*models.Question
		rowErrors []string
	)
	for _, row := range rows {
		if row.Err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %s", row.Number, row.Err))
			continue
		}
		if err := s.validator.Validate(&row.Question); err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("Row %d: %s", row.Number, rowMessage(err)))
			continue
		}
		valid = append(valid, row.Question.ToModel())
	}

	if len(valid) == 0 && len(rowErrors) > 0 {
		return nil, &ImportError{Errors: rowErrors}
	}

	if err := s.CreateBatch(ctx, principal, valid); err != nil {
		return nil, fmt.Errorf("failed to store imported questions: %w", err)
	}

	s.logger.Info("Questions imported",
		"imported", len(valid),
		"failed", len(rowErrors),
		"imported_by", principal.UserID)

	if rowErrors == nil {
		rowErrors = []string{}
	}
	return &models.ImportResult{ImportedCount: len(valid), Errors: rowErrors}, nil
}

func rowMessage(err error) string {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return strings.Join(ve.Messages(), "; ")
	}
	return err.Error()
}
