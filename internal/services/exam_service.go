package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories"
	"github.com/tarik1bosunia/online-exam-management-system/internal/validator"
)

type examService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	opts      serviceOptions
}

func NewExamService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, opts ...Option) ExamService {
	return &examService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		opts:      buildOptions(opts),
	}
}

func (s *examService) Create(ctx context.Context, principal models.Principal, req *CreateExamRequest) (*models.Exam, error) {
	if !s.opts.policy.IsElevated(principal) {
		return nil, NewPermissionError(principal.UserID, 0, "exam", "create", "elevated role required")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam := &models.Exam{
		Title:           req.Title,
		Description:     req.Description,
		StartTime:       req.StartTime.UTC(),
		EndTime:         req.EndTime.UTC(),
		DurationMinutes: req.DurationMinutes,
		IsPublished:     req.IsPublished,
	}
	if err := s.repo.Exam().Create(ctx, s.db, exam); err != nil {
		return nil, err
	}

	s.logger.Info("Exam created", "exam_id", exam.ID, "created_by", principal.UserID)
	return exam, nil
}

func (s *examService) Update(ctx context.Context, principal models.Principal, id uint, req *UpdateExamRequest) (*models.Exam, error) {
	if !s.opts.policy.IsElevated(principal) {
		return nil, NewPermissionError(principal.UserID, id, "exam", "update", "elevated role required")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = req.Description
	}
	if req.StartTime != nil {
		exam.StartTime = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		exam.EndTime = req.EndTime.UTC()
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.IsPublished != nil {
		exam.IsPublished = *req.IsPublished
	}
	if !exam.EndTime.After(exam.StartTime) {
		return nil, NewValidationError("end_time", "must be after start_time", exam.EndTime)
	}

	if err := s.repo.Exam().Update(ctx, s.db, exam); err != nil {
		return nil, err
	}

	s.logger.Info("Exam updated", "exam_id", id, "is_published", exam.IsPublished)
	return exam, nil
}

// Get hides unpublished exams from non-elevated principals.
func (s *examService) Get(ctx context.Context, principal models.Principal, id uint) (*models.ExamSummary, error) {
	exam, err := s.getExam(ctx, id)
	if err != nil {
		return nil, err
	}
	elevated := s.opts.policy.IsElevated(principal)
	if !exam.IsPublished && !elevated {
		return nil, ErrExamNotFound
	}

	summaries, err := s.enrich(ctx, principal, []*models.Exam{exam}, elevated)
	if err != nil {
		return nil, err
	}
	return summaries[0], nil
}

func (s *examService) List(ctx context.Context, principal models.Principal, page Page) (*ExamListResponse, error) {
	elevated := s.opts.policy.IsElevated(principal)

	exams, total, err := s.repo.Exam().List(ctx, s.db, repositories.ExamFilters{
		PublishedOnly: !elevated,
		Window:        page.window("start_time"),
	})
	if err != nil {
		return nil, err
	}

	summaries, err := s.enrich(ctx, principal, exams, elevated)
	if err != nil {
		return nil, err
	}

	return &ExamListResponse{
		Exams:  summaries,
		Total:  total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, nil
}

// enrich adds question counts, and for students their attempt status. The
// two lookups are independent and run concurrently.
func (s *examService) enrich(ctx context.Context, principal models.Principal, exams []*models.Exam, elevated bool) ([]*models.ExamSummary, error) {
	ids := make([]uint, len(exams))
	for i, e := range exams {
		ids[i] = e.ID
	}

	var (
		counts   map[uint]int
		attempts map[uint]*models.Attempt
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.repo.Exam().CountQuestions(gctx, s.db, ids)
		return err
	})
	if !elevated {
		g.Go(func() error {
			rows, err := s.repo.Attempt().GetByStudent(gctx, s.db, principal.UserID)
			if err != nil {
				return err
			}
			attempts = make(map[uint]*models.Attempt, len(rows))
			for _, a := range rows {
				attempts[a.ExamID] = a
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load exam details: %w", err)
	}

	out := make([]*models.ExamSummary, 0, len(exams))
	for _, e := range exams {
		summary := &models.ExamSummary{
			Exam:          *e,
			QuestionCount: counts[e.ID],
		}
		if !elevated {
			summary.AttemptStatus = models.ExamNotAttempted
			if a, ok := attempts[e.ID]; ok {
				id := a.ID
				summary.AttemptStatus = string(a.Status)
				summary.AttemptID = &id
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

// ===== QUESTION MEMBERSHIP =====

func (s *examService) AddQuestions(ctx context.Context, principal models.Principal, examID uint, questionIDs []uint) (*AddQuestionsResponse, error) {
	if !s.opts.policy.IsElevated(principal) {
		return nil, NewPermissionError(principal.UserID, examID, "exam", "add_questions", "elevated role required")
	}
	if err := s.validator.Validate(&validator.ExamQuestionsRequest{QuestionIDs: questionIDs}); err != nil {
		return nil, err
	}
	if _, err := s.getExam(ctx, examID); err != nil {
		return nil, err
	}

	added, err := s.repo.Exam().AddQuestions(ctx, s.db, examID, questionIDs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Questions added to exam",
		"exam_id", examID,
		"requested", len(questionIDs),
		"added", added)
	return &AddQuestionsResponse{ExamID: examID, Added: added}, nil
}

func (s *examService) RemoveQuestion(ctx context.Context, principal models.Principal, examID, questionID uint) error {
	if !s.opts.policy.IsElevated(principal) {
		return NewPermissionError(principal.UserID, examID, "exam", "remove_question", "elevated role required")
	}
	if _, err := s.getExam(ctx, examID); err != nil {
		return err
	}

	if err := s.repo.Exam().RemoveQuestion(ctx, s.db, examID, questionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return err
	}

	s.logger.Info("Question removed from exam", "exam_id", examID, "question_id", questionID)
	return nil
}

// GetQuestions returns full question rows, correct answers included.
func (s *examService) GetQuestions(ctx context.Context, principal models.Principal, examID uint) ([]models.Question, error) {
	if !s.opts.policy.IsElevated(principal) {
		return nil, NewPermissionError(principal.UserID, examID, "exam", "view_questions", "elevated role required")
	}
	if _, err := s.getExam(ctx, examID); err != nil {
		return nil, err
	}
	return s.repo.Exam().GetQuestions(ctx, s.db, examID)
}

func (s *examService) getExam(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}
