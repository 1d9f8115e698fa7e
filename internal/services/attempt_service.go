package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"

	"github.com/tarik1bosunia/online-exam-management-system/internal/events"
	"github.com/tarik1bosunia/online-exam-management-system/internal/grading"
	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories"
	"github.com/tarik1bosunia/online-exam-management-system/internal/validator"
)

// errSubmitLost aborts a submit transaction that found the attempt already
// claimed by a concurrent request.
var errSubmitLost = errors.New("attempt submitted concurrently")

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	opts      serviceOptions
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, opts ...Option) AttemptService {
	if publisher == nil {
		publisher = events.NoopEventPublisher{}
	}
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		opts:      buildOptions(opts),
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) StartOrResume(ctx context.Context, principal models.Principal, examID uint) (*models.AttemptState, error) {
	s.logger.Info("Starting or resuming attempt",
		"exam_id", examID,
		"student_id", principal.UserID)

	exam, err := s.repo.Exam().GetByID(ctx, s.db, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if !exam.IsPublished {
		return nil, ErrExamNotFound
	}

	now := s.opts.now()
	attempt := &models.Attempt{
		StudentID: principal.UserID,
		ExamID:    examID,
		Status:    models.AttemptInProgress,
		StartedAt: now,
	}
	created, err := s.repo.Attempt().CreateIfAbsent(ctx, s.db, attempt)
	if err != nil {
		return nil, fmt.Errorf("failed to start attempt: %w", err)
	}

	if attempt.IsSubmitted() {
		return nil, ErrAttemptAlreadySubmitted
	}

	questions, err := s.repo.Exam().GetQuestions(ctx, s.db, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam questions: %w", err)
	}

	answers, err := s.repo.Answer().GetByAttempt(ctx, s.db, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get saved answers: %w", err)
	}

	state, err := s.buildAttemptState(attempt, exam, questions, answers, now)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("Attempt started",
			"attempt_id", attempt.ID,
			"exam_id", examID,
			"student_id", principal.UserID)

		s.publish(ctx, events.NewEvent(events.AttemptStarted, events.AttemptStartedEvent{
			AttemptID: attempt.ID,
			ExamID:    examID,
			StudentID: principal.UserID,
			StartedAt: attempt.StartedAt,
		}))
	} else {
		s.logger.Info("Resuming existing attempt", "attempt_id", attempt.ID)
	}

	return state, nil
}

func (s *attemptService) SaveAnswer(ctx context.Context, principal models.Principal, attemptID uint, req *SaveAnswerRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := s.repo.Attempt().GetByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}
		if attempt.StudentID != principal.UserID {
			return ErrAttemptNotFound
		}
		if attempt.IsSubmitted() {
			return ErrAttemptAlreadySubmitted
		}

		var expected models.AnswerKind
		question, err := s.repo.Question().GetByID(ctx, tx, req.QuestionID)
		switch {
		case err == nil:
			expected = models.KindFor(question.Type)
		case !repositories.IsNotFoundError(err):
			return fmt.Errorf("failed to get question: %w", err)
		}

		kind := req.ResolveKind(expected)
		if question != nil && !question.Type.Accepts(kind) {
			return NewValidationError("kind",
				fmt.Sprintf("%s answers are not accepted for %s questions", kind, question.Type), kind)
		}

		answer := &models.Answer{
			AttemptID:  attemptID,
			QuestionID: req.QuestionID,
		}
		req.ToPayload(kind).Apply(answer)

		return s.repo.Answer().Upsert(ctx, tx, answer)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Answer saved",
		"attempt_id", attemptID,
		"question_id", req.QuestionID)
	return nil
}

func (s *attemptService) Submit(ctx context.Context, principal models.Principal, attemptID uint) (*models.AttemptResult, error) {
	s.logger.Info("Submitting attempt",
		"attempt_id", attemptID,
		"student_id", principal.UserID)

	attempt, err := s.repo.Attempt().GetByID(ctx, s.db, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.StudentID != principal.UserID {
		return nil, ErrAttemptNotFound
	}
	if attempt.IsSubmitted() {
		return s.storedResult(ctx, attempt)
	}

	var maxPossible float64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.repo.Attempt().GetByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			return fmt.Errorf("failed to lock attempt: %w", err)
		}
		if locked.IsSubmitted() {
			return errSubmitLost
		}

		questions, err := s.repo.Exam().LoadQuestions(ctx, tx, attempt.ExamID)
		if err != nil {
			return fmt.Errorf("failed to get exam questions: %w", err)
		}
		maxPossible = grading.MaxPossible(questions)

		byID := make(map[uint]*models.Question, len(questions))
		for i := range questions {
			byID[questions[i].ID] = &questions[i]
		}

		answers, err := s.repo.Answer().GetByAttempt(ctx, tx, attemptID)
		if err != nil {
			return fmt.Errorf("failed to get answers: %w", err)
		}

		graded := make([]models.Answer, 0, len(answers))
		for i := range answers {
			answer := &answers[i]
			question, ok := byID[answer.QuestionID]
			if !ok {
				continue
			}

			outcome := grading.Grade(question, answer)
			answer.ScoreAwarded = outcome.Score
			answer.IsCorrect = outcome.IsCorrect
			answer.IsGraded = outcome.IsGraded
			if err := s.repo.Answer().UpdateGrade(ctx, tx, answer); err != nil {
				return fmt.Errorf("failed to grade answer for question %d: %w", answer.QuestionID, err)
			}
			graded = append(graded, *answer)
		}
		total := grading.Total(graded)

		submittedAt := s.opts.now()
		claimed, err := s.repo.Attempt().MarkSubmitted(ctx, tx, attemptID, submittedAt, total)
		if err != nil {
			return err
		}
		if !claimed {
			return errSubmitLost
		}

		attempt.Status = models.AttemptSubmitted
		attempt.SubmittedAt = &submittedAt
		attempt.TotalScore = total
		return nil
	})
	if errors.Is(err, errSubmitLost) {
		s.logger.Info("Attempt already submitted by a concurrent request", "attempt_id", attemptID)
		stored, err := s.repo.Attempt().GetByID(ctx, s.db, attemptID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload attempt: %w", err)
		}
		return s.storedResult(ctx, stored)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to submit attempt: %w", err)
	}

	s.logger.Info("Attempt submitted",
		"attempt_id", attemptID,
		"total_score", attempt.TotalScore,
		"max_possible_score", maxPossible)

	s.publish(ctx, events.NewEvent(events.AttemptSubmitted, events.AttemptSubmittedEvent{
		AttemptID:        attemptID,
		ExamID:           attempt.ExamID,
		StudentID:        attempt.StudentID,
		SubmittedAt:      *attempt.SubmittedAt,
		TotalScore:       attempt.TotalScore,
		MaxPossibleScore: maxPossible,
	}))

	return &models.AttemptResult{
		AttemptID:        attemptID,
		Status:           attempt.Status,
		SubmittedAt:      attempt.SubmittedAt,
		TotalScore:       attempt.TotalScore,
		MaxPossibleScore: maxPossible,
	}, nil
}

// ===== HISTORY =====

func (s *attemptService) ListMyAttempts(ctx context.Context, principal models.Principal, page Page) (*AttemptListResponse, error) {
	studentID := principal.UserID
	return s.list(ctx, repositories.AttemptFilters{
		StudentID: &studentID,
		Window:    page.window("started_at"),
	})
}

func (s *attemptService) ListExamAttempts(ctx context.Context, principal models.Principal, examID uint, page Page) (*AttemptListResponse, error) {
	if !s.opts.policy.IsElevated(principal) {
		return nil, NewPermissionError(principal.UserID, examID, "exam", "list_attempts", "elevated role required")
	}

	if _, err := s.repo.Exam().GetByID(ctx, s.db, examID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	return s.list(ctx, repositories.AttemptFilters{
		ExamID: &examID,
		Window: page.window("total_score"),
	})
}

func (s *attemptService) list(ctx context.Context, filters repositories.AttemptFilters) (*AttemptListResponse, error) {
	rows, total, err := s.repo.Attempt().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	examIDs := make([]uint, 0, len(rows))
	for _, r := range rows {
		examIDs = append(examIDs, r.ExamID)
	}
	maxScores, err := s.repo.Exam().MaxPossibleScores(ctx, s.db, examIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to compute max scores: %w", err)
	}

	summaries := make([]*models.AttemptSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, &models.AttemptSummary{
			ID:               r.ID,
			ExamID:           r.ExamID,
			ExamTitle:        r.ExamTitle,
			StudentID:        r.StudentID,
			StartedAt:        r.StartedAt,
			SubmittedAt:      r.SubmittedAt,
			Status:           r.Status,
			TotalScore:       r.TotalScore,
			MaxPossibleScore: maxScores[r.ExamID],
		})
	}

	return &AttemptListResponse{Attempts: summaries, Total: total}, nil
}

// ===== HELPERS =====

// storedResult answers a repeated submit without re-grading. Only the max
// possible score is recomputed.
func (s *attemptService) storedResult(ctx context.Context, attempt *models.Attempt) (*models.AttemptResult, error) {
	questions, err := s.repo.Exam().LoadQuestions(ctx, s.db, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam questions: %w", err)
	}
	return &models.AttemptResult{
		AttemptID:        attempt.ID,
		Status:           attempt.Status,
		SubmittedAt:      attempt.SubmittedAt,
		TotalScore:       attempt.TotalScore,
		MaxPossibleScore: grading.MaxPossible(questions),
	}, nil
}

func (s *attemptService) buildAttemptState(attempt *models.Attempt, exam *models.Exam, questions []models.Question, answers []models.Answer, now time.Time) (*models.AttemptState, error) {
	public := make([]models.QuestionPublic, 0, len(questions))
	if err := copier.Copy(&public, &questions); err != nil {
		return nil, fmt.Errorf("failed to project questions: %w", err)
	}
	for i := range public {
		if public[i].Options == nil {
			public[i].Options = []string{}
		}
	}

	saved := make([]models.SavedAnswer, 0, len(answers))
	for _, a := range answers {
		saved = append(saved, models.SavedAnswer{
			QuestionID:      a.QuestionID,
			SelectedOptions: a.SelectedOptions,
			TextAnswer:      a.TextAnswer,
		})
	}

	return &models.AttemptState{
		AttemptID:        attempt.ID,
		ExamID:           exam.ID,
		ExamTitle:        exam.Title,
		Status:           attempt.Status,
		StartedAt:        attempt.StartedAt,
		DurationMinutes:  exam.DurationMinutes,
		RemainingSeconds: remainingSeconds(exam, attempt.StartedAt, now),
		Questions:        public,
		SavedAnswers:     saved,
	}, nil
}

// remainingSeconds is advisory; zero never blocks writes.
func remainingSeconds(exam *models.Exam, startedAt, now time.Time) int {
	remaining := exam.Duration() - now.Sub(startedAt)
	if remaining < 0 {
		return 0
	}
	return int(remaining / time.Second)
}

func (s *attemptService) publish(ctx context.Context, event *events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}
