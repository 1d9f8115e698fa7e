package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/tarik1bosunia/online-exam-management-system/internal/events"
	"github.com/tarik1bosunia/online-exam-management-system/internal/grading"
	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories"
	"github.com/tarik1bosunia/online-exam-management-system/internal/validator"
)

type gradingService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	opts      serviceOptions
}

func NewGradingService(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, opts ...Option) GradingService {
	if publisher == nil {
		publisher = events.NoopEventPublisher{}
	}
	return &gradingService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		opts:      buildOptions(opts),
	}
}

// ===== REVIEW =====

func (s *gradingService) GetReview(ctx context.Context, principal models.Principal, attemptID uint) (*models.AttemptReview, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, s.db, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.StudentID != principal.UserID && !s.opts.policy.IsElevated(principal) {
		return nil, NewPermissionError(principal.UserID, attemptID, "attempt", "review", "not owner")
	}
	// the review carries correct answers; students only see it once submitted
	if !attempt.IsSubmitted() && !s.opts.policy.IsElevated(principal) {
		return nil, ErrAttemptNotSubmitted
	}

	return s.buildReview(ctx, s.db, attempt)
}

// ===== MANUAL GRADING =====

// ManualGrade overwrites one answer's score on a submitted attempt and
// recomputes the attempt total from every answer row. Scores above the
// question's max score are kept.
func (s *gradingService) ManualGrade(ctx context.Context, principal models.Principal, attemptID, questionID uint, score float64) (*models.AttemptReview, error) {
	s.logger.Info("Manually grading answer",
		"attempt_id", attemptID,
		"question_id", questionID,
		"score", score,
		"grader_id", principal.UserID)

	if !s.opts.policy.IsElevated(principal) {
		return nil, NewPermissionError(principal.UserID, attemptID, "attempt", "grade", "elevated role required")
	}
	if score < 0 {
		return nil, NewValidationError("score", "must not be negative", score)
	}

	var (
		review *models.AttemptReview
		total  float64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempt, err := s.repo.Attempt().GetByIDForUpdate(ctx, tx, attemptID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAttemptNotFound
			}
			return fmt.Errorf("failed to get attempt: %w", err)
		}
		if !attempt.IsSubmitted() {
			return ErrAttemptNotSubmitted
		}

		onExam, err := s.repo.Exam().HasQuestion(ctx, tx, attempt.ExamID, questionID)
		if err != nil {
			return err
		}
		if !onExam {
			return ErrQuestionNotFound
		}
		question, err := s.repo.Question().GetByID(ctx, tx, questionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to get question: %w", err)
		}

		answer, err := s.repo.Answer().GetByAttemptAndQuestion(ctx, tx, attemptID, questionID)
		if err != nil {
			if !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to get answer: %w", err)
			}
			answer = &models.Answer{AttemptID: attemptID, QuestionID: questionID}
			if err := s.repo.Answer().Create(ctx, tx, answer); err != nil {
				return err
			}
		}

		gradedAt := s.opts.now()
		graderID := principal.UserID
		answer.ScoreAwarded = score
		answer.IsCorrect = score == question.MaxScore
		answer.IsGraded = true
		answer.GradedBy = &graderID
		answer.GradedAt = &gradedAt
		if err := s.repo.Answer().UpdateGrade(ctx, tx, answer); err != nil {
			return err
		}

		total, err = s.repo.Answer().SumScores(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if err := s.repo.Attempt().UpdateTotalScore(ctx, tx, attemptID, total); err != nil {
			return err
		}
		attempt.TotalScore = total

		review, err = s.buildReview(ctx, tx, attempt)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Answer graded",
		"attempt_id", attemptID,
		"question_id", questionID,
		"total_score", total)

	if err := s.publisher.Publish(ctx, events.NewEvent(events.AnswerGraded, events.AnswerGradedEvent{
		AttemptID:    attemptID,
		QuestionID:   questionID,
		GraderID:     principal.UserID,
		ScoreAwarded: score,
		TotalScore:   total,
	})); err != nil {
		s.logger.Error("Failed to publish event", "event_type", events.AnswerGraded, "error", err)
	}

	return review, nil
}

// buildReview renders one item per current exam question; questions without
// an answer row show as unanswered.
func (s *gradingService) buildReview(ctx context.Context, tx *gorm.DB, attempt *models.Attempt) (*models.AttemptReview, error) {
	exam, err := s.repo.Exam().GetByID(ctx, tx, attempt.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	questions, err := s.repo.Exam().LoadQuestions(ctx, tx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam questions: %w", err)
	}

	answers, err := s.repo.Answer().GetByAttempt(ctx, tx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}
	byQuestion := make(map[uint]*models.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	items := make([]models.ReviewItem, 0, len(questions))
	for _, q := range questions {
		item := models.ReviewItem{
			QuestionID:      q.ID,
			Title:           q.Title,
			Description:     q.Description,
			Type:            q.Type,
			Options:         nonNilStrings(q.Options),
			CorrectAnswers:  nonNilStrings(q.CorrectAnswers),
			MaxScore:        q.MaxScore,
			SelectedOptions: []string{},
		}
		if a, ok := byQuestion[q.ID]; ok {
			item.SelectedOptions = nonNilStrings(a.SelectedOptions)
			item.TextAnswer = a.TextAnswer
			item.ScoreAwarded = a.ScoreAwarded
			item.IsCorrect = a.IsCorrect
			item.IsGraded = a.IsGraded
		}
		items = append(items, item)
	}

	return &models.AttemptReview{
		AttemptID:        attempt.ID,
		ExamID:           exam.ID,
		ExamTitle:        exam.Title,
		StudentID:        attempt.StudentID,
		Status:           attempt.Status,
		SubmittedAt:      attempt.SubmittedAt,
		TotalScore:       attempt.TotalScore,
		MaxPossibleScore: grading.MaxPossible(questions),
		Items:            items,
	}, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
