package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tarik1bosunia/online-exam-management-system/internal/events"
	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
)

func TestNewGradingService(t *testing.T) {
	svc := NewGradingService(nil, nil, nil, nil, nil)
	if svc == nil {
		t.Fatal("NewGradingService() returned nil")
	}
}

func TestGradingService_ManualGrade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q1, _ := scenarioQuestions()
	essay := &models.Question{Title: "Explain addition", Type: models.Text, MaxScore: 5}
	exam := env.seedExam(t, true, q1, essay)

	state, _ := env.attempts().StartOrResume(ctx, student, exam.ID)
	_ = env.attempts().SaveAnswer(ctx, student, state.AttemptID, choice(q1.ID, "4"))
	_ = env.attempts().SaveAnswer(ctx, student, state.AttemptID, text(essay.ID, "you count up"))

	result, err := env.attempts().Submit(ctx, student, state.AttemptID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.TotalScore != 1 || result.MaxPossibleScore != 6 {
		t.Fatalf("result = total %v / max %v, want 1 / 6", result.TotalScore, result.MaxPossibleScore)
	}

	review, err := env.grading().GetReview(ctx, teacher, state.AttemptID)
	if err != nil {
		t.Fatalf("GetReview() error = %v", err)
	}
	if item := reviewItem(t, review, essay.ID); item.IsGraded {
		t.Errorf("text answer should await manual grading: %+v", item)
	}

	review, err = env.grading().ManualGrade(ctx, teacher, state.AttemptID, essay.ID, 3)
	if err != nil {
		t.Fatalf("ManualGrade() error = %v", err)
	}
	if review.TotalScore != 4 {
		t.Errorf("TotalScore = %v, want 4", review.TotalScore)
	}
	item := reviewItem(t, review, essay.ID)
	if item.ScoreAwarded != 3 || !item.IsGraded || item.IsCorrect {
		t.Errorf("graded item = %+v", item)
	}

	// regrading replaces the score instead of adding to it
	review, err = env.grading().ManualGrade(ctx, teacher, state.AttemptID, essay.ID, 5)
	if err != nil {
		t.Fatalf("second ManualGrade() error = %v", err)
	}
	if review.TotalScore != 6 {
		t.Errorf("TotalScore = %v, want 6", review.TotalScore)
	}
	if item := reviewItem(t, review, essay.ID); !item.IsCorrect {
		t.Errorf("full marks should be correct: %+v", item)
	}

	stored, err := env.repo.Answer().GetByAttemptAndQuestion(ctx, nil, state.AttemptID, essay.ID)
	if err != nil {
		t.Fatalf("GetByAttemptAndQuestion() error = %v", err)
	}
	if stored.GradedBy == nil || *stored.GradedBy != teacher.UserID || stored.GradedAt == nil {
		t.Errorf("grader not recorded: %+v", stored)
	}

	graded := env.publisher.EventsOfType(events.AnswerGraded)
	if len(graded) != 2 {
		t.Fatalf("answer.graded events = %d, want 2", len(graded))
	}
	payload, ok := graded[1].Data.(events.AnswerGradedEvent)
	if !ok || payload.TotalScore != 6 || payload.GraderID != teacher.UserID {
		t.Errorf("event payload = %#v", graded[1].Data)
	}
}

func TestGradingService_ManualGradeUnanswered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	essay := &models.Question{Title: "Explain", Type: models.Text, MaxScore: 5}
	exam := env.seedExam(t, true, essay)

	state, _ := env.attempts().StartOrResume(ctx, student, exam.ID)
	if _, err := env.attempts().Submit(ctx, student, state.AttemptID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	review, err := env.grading().ManualGrade(ctx, teacher, state.AttemptID, essay.ID, 2)
	if err != nil {
		t.Fatalf("ManualGrade() error = %v", err)
	}
	if review.TotalScore != 2 {
		t.Errorf("TotalScore = %v, want 2", review.TotalScore)
	}
	if item := reviewItem(t, review, essay.ID); item.TextAnswer != nil || item.ScoreAwarded != 2 {
		t.Errorf("item = %+v", item)
	}
}

func TestGradingService_ManualGradeErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q1, q2 := scenarioQuestions()
	exam := env.seedExam(t, true, q1)
	if err := env.questions().CreateBatch(ctx, teacher, []*models.Question{q2}); err != nil {
		t.Fatalf("create question: %v", err)
	}

	state, _ := env.attempts().StartOrResume(ctx, student, exam.ID)
	if _, err := env.attempts().Submit(ctx, student, state.AttemptID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	pending, _ := env.attempts().StartOrResume(ctx, other, exam.ID)

	tests := []struct {
		name       string
		principal  models.Principal
		attemptID  uint
		questionID uint
		score      float64
		check      func(error) bool
	}{
		{
			name:      "student forbidden",
			principal: student, attemptID: state.AttemptID, questionID: q1.ID, score: 1,
			check: func(err error) bool { return errors.Is(err, ErrForbidden) },
		},
		{
			name:      "negative score",
			principal: teacher, attemptID: state.AttemptID, questionID: q1.ID, score: -1,
			check: func(err error) bool {
				var ve ValidationErrors
				return errors.As(err, &ve)
			},
		},
		{
			name:      "missing attempt",
			principal: teacher, attemptID: 9999, questionID: q1.ID, score: 1,
			check: func(err error) bool { return errors.Is(err, ErrAttemptNotFound) },
		},
		{
			name:      "question not on exam",
			principal: teacher, attemptID: state.AttemptID, questionID: q2.ID, score: 1,
			check: func(err error) bool { return errors.Is(err, ErrQuestionNotFound) },
		},
		{
			name:      "attempt in progress",
			principal: teacher, attemptID: pending.AttemptID, questionID: q1.ID, score: 1,
			check: func(err error) bool { return errors.Is(err, ErrAttemptNotSubmitted) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.grading().ManualGrade(ctx, tt.principal, tt.attemptID, tt.questionID, tt.score)
			if !tt.check(err) {
				t.Errorf("ManualGrade() error = %v", err)
			}
		})
	}

	if got := len(env.publisher.EventsOfType(events.AnswerGraded)); got != 0 {
		t.Errorf("answer.graded events = %d, want 0", got)
	}
}

func TestGradingService_GetReviewAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q1, q2 := scenarioQuestions()
	exam := env.seedExam(t, true, q1, q2)

	state, _ := env.attempts().StartOrResume(ctx, student, exam.ID)
	_ = env.attempts().SaveAnswer(ctx, student, state.AttemptID, choice(q1.ID, "4"))
	if _, err := env.attempts().Submit(ctx, student, state.AttemptID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	tests := []struct {
		name      string
		principal models.Principal
		attemptID uint
		wantErr   error
	}{
		{"owner", student, state.AttemptID, nil},
		{"teacher", teacher, state.AttemptID, nil},
		{"other student", other, state.AttemptID, ErrForbidden},
		{"missing attempt", teacher, 9999, ErrAttemptNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			review, err := env.grading().GetReview(ctx, tt.principal, tt.attemptID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetReview() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(review.Items) != 2 || review.MaxPossibleScore != 3 {
				t.Errorf("review = %+v", review)
			}
			unanswered := reviewItem(t, review, q2.ID)
			if unanswered.IsGraded || unanswered.SelectedOptions == nil {
				t.Errorf("unanswered item = %+v", unanswered)
			}
		})
	}
}

func TestGradingService_ReviewBeforeSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q1, q2 := scenarioQuestions()
	exam := env.seedExam(t, true, q1, q2)

	state, _ := env.attempts().StartOrResume(ctx, student, exam.ID)

	if _, err := env.grading().GetReview(ctx, student, state.AttemptID); !errors.Is(err, ErrAttemptNotSubmitted) {
		t.Fatalf("owner GetReview() error = %v, want ErrAttemptNotSubmitted", err)
	}

	review, err := env.grading().GetReview(ctx, teacher, state.AttemptID)
	if err != nil {
		t.Fatalf("teacher GetReview() error = %v", err)
	}
	if review.Status != models.AttemptInProgress || len(reviewItem(t, review, q2.ID).CorrectAnswers) != 2 {
		t.Errorf("teacher review = %+v", review)
	}
}

func TestGradingService_ManualGradeBeforeSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	essay := &models.Question{Title: "Explain", Type: models.Text, MaxScore: 5}
	exam := env.seedExam(t, true, essay)

	state, _ := env.attempts().StartOrResume(ctx, student, exam.ID)
	if err := env.attempts().SaveAnswer(ctx, student, state.AttemptID, text(essay.ID, "because")); err != nil {
		t.Fatalf("SaveAnswer() error = %v", err)
	}

	if _, err := env.grading().ManualGrade(ctx, teacher, state.AttemptID, essay.ID, 3); !errors.Is(err, ErrAttemptNotSubmitted) {
		t.Fatalf("ManualGrade() before submit error = %v, want ErrAttemptNotSubmitted", err)
	}
	if _, err := env.attempts().Submit(ctx, student, state.AttemptID); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	review, err := env.grading().ManualGrade(ctx, teacher, state.AttemptID, essay.ID, 3)
	if err != nil {
		t.Fatalf("ManualGrade() error = %v", err)
	}
	item := reviewItem(t, review, essay.ID)
	if review.TotalScore != 3 || item.ScoreAwarded != 3 || !item.IsGraded {
		t.Errorf("total %v, item %+v", review.TotalScore, item)
	}
	if got := len(env.publisher.EventsOfType(events.AnswerGraded)); got != 1 {
		t.Errorf("answer.graded events = %d, want 1", got)
	}
}
