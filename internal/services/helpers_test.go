package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tarik1bosunia/online-exam-management-system/internal/events"
	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories"
	"github.com/tarik1bosunia/online-exam-management-system/internal/repositories/postgres"
	"github.com/tarik1bosunia/online-exam-management-system/internal/testutil"
	"github.com/tarik1bosunia/online-exam-management-system/internal/validator"
)

var (
	student = models.Principal{UserID: "student-1", Role: models.RoleStudent}
	other   = models.Principal{UserID: "student-2", Role: models.RoleStudent}
	teacher = models.Principal{UserID: "teacher-1", Role: models.RoleTeacher}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	db        *gorm.DB
	repo      repositories.Repository
	redis     *redis.Client
	publisher *events.MockEventPublisher
	clock     *fakeClock
	manager   ServiceManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := testutil.NewTestDB(t)
	client, _ := testutil.NewTestRedis(t)
	repo := postgres.New(postgres.Config{DB: db, Redis: client})

	env := &testEnv{
		db:        db,
		repo:      repo,
		redis:     client,
		publisher: events.NewMockEventPublisher(logger),
		clock:     &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	env.manager = NewServiceManager(db, repo, logger, validator.New(), env.publisher, ServiceManagerConfig{
		Policy: DefaultAccessPolicy(),
		Clock:  env.clock.Now,
	})
	if err := env.manager.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return env
}

func (e *testEnv) attempts() AttemptService { return e.manager.Attempt() }
func (e *testEnv) grading() GradingService  { return e.manager.Grading() }
func (e *testEnv) exams() ExamService       { return e.manager.Exam() }
func (e *testEnv) questions() QuestionService {
	return e.manager.Question()
}

// seedExam creates a published exam holding the given questions.
func (e *testEnv) seedExam(t *testing.T, published bool, questions ...*models.Question) *models.Exam {
	t.Helper()
	ctx := context.Background()

	start := e.clock.Now().Add(-time.Hour)
	exam, err := e.exams().Create(ctx, teacher, &CreateExamRequest{
		Title:           "Arithmetic",
		StartTime:       start,
		EndTime:         start.Add(24 * time.Hour),
		DurationMinutes: 30,
		IsPublished:     published,
	})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}

	if len(questions) == 0 {
		return exam
	}
	if err := e.questions().CreateBatch(ctx, teacher, questions); err != nil {
		t.Fatalf("create questions: %v", err)
	}
	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	if _, err := e.exams().AddQuestions(ctx, teacher, exam.ID, ids); err != nil {
		t.Fatalf("add questions: %v", err)
	}
	return exam
}

// scenarioQuestions returns Q1 single choice {"4"} worth 1 and Q2 multi
// choice {"2","7"} worth 2.
func scenarioQuestions() (*models.Question, *models.Question) {
	q1 := &models.Question{
		Title:          "2 + 2",
		Complexity:     models.DefaultComplexity,
		Type:           models.SingleChoice,
		Options:        []string{"3", "4", "5"},
		CorrectAnswers: []string{"4"},
		MaxScore:       1,
	}
	q2 := &models.Question{
		Title:          "Pick the primes",
		Complexity:     models.DefaultComplexity,
		Type:           models.MultiChoice,
		Options:        []string{"2", "7", "9"},
		CorrectAnswers: []string{"2", "7"},
		MaxScore:       2,
	}
	return q1, q2
}

func choice(questionID uint, selected ...string) *SaveAnswerRequest {
	return &SaveAnswerRequest{QuestionID: questionID, SelectedOptions: selected}
}

func text(questionID uint, s string) *SaveAnswerRequest {
	return &SaveAnswerRequest{QuestionID: questionID, TextAnswer: &s}
}

func reviewItem(t *testing.T, review *models.AttemptReview, questionID uint) models.ReviewItem {
	t.Helper()
	for _, item := range review.Items {
		if item.QuestionID == questionID {
			return item
		}
	}
	t.Fatalf("review has no item for question %d", questionID)
	return models.ReviewItem{}
}
