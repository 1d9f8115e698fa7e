package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
)

func TestExamService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		principal models.Principal
		req       CreateExamRequest
		wantErr   bool
	}{
		{
			name:      "valid",
			principal: teacher,
			req:       CreateExamRequest{Title: "Final", StartTime: start, EndTime: start.Add(2 * time.Hour), DurationMinutes: 60},
		},
		{
			name:      "end before start",
			principal: teacher,
			req:       CreateExamRequest{Title: "Final", StartTime: start, EndTime: start.Add(-time.Hour), DurationMinutes: 60},
			wantErr:   true,
		},
		{
			name:      "zero duration",
			principal: teacher,
			req:       CreateExamRequest{Title: "Final", StartTime: start, EndTime: start.Add(time.Hour)},
			wantErr:   true,
		},
		{
			name:      "student",
			principal: student,
			req:       CreateExamRequest{Title: "Final", StartTime: start, EndTime: start.Add(2 * time.Hour), DurationMinutes: 60},
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			exam, err := env.exams().Create(ctx, tt.principal, &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Create() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (exam.ID == 0 || exam.IsPublished) {
				t.Errorf("exam = %+v", exam)
			}
		})
	}
}

func TestExamService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	exam := env.seedExam(t, false)

	published := true
	title := "Renamed"
	updated, err := env.exams().Update(ctx, teacher, exam.ID, &UpdateExamRequest{Title: &title, IsPublished: &published})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != title || !updated.IsPublished {
		t.Errorf("updated = %+v", updated)
	}

	early := exam.StartTime.Add(-time.Hour)
	if _, err := env.exams().Update(ctx, teacher, exam.ID, &UpdateExamRequest{EndTime: &early}); err == nil {
		t.Error("Update() should reject end before start")
	}
	if _, err := env.exams().Update(ctx, student, exam.ID, &UpdateExamRequest{Title: &title}); !errors.Is(err, ErrForbidden) {
		t.Errorf("Update(student) error = %v, want %v", err, ErrForbidden)
	}
	if _, err := env.exams().Update(ctx, teacher, 9999, &UpdateExamRequest{Title: &title}); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("Update(missing) error = %v, want %v", err, ErrExamNotFound)
	}
}

func TestExamService_ListVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q1, q2 := scenarioQuestions()
	open := env.seedExam(t, true, q1, q2)
	env.clock.Advance(time.Hour)
	later := env.seedExam(t, true)
	draft := env.seedExam(t, false)

	state, _ := env.attempts().StartOrResume(ctx, student, open.ID)

	list, err := env.exams().List(ctx, student, Page{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list.Total != 2 || len(list.Exams) != 2 {
		t.Fatalf("student list = %+v", list)
	}
	if list.Exams[0].ID != later.ID {
		t.Errorf("list should be ordered by start time desc, got %d first", list.Exams[0].ID)
	}

	byID := map[uint]*models.ExamSummary{}
	for _, e := range list.Exams {
		byID[e.ID] = e
	}
	if got := byID[open.ID]; got.AttemptStatus != string(models.AttemptInProgress) || got.AttemptID == nil || *got.AttemptID != state.AttemptID || got.QuestionCount != 2 {
		t.Errorf("open exam summary = %+v", got)
	}
	if got := byID[later.ID]; got.AttemptStatus != models.ExamNotAttempted || got.AttemptID != nil {
		t.Errorf("later exam summary = %+v", got)
	}

	all, err := env.exams().List(ctx, teacher, Page{})
	if err != nil {
		t.Fatalf("List(teacher) error = %v", err)
	}
	if all.Total != 3 {
		t.Errorf("teacher list total = %d, want 3", all.Total)
	}
	for _, e := range all.Exams {
		if e.AttemptStatus != "" {
			t.Errorf("teacher summary carries attempt status: %+v", e)
		}
	}

	if _, err := env.exams().Get(ctx, student, draft.ID); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("Get(draft) error = %v, want %v", err, ErrExamNotFound)
	}
	if _, err := env.exams().Get(ctx, teacher, draft.ID); err != nil {
		t.Errorf("Get(draft, teacher) error = %v", err)
	}
}

func TestExamService_Questions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q1, q2 := scenarioQuestions()
	exam := env.seedExam(t, true, q1)
	if err := env.questions().CreateBatch(ctx, teacher, []*models.Question{q2}); err != nil {
		t.Fatalf("create question: %v", err)
	}

	resp, err := env.exams().AddQuestions(ctx, teacher, exam.ID, []uint{q1.ID, q2.ID, 9999})
	if err != nil {
		t.Fatalf("AddQuestions() error = %v", err)
	}
	if resp.Added != 1 {
		t.Errorf("Added = %d, want 1", resp.Added)
	}

	if _, err := env.exams().AddQuestions(ctx, teacher, exam.ID, nil); err == nil {
		t.Error("AddQuestions() with no ids should fail")
	}
	if _, err := env.exams().AddQuestions(ctx, teacher, 9999, []uint{q1.ID}); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("AddQuestions(missing exam) error = %v", err)
	}

	questions, err := env.exams().GetQuestions(ctx, teacher, exam.ID)
	if err != nil || len(questions) != 2 {
		t.Fatalf("GetQuestions() = %d, %v", len(questions), err)
	}
	if _, err := env.exams().GetQuestions(ctx, student, exam.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("GetQuestions(student) error = %v", err)
	}

	if err := env.exams().RemoveQuestion(ctx, teacher, exam.ID, q2.ID); err != nil {
		t.Fatalf("RemoveQuestion() error = %v", err)
	}
	if err := env.exams().RemoveQuestion(ctx, teacher, exam.ID, q2.ID); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("second RemoveQuestion() error = %v, want %v", err, ErrQuestionNotFound)
	}

	summary, err := env.exams().Get(ctx, teacher, exam.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if summary.QuestionCount != 1 {
		t.Errorf("QuestionCount = %d, want 1", summary.QuestionCount)
	}
}
