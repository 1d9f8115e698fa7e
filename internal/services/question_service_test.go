package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
)

func workbook(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []interface{}{"title", "description", "complexity", "type", "options", "correct_answers", "max_score", "tags"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestQuestionService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	q, err := env.questions().Create(ctx, teacher, &CreateQuestionRequest{
		Title:          "Capital of France",
		Type:           models.SingleChoice,
		Options:        []string{"Paris", "Rome"},
		CorrectAnswers: []string{"Paris"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if q.MaxScore != 1 || q.Complexity != models.DefaultComplexity {
		t.Errorf("defaults not applied: %+v", q)
	}

	got, err := env.questions().Get(ctx, teacher, q.ID)
	if err != nil || got.Title != q.Title {
		t.Errorf("Get() = %+v, %v", got, err)
	}
	if _, err := env.questions().Get(ctx, teacher, 9999); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("Get(missing) error = %v", err)
	}

	tests := []struct {
		name      string
		principal models.Principal
		req       CreateQuestionRequest
	}{
		{"student", student, CreateQuestionRequest{Title: "x", Type: models.Text}},
		{"blank title", teacher, CreateQuestionRequest{Title: "  ", Type: models.Text}},
		{"unknown type", teacher, CreateQuestionRequest{Title: "x", Type: "essay"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if _, err := env.questions().Create(ctx, tt.principal, &req); err == nil {
				t.Error("Create() should fail")
			}
		})
	}

	list, err := env.questions().List(ctx, teacher, Page{Limit: 10})
	if err != nil || list.Total != 1 {
		t.Errorf("List() = %+v, %v", list, err)
	}
	if _, err := env.questions().List(ctx, student, Page{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("List(student) error = %v", err)
	}
}

func TestQuestionService_Import(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	buf := workbook(t,
		[]interface{}{"2 + 2", "", "", "single_choice", `["3","4"]`, `["4"]`, "1", "math"},
		[]interface{}{"Primes", "", "Class 2", "MULTI_CHOICE", `["2","7","9"]`, `["2","7"]`, "2", ""},
		[]interface{}{"", "", "", "", "", "", "", ""},
		[]interface{}{"Bad type", "", "", "essay", "", "", "", ""},
		[]interface{}{"Bad score", "", "", "text", "", "", "lots", ""},
	)

	result, err := env.questions().Import(ctx, teacher, buf)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.ImportedCount != 2 {
		t.Errorf("ImportedCount = %d, want 2", result.ImportedCount)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2 entries", result.Errors)
	}
	if !strings.HasPrefix(result.Errors[0], "Row 5:") || !strings.HasPrefix(result.Errors[1], "Row 6:") {
		t.Errorf("Errors = %v", result.Errors)
	}

	list, err := env.questions().List(ctx, teacher, Page{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if list.Total != 2 {
		t.Errorf("stored questions = %d, want 2", list.Total)
	}
}

func TestQuestionService_ImportErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("all rows invalid", func(t *testing.T) {
		buf := workbook(t, []interface{}{"Bad", "", "", "essay", "", "", "", ""})
		_, err := env.questions().Import(ctx, teacher, buf)
		var ie *ImportError
		if !errors.As(err, &ie) || len(ie.Errors) != 1 {
			t.Errorf("Import() error = %v, want *ImportError", err)
		}
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := env.questions().Import(ctx, teacher, strings.NewReader("title,type\n"))
		var ve ValidationErrors
		if !errors.As(err, &ve) {
			t.Errorf("Import() error = %v, want ValidationErrors", err)
		}
	})

	t.Run("empty workbook", func(t *testing.T) {
		result, err := env.questions().Import(ctx, teacher, workbook(t))
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if result.ImportedCount != 0 || result.Errors == nil {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("student", func(t *testing.T) {
		_, err := env.questions().Import(ctx, student, workbook(t))
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("Import() error = %v, want %v", err, ErrForbidden)
		}
	})
}
