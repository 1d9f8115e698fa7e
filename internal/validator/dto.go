package validator

import (
	"time"

	"github.com/tarik1bosunia/online-exam-management-system/internal/models"
)

// QuestionCreateRequest is the body of POST /questions and one import row
type QuestionCreateRequest struct {
	Title          string              `json:"title" validate:"required,not_blank,max=2000"`
	Description    *string             `json:"description" validate:"omitempty,max=5000"`
	Complexity     string              `json:"complexity" validate:"omitempty,max=50"`
	Type           models.QuestionType `json:"type" validate:"required,question_type"`
	Options        []string            `json:"options" validate:"omitempty,max=50,dive,max=1000"`
	CorrectAnswers []string            `json:"correct_answers" validate:"omitempty,max=50,dive,max=1000"`
	MaxScore       *float64            `json:"max_score" validate:"omitempty,gte=0"`
	Tags           string              `json:"tags" validate:"omitempty,max=500"`
}

// ToModel applies defaults: complexity "Class 1", max score 1.
func (r *QuestionCreateRequest) ToModel() *models.Question {
	q := &models.Question{
		Title:          r.Title,
		Description:    r.Description,
		Complexity:     r.Complexity,
		Type:           r.Type,
		Options:        nonNil(r.Options),
		CorrectAnswers: nonNil(r.CorrectAnswers),
		MaxScore:       1,
		Tags:           r.Tags,
	}
	if q.Complexity == "" {
		q.Complexity = models.DefaultComplexity
	}
	if r.MaxScore != nil {
		q.MaxScore = *r.MaxScore
	}
	return q
}

// ExamCreateRequest is the body of POST /exams
type ExamCreateRequest struct {
	Title           string    `json:"title" validate:"required,not_blank,max=200"`
	Description     *string   `json:"description" validate:"omitempty,max=5000"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0,max=1440"`
	IsPublished     bool      `json:"is_published"`
}

// ExamUpdateRequest is the body of PATCH /exams/:id; nil fields are unchanged.
type ExamUpdateRequest struct {
	Title           *string    `json:"title" validate:"omitempty,not_blank,max=200"`
	Description     *string    `json:"description" validate:"omitempty,max=5000"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes *int       `json:"duration_minutes" validate:"omitempty,gt=0,max=1440"`
	IsPublished     *bool      `json:"is_published"`
}

// ExamQuestionsRequest is the body of POST /exams/:id/questions
type ExamQuestionsRequest struct {
	QuestionIDs []uint `json:"question_ids" validate:"required,min=1,dive,gt=0"`
}

// AnswerSaveRequest is the autosave body. Kind selects the payload variant;
// when omitted it is derived from the question type, or from the populated field.
type AnswerSaveRequest struct {
	QuestionID      uint              `json:"question_id" validate:"required,gt=0"`
	Kind            models.AnswerKind `json:"kind" validate:"omitempty,answer_kind"`
	SelectedOptions []string          `json:"selected_options" validate:"omitempty,max=50,dive,max=1000"`
	TextAnswer      *string           `json:"text_answer" validate:"omitempty,max=20000"`
	ImageRef        *string           `json:"image_ref" validate:"omitempty,max=2048"`
}

// ResolveKind picks the payload kind. expected is the kind the question
// wants, or "" when the question is unknown.
func (r *AnswerSaveRequest) ResolveKind(expected models.AnswerKind) models.AnswerKind {
	switch {
	case r.Kind != "":
		return r.Kind
	case expected != "":
		return expected
	case r.ImageRef != nil:
		return models.AnswerKindImage
	case r.TextAnswer != nil && r.SelectedOptions == nil:
		return models.AnswerKindText
	default:
		return models.AnswerKindChoice
	}
}

// ToPayload builds the tagged payload for kind
func (r *AnswerSaveRequest) ToPayload(kind models.AnswerKind) models.AnswerPayload {
	switch kind {
	case models.AnswerKindText:
		return models.TextAnswer{Text: deref(r.TextAnswer)}
	case models.AnswerKindImage:
		if r.ImageRef != nil {
			return models.ImageAnswer{Ref: *r.ImageRef}
		}
		return models.ImageAnswer{Ref: deref(r.TextAnswer)}
	default:
		return models.ChoiceAnswer{Selected: nonNil(r.SelectedOptions)}
	}
}

// GradeUpdateRequest is the body of the manual grading endpoint
type GradeUpdateRequest struct {
	Score *float64 `json:"score" validate:"required,gte=0"`
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
