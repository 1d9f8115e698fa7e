package models

import "time"

// QuestionPublic is the student-facing view of a question. It never carries
// the correct answers.
type QuestionPublic struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Type        QuestionType `json:"type"`
	Options     []string     `json:"options"`
	MaxScore    float64      `json:"max_score"`
}

type SavedAnswer struct {
	QuestionID      uint     `json:"question_id"`
	SelectedOptions []string `json:"selected_options"`
	TextAnswer      *string  `json:"text_answer"`
}

// AttemptState is returned when a student starts or resumes an attempt.
type AttemptState struct {
	AttemptID        uint             `json:"attempt_id"`
	ExamID           uint             `json:"exam_id"`
	ExamTitle        string           `json:"exam_title"`
	Status           AttemptStatus    `json:"status"`
	StartedAt        time.Time        `json:"started_at"`
	DurationMinutes  int              `json:"duration_minutes"`
	RemainingSeconds int              `json:"remaining_seconds"`
	Questions        []QuestionPublic `json:"questions"`
	SavedAnswers     []SavedAnswer    `json:"saved_answers"`
}

type AttemptResult struct {
	AttemptID        uint          `json:"attempt_id"`
	Status           AttemptStatus `json:"status"`
	SubmittedAt      *time.Time    `json:"submitted_at"`
	TotalScore       float64       `json:"total_score"`
	MaxPossibleScore float64       `json:"max_possible_score"`
}

// AttemptSummary is one row of an attempt listing.
type AttemptSummary struct {
	ID               uint          `json:"id"`
	ExamID           uint          `json:"exam_id"`
	ExamTitle        string        `json:"exam_title"`
	StudentID        string        `json:"student_id"`
	StartedAt        time.Time     `json:"start_time"`
	SubmittedAt      *time.Time    `json:"submit_time"`
	Status           AttemptStatus `json:"status"`
	TotalScore       float64       `json:"total_score"`
	MaxPossibleScore float64       `json:"max_possible_score"`
}

type ReviewItem struct {
	QuestionID      uint         `json:"question_id"`
	Title           string       `json:"title"`
	Description     *string      `json:"description,omitempty"`
	Type            QuestionType `json:"type"`
	Options         []string     `json:"options"`
	CorrectAnswers  []string     `json:"correct_answers"`
	SelectedOptions []string     `json:"selected_options"`
	TextAnswer      *string      `json:"text_answer"`
	ScoreAwarded    float64      `json:"score_awarded"`
	MaxScore        float64      `json:"max_score"`
	IsCorrect       bool         `json:"is_correct"`
	IsGraded        bool         `json:"is_graded"`
}

type AttemptReview struct {
	AttemptID        uint          `json:"attempt_id"`
	ExamID           uint          `json:"exam_id"`
	ExamTitle        string        `json:"exam_title"`
	StudentID        string        `json:"student_id"`
	Status           AttemptStatus `json:"status"`
	SubmittedAt      *time.Time    `json:"submitted_at"`
	TotalScore       float64       `json:"total_score"`
	MaxPossibleScore float64       `json:"max_possible_score"`
	Items            []ReviewItem  `json:"items"`
}

const (
	ExamNotAttempted = "not_attempted"
)

// ExamSummary is one row of the exam catalog listing. Attempt fields are only
// filled for students.
type ExamSummary struct {
	Exam
	QuestionCount int    `json:"question_count"`
	AttemptStatus string `json:"attempt_status,omitempty"`
	AttemptID     *uint  `json:"attempt_id,omitempty"`
}

type ImportResult struct {
	ImportedCount int      `json:"imported_count"`
	Errors        []string `json:"errors"`
}
