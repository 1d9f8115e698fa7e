package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
)

// Attempt is one student's single try at one exam.
type Attempt struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	StudentID   string        `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_attempt_student_exam"`
	ExamID      uint          `json:"exam_id" gorm:"not null;uniqueIndex:idx_attempt_student_exam;index"`
	Status      AttemptStatus `json:"status" gorm:"size:20;not null;index"`
	StartedAt   time.Time     `json:"started_at" gorm:"not null"`
	SubmittedAt *time.Time    `json:"submitted_at"`
	TotalScore  float64       `json:"total_score" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam    *Exam    `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

func (Attempt) TableName() string {
	return "attempts"
}

func (a *Attempt) IsSubmitted() bool {
	return a.Status == AttemptSubmitted
}

// Answer holds one question's response within an attempt. Image uploads keep
// their reference in TextAnswer.
type Answer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question;index"`

	// Answer content
	SelectedOptions datatypes.JSONSlice[string] `json:"selected_options"`
	TextAnswer      *string                     `json:"text_answer" gorm:"type:text"`

	// Grading
	ScoreAwarded float64    `json:"score_awarded" gorm:"not null"`
	IsCorrect    bool       `json:"is_correct"`
	IsGraded     bool       `json:"is_graded"`
	GradedBy     *string    `json:"graded_by" gorm:"size:255"`
	GradedAt     *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Answer) TableName() string {
	return "answers"
}
