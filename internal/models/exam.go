package models

import "time"

type Exam struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Title           string    `json:"title" gorm:"not null;size:200"`
	Description     *string   `json:"description" gorm:"type:text"`
	StartTime       time.Time `json:"start_time" gorm:"not null"`
	EndTime         time.Time `json:"end_time" gorm:"not null"`
	DurationMinutes int       `json:"duration_minutes" gorm:"not null"`
	IsPublished     bool      `json:"is_published" gorm:"default:false;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Exam) TableName() string {
	return "exams"
}

// ExamQuestion links a question into an exam. Ordering is not tracked.
type ExamQuestion struct {
	ExamID     uint      `json:"exam_id" gorm:"primaryKey"`
	QuestionID uint      `json:"question_id" gorm:"primaryKey;index"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}

// Duration returns the per-attempt time budget.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}
