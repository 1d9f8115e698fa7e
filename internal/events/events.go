package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "exam-service"
	EventVersion = "1.0"

	DefaultTopic = "exam.attempts"
)

// Event types
const (
	AttemptStarted   = "attempt.started"
	AttemptSubmitted = "attempt.submitted"
	AnswerGraded     = "answer.graded"
)

// Event is the envelope written to the broker
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type AttemptStartedEvent struct {
	AttemptID uint      `json:"attempt_id"`
	ExamID    uint      `json:"exam_id"`
	StudentID string    `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
}

type AttemptSubmittedEvent struct {
	AttemptID        uint      `json:"attempt_id"`
	ExamID           uint      `json:"exam_id"`
	StudentID        string    `json:"student_id"`
	SubmittedAt      time.Time `json:"submitted_at"`
	TotalScore       float64   `json:"total_score"`
	MaxPossibleScore float64   `json:"max_possible_score"`
}

type AnswerGradedEvent struct {
	AttemptID    uint    `json:"attempt_id"`
	QuestionID   uint    `json:"question_id"`
	GraderID     string  `json:"grader_id"`
	ScoreAwarded float64 `json:"score_awarded"`
	TotalScore   float64 `json:"total_score"`
}

// EventPublisher delivers domain events. Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
