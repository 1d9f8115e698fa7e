package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Manager owns the read-through stores for exams and questions. Attempt data
// is never cached.
type Manager struct {
	client    *redis.Client
	Exams     *Store
	Questions *Store
}

// NewManager accepts a nil client; every store then degrades to pass-through.
func NewManager(client *redis.Client) *Manager {
	return &Manager{
		client:    client,
		Exams:     NewStore(client, ExamStore),
		Questions: NewStore(client, QuestionStore),
	}
}

func ExamKey(examID uint) string          { return fmt.Sprintf("id:%d", examID) }
func ExamQuestionsKey(examID uint) string { return fmt.Sprintf("id:%d:questions", examID) }
func QuestionKey(questionID uint) string  { return fmt.Sprintf("id:%d", questionID) }

// ForgetExam drops the exam row and its question list.
func (m *Manager) ForgetExam(ctx context.Context, examID uint) {
	if err := m.Exams.Evict(ctx, ExamKey(examID), ExamQuestionsKey(examID)); err != nil {
		slog.ErrorContext(ctx, "Failed to evict exam cache", "error", err, "exam_id", examID)
	}
}

func (m *Manager) Ping(ctx context.Context) error {
	if m.client == nil {
		return ErrUnavailable
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache ping: %w", err)
	}
	return nil
}
