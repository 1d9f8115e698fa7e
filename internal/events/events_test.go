package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(AttemptStarted, AttemptStartedEvent{AttemptID: 1, ExamID: 2, StudentID: "s1"})

	if e.ID == "" {
		t.Error("expected event id")
	}
	if e.Source != EventSource || e.Version != EventVersion {
		t.Errorf("unexpected envelope: source=%s version=%s", e.Source, e.Version)
	}
	if e.Type != AttemptStarted {
		t.Errorf("Type = %s, want %s", e.Type, AttemptStarted)
	}
	if other := NewEvent(AttemptStarted, nil); other.ID == e.ID {
		t.Error("event ids should be unique")
	}
}

func TestWatermillEventPublisher_GoChannel(t *testing.T) {
	logger := testLogger()
	channel := NewGoChannel(logger)
	defer channel.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := channel.Subscribe(ctx, "test.topic")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	publisher := NewInProcessEventPublisher(channel, "test.topic", logger)
	event := NewEvent(AttemptSubmitted, AttemptSubmittedEvent{AttemptID: 7, TotalScore: 2.5, MaxPossibleScore: 4})
	if err := publisher.Publish(ctx, event); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-messages:
		msg.Ack()
		if msg.UUID != event.ID {
			t.Errorf("message uuid = %s, want %s", msg.UUID, event.ID)
		}
		if got := msg.Metadata.Get("event_type"); got != AttemptSubmitted {
			t.Errorf("event_type metadata = %s", got)
		}

		var decoded struct {
			Type string                `json:"type"`
			Data AttemptSubmittedEvent `json:"data"`
		}
		if err := json.Unmarshal(msg.Payload, &decoded); err != nil {
			t.Fatalf("payload is not JSON: %v", err)
		}
		if decoded.Data.AttemptID != 7 || decoded.Data.TotalScore != 2.5 {
			t.Errorf("decoded data = %+v", decoded.Data)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestWatermillEventPublisher_DefaultTopic(t *testing.T) {
	p := NewWatermillEventPublisher(NewGoChannel(testLogger()), "", testLogger())
	defer p.Close()
	if p.topic != DefaultTopic {
		t.Errorf("topic = %s, want %s", p.topic, DefaultTopic)
	}
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	_ = mock.Publish(ctx, NewEvent(AttemptStarted, nil))
	_ = mock.Publish(ctx, NewEvent(AnswerGraded, nil))

	if got := len(mock.GetPublishedEvents()); got != 2 {
		t.Fatalf("published = %d, want 2", got)
	}
	if got := len(mock.EventsOfType(AnswerGraded)); got != 1 {
		t.Errorf("graded events = %d, want 1", got)
	}

	mock.ClearEvents()
	if got := len(mock.GetPublishedEvents()); got != 0 {
		t.Errorf("after clear = %d, want 0", got)
	}

	wantErr := errors.New("broker down")
	mock.FailWith(wantErr)
	if err := mock.Publish(ctx, NewEvent(AttemptStarted, nil)); !errors.Is(err, wantErr) {
		t.Errorf("Publish() error = %v, want %v", err, wantErr)
	}
}

func TestConsume(t *testing.T) {
	logger := testLogger()
	channel := NewGoChannel(logger)
	defer channel.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan *Event, 100)
	done := make(chan error, 1)
	go func() {
		done <- Consume(ctx, channel, DefaultTopic, func(_ context.Context, e *Event) error {
			received <- e
			return nil
		}, logger)
	}()

	publisher := NewInProcessEventPublisher(channel, "", logger)
	event := NewEvent(AnswerGraded, AnswerGradedEvent{AttemptID: 3, QuestionID: 4, ScoreAwarded: 1})

	// the subscription is registered asynchronously
	deadline := time.After(3 * time.Second)
	for {
		if err := publisher.Publish(ctx, event); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		select {
		case got := <-received:
			if got.ID != event.ID || got.Type != AnswerGraded {
				t.Errorf("received %+v", got)
			}
			cancel()
			if err := <-done; err != nil {
				t.Errorf("Consume() error = %v", err)
			}
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("event not consumed")
		}
	}
}

func TestLogHandler(t *testing.T) {
	if err := LogHandler(testLogger())(context.Background(), NewEvent(AttemptStarted, nil)); err != nil {
		t.Errorf("LogHandler() error = %v", err)
	}
}
