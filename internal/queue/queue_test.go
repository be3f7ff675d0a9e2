package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnqueueWithRetrySucceedsFirstTry(t *testing.T) {
	q := new(MockQueue)
	q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()

	err := EnqueueWithRetry(context.Background(), q, Task{Type: TaskTypeSummarize}, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q.AssertExpectations(t)
}

func TestEnqueueWithRetryRecovers(t *testing.T) {
	q := new(MockQueue)
	q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("nats down")).Twice()
	q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()

	err := EnqueueWithRetry(context.Background(), q, Task{Type: TaskTypeUnderwrite}, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	q.AssertNumberOfCalls(t, "Enqueue", 3)
}

func TestEnqueueWithRetryExhausted(t *testing.T) {
	q := new(MockQueue)
	wantErr := errors.New("still down")
	q.On("Enqueue", mock.Anything, mock.Anything).Return(wantErr)

	err := EnqueueWithRetry(context.Background(), q, Task{}, 3, time.Millisecond)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last enqueue error, got %v", err)
	}
	q.AssertNumberOfCalls(t, "Enqueue", 3)
}

func TestEnqueueWithRetryRespectsContext(t *testing.T) {
	q := new(MockQueue)
	q.On("Enqueue", mock.Anything, mock.Anything).Return(errors.New("down"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := EnqueueWithRetry(ctx, q, Task{}, 3, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestNATSEnqueueRequiresTaskType(t *testing.T) {
	q := NewNATS(discardLogger(), nil)
	// Rejected before anything touches the connection.
	if err := q.Enqueue(context.Background(), Task{}); err == nil {
		t.Fatal("expected error for task without a type")
	}
}

func TestEnqueueWithRetryZeroAttempts(t *testing.T) {
	q := new(MockQueue)
	q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()

	// Non-positive attempts still tries once.
	if err := EnqueueWithRetry(context.Background(), q, Task{}, 0, time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q.AssertExpectations(t)
}
