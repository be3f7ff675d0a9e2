package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"insurance-agents/internal/retry"
)

const (
	// Summarize and underwrite tasks are long LLM pipelines; most transient
	// failures are rate limits or model timeouts, so retries are few and the
	// backoff starts wide.
	defaultMaxAttempts = 5
	retryBase          = 2 * time.Second

	subjectPrefix = "tasks."
	groupPrefix   = "workers-"
)

// NewNATS constructs a NATS-backed queue for the document pipelines. Each task
// type gets its own subject, and workers of the same type share a queue group
// so a document is processed once.
func NewNATS(log *slog.Logger, nc *nats.Conn) Queue {
	return &natsQueue{log: log, nc: nc}
}

type natsQueue struct {
	log *slog.Logger
	nc  *nats.Conn
}

func (q *natsQueue) Enqueue(_ context.Context, task Task) error {
	if task.Type == "" {
		return errors.New("task type required")
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.nc.Publish(subjectPrefix+string(task.Type), body)
}

func (q *natsQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	subject := subjectPrefix + string(taskType)
	group := groupPrefix + string(taskType)
	sub, err := q.nc.QueueSubscribe(subject, group, func(msg *nats.Msg) {
		q.handleMessage(ctx, msg, handler)
	})
	if err != nil {
		return err
	}
	q.log.Info("worker subscribed", "subject", subject, "group", group)
	<-ctx.Done()
	return sub.Unsubscribe()
}

func (q *natsQueue) handleMessage(ctx context.Context, msg *nats.Msg, handler Handler) {
	var task Task
	if err := json.Unmarshal(msg.Data, &task); err != nil {
		q.log.Error("failed to decode task", "err", err)
		return
	}

	// Core NATS has no delayed delivery; a retried task carries its own
	// not-before time and the worker sleeps out the remainder.
	if task.NotBefore.After(time.Now()) {
		time.Sleep(time.Until(task.NotBefore))
	}

	if err := handler(ctx, task); err != nil {
		q.retryTask(ctx, task, err)
	}
}

// retryTask re-enqueues a failed task with capped exponential backoff. Once
// attempts run out the failure is terminal; the handler has already marked the
// owning policy or dossier failed, so the task is only logged and dropped.
func (q *natsQueue) retryTask(ctx context.Context, task Task, handlerErr error) {
	task.Attempts++
	if task.MaxAttempts == 0 {
		task.MaxAttempts = defaultMaxAttempts
	}

	if task.Attempts >= task.MaxAttempts {
		q.log.Error("task permanently failed",
			"id", task.ID, "type", task.Type, "attempts", task.Attempts, "err", handlerErr)
		return
	}

	task.NotBefore = time.Now().Add(retry.ExponentialBackoff(task.Attempts, retryBase))
	q.log.Warn("task failed, scheduling retry",
		"id", task.ID, "type", task.Type, "attempt", task.Attempts, "not_before", task.NotBefore, "err", handlerErr)
	if err := q.Enqueue(ctx, task); err != nil {
		q.log.Error("failed to re-enqueue task",
			"id", task.ID, "type", task.Type, "original_err", handlerErr, "enqueue_err", err)
	}
}
