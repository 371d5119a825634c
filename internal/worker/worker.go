// Package worker runs evaluations requested over the event bus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/starboost/starboost/internal/domain"
	"github.com/starboost/starboost/internal/evaluation"
)

// Worker consumes evaluation requests from the EventBus and runs them
// against the store. Requests are published under the "_global" scope so a
// single subscription covers every challenge.
type Worker struct {
	bus     domain.EventBus
	service *evaluation.Service

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async evaluation worker.
func NewWorker(bus domain.EventBus, service *evaluation.Service) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:     bus,
		service: service,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start subscribes to the evaluation request topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicEvaluateRequest, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("evaluation worker started",
		"topic", domain.TopicEvaluateRequest,
	)
	return nil
}

// handleMessage runs one requested evaluation.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var req domain.EvaluateRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		slog.Error("failed to parse evaluation request",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	slog.Debug("processing evaluation request",
		"run_id", req.RunID,
		"challenge_id", req.ChallengeID,
		"role", string(req.Role),
		"trace_id", req.TraceID,
	)

	run, err := w.service.Run(ctx, req.RunID, req.ChallengeID, req.Role)
	if err != nil {
		slog.Error("evaluation failed",
			"run_id", req.RunID,
			"challenge_id", req.ChallengeID,
			"error", err,
		)
		return err
	}

	slog.Info("evaluation request processed",
		"run_id", run.ID,
		"challenge_id", run.ChallengeID,
		"winners", len(run.Winners),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("evaluation worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
