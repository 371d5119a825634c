package evaluation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/starboost/starboost/internal/domain"
)

// EvaluatedEvent is the bus payload announcing a finished run. Winners stay
// in the store; subscribers fetch them by run ID if they need the detail.
type EvaluatedEvent struct {
	RunID       string      `json:"runId"`
	ChallengeID string      `json:"challengeId"`
	Role        domain.Role `json:"role,omitempty"`
	Winners     int         `json:"winners"`
	DurationMs  int64       `json:"durationMs"`
}

func marshalRunEvent(run *domain.EvaluationRun) ([]byte, error) {
	return json.Marshal(EvaluatedEvent{
		RunID:       run.ID,
		ChallengeID: run.ChallengeID,
		Role:        run.Role,
		Winners:     len(run.Winners),
		DurationMs:  run.DurationMs,
	})
}

// RequestAsync enqueues an evaluation on the bus and returns the run ID the
// caller can poll. The worker picks the request up and calls Run with the
// same ID.
func (s *Service) RequestAsync(ctx context.Context, challengeID string, role domain.Role, traceID string) (string, error) {
	if s.bus == nil {
		return "", fmt.Errorf("async evaluation requires an event bus")
	}

	runID := uuid.New().String()
	payload, err := json.Marshal(domain.EvaluateRequest{
		RunID:       runID,
		ChallengeID: challengeID,
		Role:        role,
		TraceID:     traceID,
	})
	if err != nil {
		return "", err
	}
	if err := s.bus.Publish(ctx, "_global", domain.TopicEvaluateRequest, payload); err != nil {
		return "", fmt.Errorf("enqueue evaluation: %w", err)
	}
	return runID, nil
}
