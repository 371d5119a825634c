package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starboost/starboost/internal/bus"
	"github.com/starboost/starboost/internal/domain"
	"github.com/starboost/starboost/internal/evaluation"
	"github.com/starboost/starboost/internal/repository"
)

func newTestStore(t *testing.T) *repository.SQLStore {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "worker-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	store, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedChallenge(t *testing.T, store *repository.SQLStore) string {
	t.Helper()
	ctx := context.Background()

	start, _ := time.Parse("2006-01-02", "2026-01-01")
	end, _ := time.Parse("2006-01-02", "2026-01-31")
	challenge := &domain.Challenge{
		Name:        "async run",
		StartDate:   start,
		EndDate:     end,
		FilterRules: []domain.FilterRule{{}},
		ScoreRules: []domain.ScoreRule{
			{Type: domain.ScoreContract, ContractType: "AUTO", Points: 10},
		},
		RewardRules: []domain.RewardRule{
			{RoleCategory: domain.RoleAgent, PayoutType: domain.FixedTiers, TierMin: 0, TierMax: 1000, BaseAmount: 25},
		},
	}
	if err := store.CreateChallenge(ctx, challenge); err != nil {
		t.Fatalf("failed to create challenge: %v", err)
	}
	if err := store.EnrollParticipants(ctx, challenge.ID, []domain.Participant{
		{UserID: 1, Role: domain.RoleAgent, RegionID: 1},
	}); err != nil {
		t.Fatalf("failed to enroll: %v", err)
	}
	tx := &domain.SalesTransaction{
		ChallengeID:  challenge.ID,
		Premium:      100,
		ContractType: "AUTO",
		SellerID:     1,
		SellerRole:   domain.RoleAgent,
		SaleDate:     start.AddDate(0, 0, 2),
	}
	if err := store.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("failed to save transaction: %v", err)
	}
	return challenge.ID
}

func TestWorker(t *testing.T) {
	store := newTestStore(t)
	challengeID := seedChallenge(t, store)

	busImpl := bus.NewChannelBus(100)
	defer busImpl.Close()

	service := evaluation.NewService(store, busImpl)
	worker := NewWorker(busImpl, service)
	if err := worker.Start(); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	defer worker.Stop()

	ctx := context.Background()

	t.Run("ProcessesEvaluateRequest", func(t *testing.T) {
		payload, _ := json.Marshal(domain.EvaluateRequest{
			RunID:       "async-run-1",
			ChallengeID: challengeID,
		})
		if err := busImpl.Publish(ctx, "_global", domain.TopicEvaluateRequest, payload); err != nil {
			t.Fatalf("failed to publish request: %v", err)
		}

		// The worker runs asynchronously; poll for the persisted run.
		deadline := time.Now().Add(3 * time.Second)
		for {
			run, err := store.GetEvaluationRun(ctx, challengeID, "async-run-1")
			if err == nil {
				if len(run.Winners) != 1 {
					t.Errorf("expected 1 winner, got %d", len(run.Winners))
				}
				break
			}
			if !errors.Is(err, domain.ErrNotFound) {
				t.Fatalf("unexpected error: %v", err)
			}
			if time.Now().After(deadline) {
				t.Fatal("timed out waiting for the worker to persist the run")
			}
			time.Sleep(20 * time.Millisecond)
		}
	})

	t.Run("MalformedPayloadIsDropped", func(t *testing.T) {
		if err := busImpl.Publish(ctx, "_global", domain.TopicEvaluateRequest, []byte("{not json")); err != nil {
			t.Fatalf("failed to publish: %v", err)
		}
		// Nothing to assert beyond the worker staying alive; the next
		// request must still be handled.
		payload, _ := json.Marshal(domain.EvaluateRequest{
			RunID:       "async-run-2",
			ChallengeID: challengeID,
			Role:        domain.RoleAgent,
		})
		if err := busImpl.Publish(ctx, "_global", domain.TopicEvaluateRequest, payload); err != nil {
			t.Fatalf("failed to publish request: %v", err)
		}

		deadline := time.Now().Add(3 * time.Second)
		for {
			if _, err := store.GetEvaluationRun(ctx, challengeID, "async-run-2"); err == nil {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("worker stopped handling requests after a bad payload")
			}
			time.Sleep(20 * time.Millisecond)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		stats := worker.GetStats()
		if stats.SubscriptionCount != 1 {
			t.Errorf("expected 1 subscription, got %d", stats.SubscriptionCount)
		}
		if len(stats.Topics) != 1 || stats.Topics[0] != domain.TopicEvaluateRequest {
			t.Errorf("unexpected topics: %v", stats.Topics)
		}
	})
}

func TestWorkerStop(t *testing.T) {
	store := newTestStore(t)
	busImpl := bus.NewChannelBus(10)
	defer busImpl.Close()

	worker := NewWorker(busImpl, evaluation.NewService(store, busImpl))
	if err := worker.Start(); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	if err := worker.Stop(); err != nil {
		t.Fatalf("failed to stop worker: %v", err)
	}
	if stats := worker.GetStats(); stats.SubscriptionCount != 0 {
		t.Errorf("expected no subscriptions after stop, got %d", stats.SubscriptionCount)
	}
}
