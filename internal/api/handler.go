package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starboost/starboost/internal/directory"
	"github.com/starboost/starboost/internal/domain"
	"github.com/starboost/starboost/internal/evaluation"
	"github.com/starboost/starboost/internal/performance"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	store   domain.Store
	cache   domain.Cache
	bus     domain.EventBus
	service *evaluation.Service
	dir     *directory.Directory
	version string
}

// NewHandler creates a new API handler.
func NewHandler(store domain.Store, cache domain.Cache, bus domain.EventBus,
	service *evaluation.Service, dir *directory.Directory, version string) *Handler {
	return &Handler{
		store:   store,
		cache:   cache,
		bus:     bus,
		service: service,
		dir:     dir,
		version: version,
	}
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// CreateChallenge handles POST /challenges.
func (h *Handler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	var c domain.Challenge
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	if err := h.store.CreateChallenge(r.Context(), &c); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("challenge created", "challenge_id", c.ID, "name", c.Name)
	writeJSON(w, http.StatusCreated, c)
}

// GetChallenge handles GET /challenges/{challengeID}.
func (h *Handler) GetChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetChallenge(r.Context(), chi.URLParam(r, "challengeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteChallenge handles DELETE /challenges/{challengeID}.
func (h *Handler) DeleteChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "challengeID")
	if err := h.store.DeleteChallenge(r.Context(), challengeID); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("challenge deleted", "challenge_id", challengeID)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "challenge deleted",
	})
}

// EnrollParticipants handles PUT /challenges/{challengeID}/participants.
// The request replaces the whole enrollment set; agency and region names in
// the payload refresh the directory.
func (h *Handler) EnrollParticipants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	challengeID := chi.URLParam(r, "challengeID")

	var req domain.EnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	// The challenge must exist before anyone can enroll.
	if _, err := h.store.GetChallenge(ctx, challengeID); err != nil {
		writeError(w, err)
		return
	}

	if err := h.dir.Sync(ctx, req.Agencies, req.Regions); err != nil {
		writeError(w, err)
		return
	}
	if err := h.store.EnrollParticipants(ctx, challengeID, req.Participants); err != nil {
		writeError(w, err)
		return
	}

	slog.Info("participants enrolled",
		"challenge_id", challengeID,
		"count", len(req.Participants),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"enrolled": len(req.Participants),
		"agencies": len(req.Agencies),
		"regions":  len(req.Regions),
	})
}

// ListParticipants handles GET /challenges/{challengeID}/participants.
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.store.ListParticipants(r.Context(), chi.URLParam(r, "challengeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"participants": participants,
		"count":        len(participants),
	})
}

// RecordTransaction handles POST /challenges/{challengeID}/transactions.
func (h *Handler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	challengeID := chi.URLParam(r, "challengeID")

	var req domain.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.store.GetChallenge(ctx, challengeID); err != nil {
		writeError(w, err)
		return
	}

	tx := req.ToTransaction(challengeID)
	if err := h.store.SaveTransaction(ctx, tx); err != nil {
		writeError(w, err)
		return
	}

	// Announce the sale; subscribers may trigger incremental views.
	if h.bus != nil {
		payload, _ := json.Marshal(tx)
		if err := h.bus.Publish(ctx, challengeID, domain.TopicTransactionRecorded, payload); err != nil {
			slog.Warn("failed to publish transaction event",
				"challenge_id", challengeID,
				"tx_id", tx.ID,
				"error", err,
			)
		}
	}

	writeJSON(w, http.StatusCreated, tx)
}

// ListTransactions handles GET /challenges/{challengeID}/transactions.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.store.ListTransactions(r.Context(), chi.URLParam(r, "challengeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// GetTransaction handles GET /challenges/{challengeID}/transactions/{txID}.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.store.GetTransaction(r.Context(),
		chi.URLParam(r, "challengeID"), chi.URLParam(r, "txID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// ScoreEntry is one seller's score in the scores view.
type ScoreEntry struct {
	SellerID int64 `json:"sellerId"`
	Score    int   `json:"score"`
}

// GetScores handles GET /challenges/{challengeID}/scores.
func (h *Handler) GetScores(w http.ResponseWriter, r *http.Request) {
	scores, err := h.service.Scores(r.Context(), chi.URLParam(r, "challengeID"))
	if err != nil {
		writeError(w, err)
		return
	}

	entries := make([]ScoreEntry, 0, len(scores))
	for id, score := range scores {
		entries = append(entries, ScoreEntry{SellerID: id, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].SellerID < entries[j].SellerID
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"scores": entries,
		"count":  len(entries),
	})
}

// PerformanceAgents handles GET /challenges/{challengeID}/performance/agents.
func (h *Handler) PerformanceAgents(w http.ResponseWriter, r *http.Request) {
	h.performanceView(w, r, func(agg *performance.Aggregator, id int64, name string) []domain.PerformanceRow {
		return agg.Agents(id, name)
	})
}

// PerformanceCommercials handles GET /challenges/{challengeID}/performance/commercials.
func (h *Handler) PerformanceCommercials(w http.ResponseWriter, r *http.Request) {
	h.performanceView(w, r, func(agg *performance.Aggregator, id int64, name string) []domain.PerformanceRow {
		return agg.Commercials(id, name)
	})
}

// PerformanceAgencies handles GET /challenges/{challengeID}/performance/agencies.
func (h *Handler) PerformanceAgencies(w http.ResponseWriter, r *http.Request) {
	h.performanceView(w, r, func(agg *performance.Aggregator, id int64, name string) []domain.PerformanceRow {
		return agg.Agencies(id, name)
	})
}

// PerformanceRegions handles GET /challenges/{challengeID}/performance/regions.
func (h *Handler) PerformanceRegions(w http.ResponseWriter, r *http.Request) {
	h.performanceView(w, r, func(agg *performance.Aggregator, id int64, name string) []domain.PerformanceRow {
		return agg.Regions(id, name)
	})
}

// performanceView loads the snapshot once and serves one leaderboard with
// the optional ?id= and ?name= filters applied.
func (h *Handler) performanceView(w http.ResponseWriter, r *http.Request,
	view func(*performance.Aggregator, int64, string) []domain.PerformanceRow) {

	snap, err := h.service.LoadSnapshot(r.Context(), chi.URLParam(r, "challengeID"))
	if err != nil {
		writeError(w, err)
		return
	}

	var filterID int64
	if raw := r.URL.Query().Get("id"); raw != "" {
		filterID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "id must be an integer",
			})
			return
		}
	}
	filterName := r.URL.Query().Get("name")

	rows := view(performance.NewAggregator(snap), filterID, filterName)
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":  rows,
		"count": len(rows),
	})
}

// ListWinningRules handles GET /challenges/{challengeID}/winning-rules.
func (h *Handler) ListWinningRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.store.ListWinningRules(r.Context(), chi.URLParam(r, "challengeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, ok := domain.ParseRole(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "unknown role " + raw,
			})
			return
		}
		filtered := rules[:0:0]
		for _, rule := range rules {
			if rule.RoleCategory == role {
				filtered = append(filtered, rule)
			}
		}
		rules = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// ListRewardRules handles GET /challenges/{challengeID}/reward-rules.
func (h *Handler) ListRewardRules(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "challengeID")

	var rules []domain.RewardRule
	var err error
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, ok := domain.ParseRole(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "unknown role " + raw,
			})
			return
		}
		rules, err = h.store.ListRewardRulesByRole(r.Context(), challengeID, role)
	} else {
		rules, err = h.store.ListRewardRules(r.Context(), challengeID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// GetWinners handles GET /challenges/{challengeID}/winners. The winners are
// computed on the fly from current data; nothing is persisted.
func (h *Handler) GetWinners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	challengeID := chi.URLParam(r, "challengeID")

	var winners []domain.Winner
	var err error
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, ok := domain.ParseRole(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "unknown role " + raw,
			})
			return
		}
		winners, err = h.service.EvaluateRole(ctx, challengeID, role)
	} else {
		winners, err = h.service.EvaluateChallenge(ctx, challengeID)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if winners == nil {
		winners = []domain.Winner{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"winners": winners,
		"count":   len(winners),
	})
}

// EvaluateRequest is the optional request body for evaluation endpoints.
type EvaluateRequest struct {
	Role string `json:"role,omitempty"`
}

// Evaluate handles POST /challenges/{challengeID}/evaluate: run now,
// persist the run, and return it.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	challengeID := chi.URLParam(r, "challengeID")

	role, ok := h.parseEvaluateRole(w, r)
	if !ok {
		return
	}

	run, err := h.service.Run(r.Context(), "", challengeID, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// EvaluateAsync handles POST /challenges/{challengeID}/evaluate/async: the
// run is queued on the bus and executed by the worker; the caller polls the
// returned run ID.
func (h *Handler) EvaluateAsync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	challengeID := chi.URLParam(r, "challengeID")

	role, ok := h.parseEvaluateRole(w, r)
	if !ok {
		return
	}

	// Reject unknown challenges up front instead of failing in the worker.
	if _, err := h.store.GetChallenge(ctx, challengeID); err != nil {
		writeError(w, err)
		return
	}

	runID, err := h.service.RequestAsync(ctx, challengeID, role, GetTraceID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"runId":  runID,
		"status": "queued",
	})
}

func (h *Handler) parseEvaluateRole(w http.ResponseWriter, r *http.Request) (domain.Role, bool) {
	var req EvaluateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "invalid JSON request body",
			})
			return "", false
		}
	}
	if req.Role == "" {
		return "", true
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown role " + req.Role,
		})
		return "", false
	}
	return role, true
}

// GetEvaluationRun handles GET /challenges/{challengeID}/evaluations/{runID}.
func (h *Handler) GetEvaluationRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetEvaluationRun(r.Context(),
		chi.URLParam(r, "challengeID"), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// ComputeRewardRequest is the request body for the reward preview. For a
// RANK_TIERS scheme the metric is the rank.
type ComputeRewardRequest struct {
	Role      string  `json:"role"`
	Metric    float64 `json:"metric"`
	UnitCount int64   `json:"unitCount"`
}

// ComputeReward handles POST /challenges/{challengeID}/rewards/compute.
func (h *Handler) ComputeReward(w http.ResponseWriter, r *http.Request) {
	var req ComputeRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "unknown role " + req.Role,
		})
		return
	}

	amount, err := h.service.ComputeReward(r.Context(),
		chi.URLParam(r, "challengeID"), role, req.Metric, req.UnitCount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"role":   role,
		"amount": amount,
	})
}

// ListAgencies handles GET /agencies.
func (h *Handler) ListAgencies(w http.ResponseWriter, r *http.Request) {
	agencies, err := h.dir.Agencies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agencies": agencies,
		"count":    len(agencies),
	})
}

// ListRegions handles GET /regions.
func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.dir.Regions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"regions": regions,
		"count":   len(regions),
	})
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidRule):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
