package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plotcrowd/fairval/internal/domain/dedupe"
	"github.com/plotcrowd/fairval/internal/domain/model"
	"github.com/plotcrowd/fairval/pkg/metrics"
)

// GuessDependencies defines the interface for guess submission dependencies.
type GuessDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, s model.Submission) bool
}

// GuessesHandler handles guess submissions.
type GuessesHandler struct {
	deps GuessDependencies
}

// NewGuessesHandler creates a new guesses handler.
func NewGuessesHandler(deps GuessDependencies) *GuessesHandler {
	return &GuessesHandler{deps: deps}
}

// guessRequest mirrors the OpenAPI schema for POST /guesses.
type guessRequest struct {
	GuessID      string `json:"guess_id"`
	PropertyID   string `json:"property_id"`
	UserID       string `json:"user_id"`
	GuessedPrice int64  `json:"guessed_price"`
	TS           string `json:"ts"`
}

func (g guessRequest) validate() error {
	switch {
	case strings.TrimSpace(g.PropertyID) == "":
		return errors.New("missing property_id")
	case strings.TrimSpace(g.UserID) == "":
		return errors.New("missing user_id")
	case g.GuessedPrice <= 0:
		return errors.New("guessed_price must be positive")
	}
	if g.TS != "" {
		if _, err := time.Parse(time.RFC3339, g.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

// HandlePostGuess handles POST /guesses requests.
func (h *GuessesHandler) HandlePostGuess(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_guess"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req guessRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		metrics.RecordSubmissionFailed("guess", "validation")
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Clients may omit the id; it then gets one and cannot be deduplicated.
	if strings.TrimSpace(req.GuessID) == "" {
		req.GuessID = uuid.NewString()
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.GuessID) {
		metrics.RecordGuessDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	ts := time.Now()
	if req.TS != "" {
		ts, _ = time.Parse(time.RFC3339, req.TS)
	}

	sub := model.Submission{
		ID:         req.GuessID,
		Kind:       model.SubmissionGuess,
		PropertyID: req.PropertyID,
		UserID:     req.UserID,
		Price:      req.GuessedPrice,
		TS:         ts,
	}
	if ok := h.deps.Enqueue(r.Context(), sub); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), req.GuessID)
		metrics.RecordSubmissionFailed("guess", "backpressure")
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	metrics.RecordGuessSubmitted()
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
