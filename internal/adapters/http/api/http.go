// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/plotcrowd/fairval/internal/domain/dedupe"
	"github.com/plotcrowd/fairval/internal/domain/model"
	"github.com/plotcrowd/fairval/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a submission for async processing. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, s model.Submission) bool

	// UpsertProperty registers or updates a property's reference prices.
	UpsertProperty(ctx context.Context, propertyID string, official, asking *int64) error

	// Valuation computes the current fair market value for a property.
	Valuation(ctx context.Context, propertyID string) (model.FMVResult, error)

	// Karma returns the public reputation view for a user.
	Karma(ctx context.Context, userID string) (types.KarmaStatus, error)

	// TopN exposes the karma leaderboard.
	TopN(ctx context.Context, n int) ([]Entry, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	guessesHandler     *GuessesHandler
	salesHandler       *SalesHandler
	propertiesHandler  *PropertiesHandler
	valuationHandler   *ValuationHandler
	karmaHandler       *KarmaHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		guessesHandler:     NewGuessesHandler(deps),
		salesHandler:       NewSalesHandler(deps),
		propertiesHandler:  NewPropertiesHandler(deps),
		valuationHandler:   NewValuationHandler(deps),
		karmaHandler:       NewKarmaHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/guesses", MetricsMiddleware(s.guessesHandler.HandlePostGuess, "guesses"))
	mux.HandleFunc("/sales", MetricsMiddleware(s.salesHandler.HandlePostSale, "sales"))
	mux.HandleFunc("/properties", MetricsMiddleware(s.propertiesHandler.HandlePutProperty, "properties"))
	mux.HandleFunc("/properties/", MetricsMiddleware(s.valuationHandler.HandleGetValuation, "valuation"))
	mux.HandleFunc("/users/", MetricsMiddleware(s.karmaHandler.HandleGetKarma, "karma"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// pathParam extracts the single path segment after prefix, rejecting empty
// or nested paths.
func pathParam(path, prefix string) (string, bool) {
	p := strings.TrimPrefix(path, prefix)
	if p == "" || p == path {
		return "", false
	}
	return p, true
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found") ||
		strings.Contains(strings.ToLower(err.Error()), "unknown property")
}

// decodeBody decodes a JSON request body into v, rejecting trailing garbage.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
