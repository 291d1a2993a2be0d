package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/plotcrowd/fairval/internal/domain/types"
)

// KarmaDependencies defines the interface for karma reads.
type KarmaDependencies interface {
	Karma(ctx context.Context, userID string) (types.KarmaStatus, error)
}

// KarmaHandler handles per-user karma requests.
type KarmaHandler struct {
	deps KarmaDependencies
}

// NewKarmaHandler creates a new karma handler.
func NewKarmaHandler(deps KarmaDependencies) *KarmaHandler {
	return &KarmaHandler{deps: deps}
}

// HandleGetKarma handles GET /users/{user_id}/karma requests.
func (h *KarmaHandler) HandleGetKarma(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_karma"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest, ok := pathParam(r.URL.Path, "/users/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	userID, found := strings.CutSuffix(rest, "/karma")
	if !found || userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	status, err := h.deps.Karma(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, status)
}
