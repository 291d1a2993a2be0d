package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/plotcrowd/fairval/internal/domain/model"
)

// ValuationDependencies defines the interface for valuation reads.
type ValuationDependencies interface {
	Valuation(ctx context.Context, propertyID string) (model.FMVResult, error)
}

// ValuationHandler handles fair-market-value reads.
type ValuationHandler struct {
	deps ValuationDependencies
}

// NewValuationHandler creates a new valuation handler.
func NewValuationHandler(deps ValuationDependencies) *ValuationHandler {
	return &ValuationHandler{deps: deps}
}

// HandleGetValuation handles GET /properties/{property_id}/valuation requests.
func (h *ValuationHandler) HandleGetValuation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_valuation"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest, ok := pathParam(r.URL.Path, "/properties/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	propertyID, found := strings.CutSuffix(rest, "/valuation")
	if !found || propertyID == "" || strings.Contains(propertyID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	result, err := h.deps.Valuation(r.Context(), propertyID)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
