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

// SaleDependencies defines the interface for sale submission dependencies.
type SaleDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, s model.Submission) bool
}

// SalesHandler handles sale event submissions.
type SalesHandler struct {
	deps SaleDependencies
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(deps SaleDependencies) *SalesHandler {
	return &SalesHandler{deps: deps}
}

// saleRequest mirrors the OpenAPI schema for POST /sales.
type saleRequest struct {
	SaleID     string `json:"sale_id"`
	PropertyID string `json:"property_id"`
	SalePrice  int64  `json:"sale_price"`
	TS         string `json:"ts"`
}

func (s saleRequest) validate() error {
	switch {
	case strings.TrimSpace(s.PropertyID) == "":
		return errors.New("missing property_id")
	case s.SalePrice <= 0:
		return errors.New("sale_price must be positive")
	}
	if s.TS != "" {
		if _, err := time.Parse(time.RFC3339, s.TS); err != nil {
			return errors.New("invalid ts; must be RFC3339")
		}
	}
	return nil
}

// HandlePostSale handles POST /sales requests.
func (h *SalesHandler) HandlePostSale(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_sale"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req saleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		metrics.RecordSubmissionFailed("sale", "validation")
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if strings.TrimSpace(req.SaleID) == "" {
		req.SaleID = uuid.NewString()
	}

	if h.deps.SeenAndRecord(r.Context(), req.SaleID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	ts := time.Now()
	if req.TS != "" {
		ts, _ = time.Parse(time.RFC3339, req.TS)
	}

	sub := model.Submission{
		ID:         req.SaleID,
		Kind:       model.SubmissionSale,
		PropertyID: req.PropertyID,
		Price:      req.SalePrice,
		TS:         ts,
	}
	if ok := h.deps.Enqueue(r.Context(), sub); !ok {
		h.deps.Unrecord(r.Context(), req.SaleID)
		metrics.RecordSubmissionFailed("sale", "backpressure")
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
