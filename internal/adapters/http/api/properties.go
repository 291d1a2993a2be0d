package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// PropertyDependencies defines the interface for property registration.
type PropertyDependencies interface {
	UpsertProperty(ctx context.Context, propertyID string, official, asking *int64) error
}

// PropertiesHandler handles property registration requests.
type PropertiesHandler struct {
	deps PropertyDependencies
}

// NewPropertiesHandler creates a new properties handler.
func NewPropertiesHandler(deps PropertyDependencies) *PropertiesHandler {
	return &PropertiesHandler{deps: deps}
}

// propertyRequest mirrors the OpenAPI schema for PUT /properties.
type propertyRequest struct {
	PropertyID    string `json:"property_id"`
	OfficialValue *int64 `json:"official_value"`
	AskingPrice   *int64 `json:"asking_price"`
}

func (p propertyRequest) validate() error {
	switch {
	case strings.TrimSpace(p.PropertyID) == "":
		return errors.New("missing property_id")
	case p.OfficialValue != nil && *p.OfficialValue <= 0:
		return errors.New("official_value must be positive")
	case p.AskingPrice != nil && *p.AskingPrice <= 0:
		return errors.New("asking_price must be positive")
	}
	return nil
}

// HandlePutProperty handles PUT /properties requests, registering or
// updating a property's reference prices.
func (h *PropertiesHandler) HandlePutProperty(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_property"
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req propertyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if err := h.deps.UpsertProperty(r.Context(), req.PropertyID, req.OfficialValue, req.AskingPrice); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
