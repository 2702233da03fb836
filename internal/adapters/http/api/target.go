package api

import (
	"encoding/json"
	"net/http"
)

type targetRequest struct {
	Indicator string `json:"indicator"`
}

type targetResponse struct {
	Indicator string `json:"indicator"`
}

// TargetHandler reads and selects the sensor target preset.
type TargetHandler struct {
	setter TargetSetter
}

// NewTargetHandler creates a new target handler.
func NewTargetHandler(setter TargetSetter) *TargetHandler {
	return &TargetHandler{setter: setter}
}

// HandleTarget handles GET and POST /target requests. POST takes
// {"indicator":"H"|"L"|"N"}.
func (h *TargetHandler) HandleTarget(w http.ResponseWriter, r *http.Request) {
	const op = "api.target"
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, targetResponse{Indicator: h.setter.Indicator()})
	case http.MethodPost:
		var req targetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
			return
		}
		if err := h.setter.SetTarget(req.Indicator); err != nil {
			writeError(w, http.StatusBadRequest, "unknown_indicator", wrapKind(op, ErrBadRequest, err))
			return
		}
		writeJSON(w, http.StatusOK, targetResponse{Indicator: h.setter.Indicator()})
	default:
		http.NotFound(w, r)
	}
}
