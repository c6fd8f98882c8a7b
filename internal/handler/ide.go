package handler

import (
	"net/http"

	"github.com/dulakshi2002/Edu-Code/internal/codeexec"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

// handleRunCode forwards IDE code to the execution service. The provider's
// result is returned as is, outside the usual envelope, because the IDE
// reads the fields directly.
func (h *Handler) handleRunCode(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		respondError(w, r, errRunnerDisabled, "")
		return
	}
	var req codeexec.Request
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, r, err, "")
		return
	}
	res, err := h.runner.Run(r.Context(), req)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondJSON(w, http.StatusCreated, res)
}
