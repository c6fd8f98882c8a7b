package handler

import (
	"net/http"

	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

func (h *Handler) handleAddFeedback(w http.ResponseWriter, r *http.Request) {
	var in model.FeedbackInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	f, err := h.store.AddFeedback(r.Context(), in)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusCreated, "FeedbackAdded", f)
}

func (h *Handler) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListFeedback(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "FeedbackFetched", list)
}
