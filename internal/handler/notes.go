package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

func (h *Handler) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var in model.NoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	user := model.UserFromContext(r.Context())
	note, err := h.store.CreateNote(r.Context(), user.ID, in)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusCreated, "NoteCreated", note)
}

func (h *Handler) handleListMyNotes(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	notes, err := h.store.ListNotesByUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "NotesFetched", notes)
}

func (h *Handler) handleListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.ListNotes(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "NotesFetched", notes)
}

// ownNote loads a note the caller may access.
func (h *Handler) ownNote(r *http.Request) (model.Note, error) {
	note, err := h.store.GetNote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return note, err
	}
	if !canModify(model.UserFromContext(r.Context()), note.UserID) {
		return note, errForbidden
	}
	return note, nil
}

func (h *Handler) handleGetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.ownNote(r)
	if err != nil {
		respondError(w, r, err, "Note")
		return
	}
	respondOK(w, r, http.StatusOK, "NoteFetched", note)
}

// handleUpdateNote keeps the note's original date.
func (h *Handler) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.ownNote(r)
	if err != nil {
		respondError(w, r, err, "Note")
		return
	}
	var in model.NoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	in.Date = note.Date
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	updated, err := h.store.UpdateNote(r.Context(), note.ID, in)
	if err != nil {
		respondError(w, r, err, "Note")
		return
	}
	respondOK(w, r, http.StatusOK, "NoteUpdated", updated)
}

func (h *Handler) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.ownNote(r)
	if err != nil {
		respondError(w, r, err, "Note")
		return
	}
	if err := h.store.DeleteNote(r.Context(), note.ID); err != nil {
		respondError(w, r, err, "Note")
		return
	}
	respondOK(w, r, http.StatusOK, "NoteDeleted", nil)
}
