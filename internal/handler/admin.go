package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dulakshi2002/Edu-Code/internal/seed"
)

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "UsersFetched", users)
}

func (h *Handler) handleSetUserAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsAdmin bool `json:"isAdmin"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, "")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.store.SetUserAdmin(r.Context(), id, req.IsAdmin); err != nil {
		respondError(w, r, err, "User")
		return
	}
	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	slog.Info("changed admin flag", "user_id", id, "is_admin", req.IsAdmin)
	respondOK(w, r, http.StatusOK, "UserUpdated", user)
}

// handleUploadSeed imports an uploaded YAML seed file. A file name that was
// imported before is skipped the same way the startup import skips it.
func (h *Handler) handleUploadSeed(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		respondError(w, r, errInvalidUpload, "")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errInvalidUpload, "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, err, "")
		return
	}

	sum, err := seed.Import(r.Context(), h.store, "upload:"+header.Filename, data)
	if errors.Is(err, seed.ErrInvalidFile) {
		err = errInvalidUpload
	}
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	slog.Info("uploaded seed file via admin", "filename", header.Filename, "exams", sum.Exams, "courses", sum.Courses)
	respondOK(w, r, http.StatusOK, "SeedImported", sum)
}
