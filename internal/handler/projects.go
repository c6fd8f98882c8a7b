package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	projects, err := h.store.ListProjectsByUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "ProjectsFetched", projects)
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in model.ProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	user := model.UserFromContext(r.Context())
	project, err := h.store.CreateProject(r.Context(), user.ID, in)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusCreated, "ProjectCreated", project)
}

// ownProject loads a project owned by the caller. Admins get no exception.
func (h *Handler) ownProject(r *http.Request) (model.Project, error) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return p, err
	}
	if p.UserID != model.UserFromContext(r.Context()).ID {
		return model.Project{}, errForbidden
	}
	return p, nil
}

func (h *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownProject(r)
	if err != nil {
		respondError(w, r, err, "Project")
		return
	}
	respondOK(w, r, http.StatusOK, "ProjectFetched", p)
}

func (h *Handler) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownProject(r)
	if err != nil {
		respondError(w, r, err, "Project")
		return
	}
	var in model.ProjectInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	updated, err := h.store.UpdateProject(r.Context(), p.ID, in)
	if err != nil {
		respondError(w, r, err, "Project")
		return
	}
	respondOK(w, r, http.StatusOK, "ProjectUpdated", updated)
}

func (h *Handler) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.ownProject(r)
	if err != nil {
		respondError(w, r, err, "Project")
		return
	}
	if err := h.store.DeleteProject(r.Context(), p.ID); err != nil {
		respondError(w, r, err, "Project")
		return
	}
	respondOK(w, r, http.StatusOK, "ProjectDeleted", nil)
}
