package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

func (h *Handler) handleListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCourses(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "CoursesFetched", courses)
}

func (h *Handler) handleListCoursesByLanguage(w http.ResponseWriter, r *http.Request) {
	courses, err := h.store.ListCoursesByLanguage(r.Context(), model.Language(chi.URLParam(r, "language")))
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "CoursesFetched", courses)
}

func (h *Handler) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.store.GetCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, "Course")
		return
	}
	respondOK(w, r, http.StatusOK, "CourseFetched", course)
}

func (h *Handler) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var in model.CourseInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	course, err := h.store.CreateCourse(r.Context(), in)
	if err != nil {
		respondError(w, r, err, "Course")
		return
	}
	respondOK(w, r, http.StatusCreated, "CourseCreated", course)
}

func (h *Handler) handleUpdateCourse(w http.ResponseWriter, r *http.Request) {
	var in model.CourseInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	course, err := h.store.UpdateCourse(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err, "Course")
		return
	}
	respondOK(w, r, http.StatusOK, "CourseUpdated", course)
}

func (h *Handler) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCourse(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err, "Course")
		return
	}
	respondOK(w, r, http.StatusOK, "CourseDeleted", nil)
}
