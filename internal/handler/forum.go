package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

func (h *Handler) handleCreateForumQuestion(w http.ResponseWriter, r *http.Request) {
	var in model.ForumQuestionInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	user := model.UserFromContext(r.Context())
	q, err := h.store.CreateForumQuestion(r.Context(), user.ID, in)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusCreated, "ForumQuestionCreated", q)
}

func (h *Handler) handleListForumQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := h.store.ListForumQuestions(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "ForumQuestionsFetched", qs)
}

func (h *Handler) handleListMyForumQuestions(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	qs, err := h.store.ListForumQuestionsByUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "ForumQuestionsFetched", qs)
}

func (h *Handler) handleGetForumQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.store.GetForumQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, "Question")
		return
	}
	respondOK(w, r, http.StatusOK, "ForumQuestionFetched", q)
}

func (h *Handler) modifiableForumQuestion(r *http.Request) (model.ForumQuestion, error) {
	q, err := h.store.GetForumQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return q, err
	}
	if !canModify(model.UserFromContext(r.Context()), q.UserID) {
		return q, errForbidden
	}
	return q, nil
}

func (h *Handler) handleUpdateForumQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.modifiableForumQuestion(r)
	if err != nil {
		respondError(w, r, err, "Question")
		return
	}
	var in model.ForumQuestionInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	updated, err := h.store.UpdateForumQuestion(r.Context(), q.ID, in)
	if err != nil {
		respondError(w, r, err, "Question")
		return
	}
	respondOK(w, r, http.StatusOK, "ForumQuestionUpdated", updated)
}

func (h *Handler) handleDeleteForumQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.modifiableForumQuestion(r)
	if err != nil {
		respondError(w, r, err, "Question")
		return
	}
	if err := h.store.DeleteForumQuestion(r.Context(), q.ID); err != nil {
		respondError(w, r, err, "Question")
		return
	}
	respondOK(w, r, http.StatusOK, "ForumQuestionDeleted", nil)
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var in model.CommentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	q, err := h.store.AddComment(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, err, "Question")
		return
	}
	respondOK(w, r, http.StatusCreated, "CommentAdded", q)
}

// handleSuggestAnswer asks the assistant for a draft reply. The draft is
// returned to the caller and not stored as a comment.
func (h *Handler) handleSuggestAnswer(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		respondError(w, r, errAssistantDisabled, "")
		return
	}
	q, err := h.store.GetForumQuestion(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, "Question")
		return
	}
	s, err := h.assistant.SuggestAnswer(r.Context(), q)
	if err != nil {
		slog.Error("assistant suggestion failed", "question_id", q.ID, "error", err)
		respondError(w, r, errAssistantFailed, "")
		return
	}
	respondOK(w, r, http.StatusOK, "SuggestionReady", s)
}
