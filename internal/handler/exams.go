package handler

import (
	"log/slog"
	"net/http"

	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

type examIDRequest struct {
	ExamID string `json:"examId"`
}

type editExamRequest struct {
	ExamID string `json:"examId"`
	model.ExamInput
}

type addQuestionRequest struct {
	ExamID string `json:"exam"`
	model.QuestionInput
}

type editQuestionRequest struct {
	QuestionID string `json:"questionId"`
	model.QuestionInput
}

type deleteQuestionRequest struct {
	QuestionID string `json:"questionId"`
	ExamID     string `json:"examId"`
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var in model.ExamInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	exam, err := h.store.CreateExam(r.Context(), in)
	if err != nil {
		respondError(w, r, err, "Exam")
		return
	}
	slog.Info("exam created", "exam_id", exam.ID, "name", exam.Name)
	respondOK(w, r, http.StatusCreated, "ExamCreated", exam)
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.store.ListExams(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "ExamsFetched", exams)
}

// handleGetExam returns the exam with its questions, correct options
// included. Attempts are graded by the client.
func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	var req examIDRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := requireID("examId", req.ExamID); err != nil {
		respondError(w, r, err, "")
		return
	}
	exam, err := h.store.GetExam(r.Context(), req.ExamID)
	if err != nil {
		respondError(w, r, err, "Exam")
		return
	}
	respondOK(w, r, http.StatusOK, "ExamFetched", exam)
}

func (h *Handler) handleUpdateExam(w http.ResponseWriter, r *http.Request) {
	var req editExamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := requireID("examId", req.ExamID); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(req.ExamInput); err != nil {
		respondError(w, r, err, "")
		return
	}
	exam, err := h.store.UpdateExam(r.Context(), req.ExamID, req.ExamInput)
	if err != nil {
		respondError(w, r, err, "Exam")
		return
	}
	respondOK(w, r, http.StatusOK, "ExamUpdated", exam)
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	var req examIDRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := requireID("examId", req.ExamID); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := h.store.DeleteExam(r.Context(), req.ExamID); err != nil {
		respondError(w, r, err, "Exam")
		return
	}
	slog.Info("exam deleted", "exam_id", req.ExamID)
	respondOK(w, r, http.StatusOK, "ExamDeleted", nil)
}

// handleAddQuestion appends a question and returns the updated exam.
func (h *Handler) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var req addQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := requireID("exam", req.ExamID); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(req.QuestionInput); err != nil {
		respondError(w, r, err, "")
		return
	}
	if _, err := h.store.AddExamQuestion(r.Context(), req.ExamID, req.QuestionInput); err != nil {
		respondError(w, r, err, "Exam")
		return
	}
	exam, err := h.store.GetExam(r.Context(), req.ExamID)
	if err != nil {
		respondError(w, r, err, "Exam")
		return
	}
	respondOK(w, r, http.StatusCreated, "QuestionAdded", exam)
}

func (h *Handler) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req editQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := requireID("questionId", req.QuestionID); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(req.QuestionInput); err != nil {
		respondError(w, r, err, "")
		return
	}
	q, err := h.store.UpdateExamQuestion(r.Context(), req.QuestionID, req.QuestionInput)
	if err != nil {
		respondError(w, r, err, "Question")
		return
	}
	respondOK(w, r, http.StatusOK, "QuestionUpdated", q)
}

// handleDeleteQuestion removes a question. When examId is given the updated
// exam is returned.
func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	var req deleteQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := requireID("questionId", req.QuestionID); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := h.store.DeleteExamQuestion(r.Context(), req.QuestionID); err != nil {
		respondError(w, r, err, "Question")
		return
	}
	if req.ExamID == "" {
		respondOK(w, r, http.StatusOK, "QuestionDeleted", nil)
		return
	}
	exam, err := h.store.GetExam(r.Context(), req.ExamID)
	if err != nil {
		respondError(w, r, err, "Exam")
		return
	}
	respondOK(w, r, http.StatusOK, "QuestionDeleted", exam)
}
