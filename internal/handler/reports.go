package handler

import (
	"log/slog"
	"net/http"

	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

// handleAddAttempt records a finished attempt for the caller. The result is
// stored as the client graded it; submitting the same attempt twice stores
// two reports.
func (h *Handler) handleAddAttempt(w http.ResponseWriter, r *http.Request) {
	var in model.AttemptInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := validate.Struct(in); err != nil {
		respondError(w, r, err, "")
		return
	}
	if _, err := h.store.GetExam(r.Context(), in.ExamID); err != nil {
		respondError(w, r, err, "Exam")
		return
	}

	user := model.UserFromContext(r.Context())
	report, err := h.store.CreateReport(r.Context(), in.ExamID, user.ID, in.Result)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	slog.Info("exam attempt recorded", "report_id", report.ID, "exam_id", in.ExamID, "user_id", user.ID, "verdict", in.Result.Verdict)
	respondOK(w, r, http.StatusCreated, "AttemptAdded", report)
}

// handleListUserAttempts lists the caller's reports. Admins may pass userId
// to list another user's reports.
func (h *Handler) handleListUserAttempts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		respondError(w, r, err, "")
		return
	}

	user := model.UserFromContext(r.Context())
	userID := user.ID
	if req.UserID != "" && req.UserID != user.ID {
		if !user.IsAdmin {
			respondError(w, r, errForbidden, "")
			return
		}
		userID = req.UserID
	}

	reports, err := h.store.ListReportsByUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "AttemptsFetched", reports)
}

func (h *Handler) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.ListReports(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "AttemptsFetched", reports)
}

func (h *Handler) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReportID string `json:"reportId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := requireID("reportId", req.ReportID); err != nil {
		respondError(w, r, err, "")
		return
	}
	if err := h.store.DeleteReport(r.Context(), req.ReportID); err != nil {
		respondError(w, r, err, "Report")
		return
	}
	respondOK(w, r, http.StatusOK, "ReportDeleted", nil)
}

func (h *Handler) handleExportReports(w http.ResponseWriter, r *http.Request) {
	export, err := h.store.ExportReports(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "ReportsExported", export)
}
