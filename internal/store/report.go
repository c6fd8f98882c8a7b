package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dulakshi2002/Edu-Code/internal/model"
)

// CreateReport stores a finished attempt exactly as submitted. Every call
// adds a new report; nothing is deduplicated.
func (s *Store) CreateReport(ctx context.Context, examID, userID string, result model.ExamResult) (model.ExamReport, error) {
	now := s.now()
	r := model.ExamReport{
		ID:        newID(),
		UserID:    userID,
		ExamID:    examID,
		Result:    normalizeResult(result),
		CreatedAt: now,
		UpdatedAt: now,
	}
	body, err := toJSON(r.Result)
	if err != nil {
		return model.ExamReport{}, fmt.Errorf("encode result: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exam_reports (id, user_id, exam_id, result, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ExamID, body, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return model.ExamReport{}, fmt.Errorf("insert report: %w", err)
	}
	slog.Info("recorded exam attempt", "report_id", r.ID, "exam_id", examID, "user_id", userID, "verdict", result.Verdict)
	return r, nil
}

// RecordAttempt stores a finished attempt and discards the new report.
func (s *Store) RecordAttempt(ctx context.Context, examID, userID string, result model.ExamResult) error {
	_, err := s.CreateReport(ctx, examID, userID, result)
	return err
}

// ListReportsByUser returns one user's reports, newest first.
func (s *Store) ListReportsByUser(ctx context.Context, userID string) ([]model.ReportView, error) {
	return s.listReports(ctx, `WHERE r.user_id = ?`, userID)
}

// ListReports returns every report with its exam and user, newest first.
func (s *Store) ListReports(ctx context.Context) ([]model.ReportView, error) {
	return s.listReports(ctx, ``)
}

// DeleteReport removes a report by ID.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exam_reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("report %s: %w", id, err)
	}
	return nil
}

func (s *Store) listReports(ctx context.Context, where string, args ...any) ([]model.ReportView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.exam_id, r.result, r.created_at, r.updated_at,
		        e.id, e.name, e.category, e.total_marks, e.passing_marks,
		        u.id, u.username, u.email
		 FROM exam_reports r
		 LEFT JOIN exams e ON e.id = r.exam_id
		 LEFT JOIN users u ON u.id = r.user_id
		 `+where+`
		 ORDER BY r.created_at DESC, r.rowid DESC`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	reports := []model.ReportView{}
	for rows.Next() {
		var (
			v                       model.ReportView
			body                    string
			examID, examName, cat   sql.NullString
			total, passing          sql.NullInt64
			userID, username, email sql.NullString
		)
		err := rows.Scan(&v.ID, &v.UserID, &v.ExamID, &body, &v.CreatedAt, &v.UpdatedAt,
			&examID, &examName, &cat, &total, &passing,
			&userID, &username, &email)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if err := json.Unmarshal([]byte(body), &v.Result); err != nil {
			return nil, fmt.Errorf("decode result of report %s: %w", v.ID, err)
		}
		if examID.Valid {
			v.Exam = &model.ExamSummary{
				ID:           examID.String,
				Name:         examName.String,
				Category:     model.Category(cat.String),
				TotalMarks:   int(total.Int64),
				PassingMarks: int(passing.Int64),
			}
		}
		if userID.Valid {
			v.User = &model.UserSummary{ID: userID.String, Username: username.String, Email: email.String}
		}
		reports = append(reports, v)
	}
	return reports, rows.Err()
}

func normalizeResult(r model.ExamResult) model.ExamResult {
	if r.CorrectAnswers == nil {
		r.CorrectAnswers = []model.ExamQuestion{}
	}
	if r.WrongAnswers == nil {
		r.WrongAnswers = []model.ExamQuestion{}
	}
	return r
}
