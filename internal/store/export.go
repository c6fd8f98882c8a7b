package store

import (
	"context"
	"fmt"

	"github.com/dulakshi2002/Edu-Code/internal/model"
)

// ExportReports flattens all reports in chronological order. AttemptNo
// counts a user's attempts at the same exam, starting at 1.
func (s *Store) ExportReports(ctx context.Context) (model.ReportExport, error) {
	reports, err := s.ListReports(ctx)
	if err != nil {
		return model.ReportExport{}, fmt.Errorf("list reports: %w", err)
	}

	type attemptKey struct{ user, exam string }
	attempts := make(map[attemptKey]int)

	rows := make([]model.ReportExportRow, 0, len(reports))
	for i := len(reports) - 1; i >= 0; i-- {
		r := reports[i]
		k := attemptKey{r.UserID, r.ExamID}
		attempts[k]++

		row := model.ReportExportRow{
			ReportID:  r.ID,
			Correct:   len(r.Result.CorrectAnswers),
			Wrong:     len(r.Result.WrongAnswers),
			Verdict:   r.Result.Verdict,
			AttemptNo: attempts[k],
			CreatedAt: r.CreatedAt,
		}
		if r.User != nil {
			row.Username = r.User.Username
			row.Email = r.User.Email
		}
		if r.Exam != nil {
			row.ExamName = r.Exam.Name
			row.Category = r.Exam.Category
			row.TotalMarks = r.Exam.TotalMarks
			row.PassingMarks = r.Exam.PassingMarks
		}
		rows = append(rows, row)
	}

	return model.ReportExport{
		GeneratedAt: s.now(),
		NumReports:  len(rows),
		Reports:     rows,
	}, nil
}
