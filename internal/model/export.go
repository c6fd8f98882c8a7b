package model

import "time"

// ReportExport is the top-level JSON structure for exam report export.
type ReportExport struct {
	GeneratedAt time.Time         `json:"generated_at"`
	NumReports  int               `json:"num_reports"`
	Reports     []ReportExportRow `json:"reports"`
}

// ReportExportRow flattens one report for export.
type ReportExportRow struct {
	ReportID     string    `json:"report_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	ExamName     string    `json:"exam_name"`
	Category     Category  `json:"category"`
	TotalMarks   int       `json:"total_marks"`
	PassingMarks int       `json:"passing_marks"`
	Correct      int       `json:"correct"`
	Wrong        int       `json:"wrong"`
	Verdict      Verdict   `json:"verdict"`
	AttemptNo    int       `json:"attempt_number"`
	CreatedAt    time.Time `json:"created_at"`
}
