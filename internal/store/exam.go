package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dulakshi2002/Edu-Code/internal/model"
)

const examColumns = `id, name, duration, category, total_marks, passing_marks, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExam(row rowScanner) (model.Exam, error) {
	var e model.Exam
	err := row.Scan(&e.ID, &e.Name, &e.Duration, &e.Category, &e.TotalMarks, &e.PassingMarks, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateExam inserts an exam definition without questions.
// A name already in use yields ErrDuplicate.
func (s *Store) CreateExam(ctx context.Context, in model.ExamInput) (model.Exam, error) {
	e, err := s.insertExam(ctx, s.db, in)
	if err != nil {
		return model.Exam{}, err
	}
	slog.Info("created exam", "id", e.ID, "name", e.Name)
	return e, nil
}

// CreateExamWithQuestions inserts an exam and its questions in one
// transaction. Either all of them are stored or none.
func (s *Store) CreateExamWithQuestions(ctx context.Context, in model.ExamInput, questions []model.QuestionInput) (model.Exam, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Exam{}, err
	}
	defer tx.Rollback()

	e, err := s.insertExam(ctx, tx, in)
	if err != nil {
		return model.Exam{}, err
	}
	for i, qin := range questions {
		q, err := insertQuestion(ctx, tx, e.ID, i, qin)
		if err != nil {
			return model.Exam{}, fmt.Errorf("exam %q question %d: %w", in.Name, i, err)
		}
		e.Questions = append(e.Questions, q)
	}
	if err := tx.Commit(); err != nil {
		return model.Exam{}, fmt.Errorf("commit exam: %w", err)
	}
	slog.Info("created exam", "id", e.ID, "name", e.Name, "questions", len(e.Questions))
	return e, nil
}

func insertQuestion(ctx context.Context, x execer, examID string, pos int, in model.QuestionInput) (model.ExamQuestion, error) {
	q := model.ExamQuestion{
		ID:            newID(),
		ExamID:        examID,
		Name:          in.Name,
		Options:       in.Options,
		CorrectOption: in.CorrectOption,
	}
	opts, err := toJSON(q.Options)
	if err != nil {
		return model.ExamQuestion{}, fmt.Errorf("encode options: %w", err)
	}
	_, err = x.ExecContext(ctx,
		`INSERT INTO exam_questions (id, exam_id, position, name, options, correct_option) VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, q.ExamID, pos, q.Name, opts, q.CorrectOption,
	)
	if err != nil {
		return model.ExamQuestion{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

func (s *Store) insertExam(ctx context.Context, x execer, in model.ExamInput) (model.Exam, error) {
	now := s.now()
	e := model.Exam{
		ID:           newID(),
		Name:         in.Name,
		Duration:     in.Duration,
		Category:     in.Category,
		TotalMarks:   in.TotalMarks,
		PassingMarks: in.PassingMarks,
		Questions:    []model.ExamQuestion{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := x.ExecContext(ctx,
		`INSERT INTO exams (`+examColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Duration, e.Category, e.TotalMarks, e.PassingMarks, e.CreatedAt, e.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return model.Exam{}, fmt.Errorf("exam %q: %w", in.Name, ErrDuplicate)
	}
	if err != nil {
		return model.Exam{}, fmt.Errorf("insert exam: %w", err)
	}
	return e, nil
}

// ListExams returns all exams with their questions, newest first.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+examColumns+` FROM exams ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query exams: %w", err)
	}
	exams := []model.Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan exam: %w", err)
		}
		exams = append(exams, e)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byExam, err := s.allQuestions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range exams {
		exams[i].Questions = byExam[exams[i].ID]
		if exams[i].Questions == nil {
			exams[i].Questions = []model.ExamQuestion{}
		}
	}
	return exams, nil
}

// GetExam returns an exam with its questions in the order they were added.
func (s *Store) GetExam(ctx context.Context, id string) (model.Exam, error) {
	e, err := scanExam(s.db.QueryRowContext(ctx, `SELECT `+examColumns+` FROM exams WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Exam{}, fmt.Errorf("exam %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Exam{}, fmt.Errorf("get exam: %w", err)
	}
	e.Questions, err = s.examQuestions(ctx, id)
	if err != nil {
		return model.Exam{}, err
	}
	return e, nil
}

// UpdateExam replaces the writable fields of an exam.
func (s *Store) UpdateExam(ctx context.Context, id string, in model.ExamInput) (model.Exam, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE exams SET name = ?, duration = ?, category = ?, total_marks = ?, passing_marks = ?, updated_at = ?
		 WHERE id = ?`,
		in.Name, in.Duration, in.Category, in.TotalMarks, in.PassingMarks, s.now(), id,
	)
	if isUniqueViolation(err) {
		return model.Exam{}, fmt.Errorf("exam %q: %w", in.Name, ErrDuplicate)
	}
	if err != nil {
		return model.Exam{}, fmt.Errorf("update exam: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return model.Exam{}, fmt.Errorf("exam %s: %w", id, err)
	}
	return s.GetExam(ctx, id)
}

// DeleteExam removes an exam and its questions. Reports that reference it
// are kept and show no exam afterwards.
func (s *Store) DeleteExam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exams WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("exam %s: %w", id, err)
	}
	slog.Info("deleted exam", "id", id)
	return nil
}

// AddExamQuestion appends a question to an exam.
func (s *Store) AddExamQuestion(ctx context.Context, examID string, in model.QuestionInput) (model.ExamQuestion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ExamQuestion{}, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM exams WHERE id = ?`, examID).Scan(&exists)
	if err != nil {
		return model.ExamQuestion{}, fmt.Errorf("check exam: %w", err)
	}
	if exists == 0 {
		return model.ExamQuestion{}, fmt.Errorf("exam %s: %w", examID, ErrNotFound)
	}

	var pos int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM exam_questions WHERE exam_id = ?`, examID,
	).Scan(&pos)
	if err != nil {
		return model.ExamQuestion{}, fmt.Errorf("next position: %w", err)
	}

	q, err := insertQuestion(ctx, tx, examID, pos, in)
	if err != nil {
		return model.ExamQuestion{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE exams SET updated_at = ? WHERE id = ?`, s.now(), examID); err != nil {
		return model.ExamQuestion{}, fmt.Errorf("touch exam: %w", err)
	}
	return q, tx.Commit()
}

// UpdateExamQuestion replaces a question's prompt, options and answer key.
func (s *Store) UpdateExamQuestion(ctx context.Context, questionID string, in model.QuestionInput) (model.ExamQuestion, error) {
	opts, err := toJSON(in.Options)
	if err != nil {
		return model.ExamQuestion{}, fmt.Errorf("encode options: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE exam_questions SET name = ?, options = ?, correct_option = ? WHERE id = ?`,
		in.Name, opts, in.CorrectOption, questionID,
	)
	if err != nil {
		return model.ExamQuestion{}, fmt.Errorf("update question: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return model.ExamQuestion{}, fmt.Errorf("question %s: %w", questionID, err)
	}
	return s.getExamQuestion(ctx, questionID)
}

// DeleteExamQuestion removes a question from its exam.
func (s *Store) DeleteExamQuestion(ctx context.Context, questionID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exam_questions WHERE id = ?`, questionID)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("question %s: %w", questionID, err)
	}
	return nil
}

// ExamCount returns the number of exams.
func (s *Store) ExamCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exams`).Scan(&count)
	return count, err
}

const questionColumns = `id, exam_id, name, options, correct_option`

func scanQuestion(row rowScanner) (model.ExamQuestion, error) {
	var q model.ExamQuestion
	var opts string
	if err := row.Scan(&q.ID, &q.ExamID, &q.Name, &opts, &q.CorrectOption); err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
		return q, fmt.Errorf("decode options of question %s: %w", q.ID, err)
	}
	return q, nil
}

func (s *Store) getExamQuestion(ctx context.Context, id string) (model.ExamQuestion, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM exam_questions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return q, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	return q, err
}

func (s *Store) examQuestions(ctx context.Context, examID string) ([]model.ExamQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM exam_questions WHERE exam_id = ? ORDER BY position`, examID,
	)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()
	questions := []model.ExamQuestion{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *Store) allQuestions(ctx context.Context) (map[string][]model.ExamQuestion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+questionColumns+` FROM exam_questions ORDER BY exam_id, position`)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]model.ExamQuestion)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out[q.ExamID] = append(out[q.ExamID], q)
	}
	return out, rows.Err()
}
