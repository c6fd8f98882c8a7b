package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dulakshi2002/Edu-Code/internal/model"
)

const forumColumns = `id, user_id, name, description, error_code, notes, languages, comments, created_at, updated_at`

func scanForumQuestion(row rowScanner) (model.ForumQuestion, error) {
	var q model.ForumQuestion
	var langs, comments string
	err := row.Scan(&q.ID, &q.UserID, &q.Name, &q.Description, &q.ErrorCode, &q.Notes, &langs, &comments, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return q, err
	}
	if err := json.Unmarshal([]byte(langs), &q.ProgrammingLanguages); err != nil {
		return q, fmt.Errorf("decode languages of question %s: %w", q.ID, err)
	}
	if err := json.Unmarshal([]byte(comments), &q.Comments); err != nil {
		return q, fmt.Errorf("decode comments of question %s: %w", q.ID, err)
	}
	return q, nil
}

func (s *Store) CreateForumQuestion(ctx context.Context, userID string, in model.ForumQuestionInput) (model.ForumQuestion, error) {
	now := s.now()
	q := model.ForumQuestion{
		ID:                   newID(),
		UserID:               userID,
		Name:                 in.Name,
		Description:          in.Description,
		ErrorCode:            in.ErrorCode,
		Notes:                in.Notes,
		ProgrammingLanguages: in.ProgrammingLanguages,
		Comments:             []model.Comment{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	langs, err := toJSON(q.ProgrammingLanguages)
	if err != nil {
		return model.ForumQuestion{}, fmt.Errorf("encode languages: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO forum_questions (`+forumColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, '[]', ?, ?)`,
		q.ID, q.UserID, q.Name, q.Description, q.ErrorCode, q.Notes, langs, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return model.ForumQuestion{}, fmt.Errorf("insert forum question: %w", err)
	}
	return q, nil
}

// ListForumQuestions returns the whole board, newest first.
func (s *Store) ListForumQuestions(ctx context.Context) ([]model.ForumQuestion, error) {
	return s.listForumQuestions(ctx, `SELECT `+forumColumns+` FROM forum_questions ORDER BY created_at DESC, rowid DESC`)
}

// ListForumQuestionsByUser returns the questions one user asked, newest first.
func (s *Store) ListForumQuestionsByUser(ctx context.Context, userID string) ([]model.ForumQuestion, error) {
	return s.listForumQuestions(ctx,
		`SELECT `+forumColumns+` FROM forum_questions WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
}

func (s *Store) listForumQuestions(ctx context.Context, query string, args ...any) ([]model.ForumQuestion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query forum questions: %w", err)
	}
	defer rows.Close()
	out := []model.ForumQuestion{}
	for rows.Next() {
		q, err := scanForumQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) GetForumQuestion(ctx context.Context, id string) (model.ForumQuestion, error) {
	q, err := scanForumQuestion(s.db.QueryRowContext(ctx, `SELECT `+forumColumns+` FROM forum_questions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return q, fmt.Errorf("forum question %s: %w", id, ErrNotFound)
	}
	return q, err
}

// UpdateForumQuestion replaces the question text. Comments are kept.
func (s *Store) UpdateForumQuestion(ctx context.Context, id string, in model.ForumQuestionInput) (model.ForumQuestion, error) {
	langs, err := toJSON(in.ProgrammingLanguages)
	if err != nil {
		return model.ForumQuestion{}, fmt.Errorf("encode languages: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE forum_questions SET name = ?, description = ?, error_code = ?, notes = ?, languages = ?, updated_at = ? WHERE id = ?`,
		in.Name, in.Description, in.ErrorCode, in.Notes, langs, s.now(), id,
	)
	if err != nil {
		return model.ForumQuestion{}, fmt.Errorf("update forum question: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return model.ForumQuestion{}, fmt.Errorf("forum question %s: %w", id, err)
	}
	return s.GetForumQuestion(ctx, id)
}

func (s *Store) DeleteForumQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM forum_questions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete forum question: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("forum question %s: %w", id, err)
	}
	return nil
}

// AddComment appends a reply to a question and returns the updated question.
func (s *Store) AddComment(ctx context.Context, id string, in model.CommentInput) (model.ForumQuestion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ForumQuestion{}, err
	}
	defer tx.Rollback()

	q, err := scanForumQuestion(tx.QueryRowContext(ctx, `SELECT `+forumColumns+` FROM forum_questions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ForumQuestion{}, fmt.Errorf("forum question %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.ForumQuestion{}, err
	}

	now := s.now()
	q.Comments = append(q.Comments, model.Comment{Description: in.Description, Code: in.Code, CreatedAt: now})
	q.UpdatedAt = now
	comments, err := toJSON(q.Comments)
	if err != nil {
		return model.ForumQuestion{}, fmt.Errorf("encode comments: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE forum_questions SET comments = ?, updated_at = ? WHERE id = ?`, comments, now, id,
	); err != nil {
		return model.ForumQuestion{}, fmt.Errorf("update comments: %w", err)
	}
	return q, tx.Commit()
}
