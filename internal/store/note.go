package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dulakshi2002/Edu-Code/internal/model"
)

const noteColumns = `id, user_id, course, date, title, language, content, important, created_at, updated_at`

func scanNote(row rowScanner) (model.Note, error) {
	var n model.Note
	err := row.Scan(&n.ID, &n.UserID, &n.Course, &n.Date, &n.Title, &n.Language, &n.Content, &n.Important, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func (s *Store) CreateNote(ctx context.Context, userID string, in model.NoteInput) (model.Note, error) {
	now := s.now()
	n := model.Note{
		ID:        newID(),
		UserID:    userID,
		Course:    in.Course,
		Date:      in.Date.UTC(),
		Title:     in.Title,
		Language:  in.Language,
		Content:   in.Content,
		Important: in.Important,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Course, n.Date, n.Title, n.Language, n.Content, n.Important, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return model.Note{}, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

// ListNotes returns every user's notes, newest first.
func (s *Store) ListNotes(ctx context.Context) ([]model.Note, error) {
	return s.listNotes(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY created_at DESC, rowid DESC`)
}

// ListNotesByUser returns one user's notes, newest first.
func (s *Store) ListNotesByUser(ctx context.Context, userID string) ([]model.Note, error) {
	return s.listNotes(ctx, `SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
}

func (s *Store) listNotes(ctx context.Context, query string, args ...any) ([]model.Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()
	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *Store) GetNote(ctx context.Context, id string) (model.Note, error) {
	n, err := scanNote(s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return n, fmt.Errorf("note %s: %w", id, ErrNotFound)
	}
	return n, err
}

func (s *Store) UpdateNote(ctx context.Context, id string, in model.NoteInput) (model.Note, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET course = ?, date = ?, title = ?, language = ?, content = ?, important = ?, updated_at = ? WHERE id = ?`,
		in.Course, in.Date.UTC(), in.Title, in.Language, in.Content, in.Important, s.now(), id,
	)
	if err != nil {
		return model.Note{}, fmt.Errorf("update note: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return model.Note{}, fmt.Errorf("note %s: %w", id, err)
	}
	return s.GetNote(ctx, id)
}

func (s *Store) DeleteNote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("note %s: %w", id, err)
	}
	return nil
}
