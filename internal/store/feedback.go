package store

import (
	"context"
	"fmt"

	"github.com/dulakshi2002/Edu-Code/internal/model"
)

// AddFeedback stores a contact form message.
func (s *Store) AddFeedback(ctx context.Context, in model.FeedbackInput) (model.Feedback, error) {
	f := model.Feedback{
		ID:        newID(),
		Name:      in.Name,
		Email:     in.Email,
		Descrp:    in.Descrp,
		CreatedAt: s.now(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, name, email, descrp, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Name, f.Email, f.Descrp, f.CreatedAt,
	)
	if err != nil {
		return model.Feedback{}, fmt.Errorf("insert feedback: %w", err)
	}
	return f, nil
}

// ListFeedback returns all messages, newest first.
func (s *Store) ListFeedback(ctx context.Context) ([]model.Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, descrp, created_at FROM feedback ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()
	out := []model.Feedback{}
	for rows.Next() {
		var f model.Feedback
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.Descrp, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
