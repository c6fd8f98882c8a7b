package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dulakshi2002/Edu-Code/internal/model"
)

const projectColumns = `id, user_id, name, code, language, created_at, updated_at`

func scanProject(row rowScanner) (model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Code, &p.Language, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) CreateProject(ctx context.Context, userID string, in model.ProjectInput) (model.Project, error) {
	now := s.now()
	p := model.Project{
		ID:        newID(),
		UserID:    userID,
		Name:      in.Name,
		Code:      in.Code,
		Language:  in.Language,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Code, p.Language, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return model.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// ListProjectsByUser returns a user's saved projects, most recently updated first.
func (s *Store) ListProjectsByUser(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY updated_at DESC, rowid DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()
	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id string) (model.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p, err
}

func (s *Store) UpdateProject(ctx context.Context, id string, in model.ProjectInput) (model.Project, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, code = ?, language = ?, updated_at = ? WHERE id = ?`,
		in.Name, in.Code, in.Language, s.now(), id,
	)
	if err != nil {
		return model.Project{}, fmt.Errorf("update project: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return model.Project{}, fmt.Errorf("project %s: %w", id, err)
	}
	return s.GetProject(ctx, id)
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("project %s: %w", id, err)
	}
	return nil
}
