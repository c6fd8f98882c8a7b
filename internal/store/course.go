package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dulakshi2002/Edu-Code/internal/model"
)

const courseColumns = `id, title, language, description, content, author, created_at, updated_at`

func scanCourse(row rowScanner) (model.Course, error) {
	var c model.Course
	var content string
	if err := row.Scan(&c.ID, &c.Title, &c.Language, &c.Description, &content, &c.Author, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return c, err
	}
	if err := json.Unmarshal([]byte(content), &c.Content); err != nil {
		return c, fmt.Errorf("decode content of course %s: %w", c.ID, err)
	}
	return c, nil
}

func (s *Store) CreateCourse(ctx context.Context, in model.CourseInput) (model.Course, error) {
	now := s.now()
	c := model.Course{
		ID:          newID(),
		Title:       in.Title,
		Language:    in.Language,
		Description: in.Description,
		Content:     in.Content,
		Author:      in.Author,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	content, err := toJSON(c.Content)
	if err != nil {
		return model.Course{}, fmt.Errorf("encode content: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO courses (`+courseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Language, c.Description, content, c.Author, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return model.Course{}, fmt.Errorf("insert course: %w", err)
	}
	return c, nil
}

// ListCourses returns all courses, oldest first.
func (s *Store) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.listCourses(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at, rowid`)
}

// ListCoursesByLanguage returns the courses teaching one language.
func (s *Store) ListCoursesByLanguage(ctx context.Context, lang model.Language) ([]model.Course, error) {
	return s.listCourses(ctx, `SELECT `+courseColumns+` FROM courses WHERE language = ? ORDER BY created_at, rowid`, lang)
}

func (s *Store) listCourses(ctx context.Context, query string, args ...any) ([]model.Course, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()
	courses := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (s *Store) GetCourse(ctx context.Context, id string) (model.Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("course %s: %w", id, ErrNotFound)
	}
	return c, err
}

func (s *Store) UpdateCourse(ctx context.Context, id string, in model.CourseInput) (model.Course, error) {
	content, err := toJSON(in.Content)
	if err != nil {
		return model.Course{}, fmt.Errorf("encode content: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE courses SET title = ?, language = ?, description = ?, content = ?, author = ?, updated_at = ? WHERE id = ?`,
		in.Title, in.Language, in.Description, content, in.Author, s.now(), id,
	)
	if err != nil {
		return model.Course{}, fmt.Errorf("update course: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return model.Course{}, fmt.Errorf("course %s: %w", id, err)
	}
	return s.GetCourse(ctx, id)
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("course %s: %w", id, err)
	}
	return nil
}
