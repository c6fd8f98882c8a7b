// Package seed imports exams and courses from YAML files.
//
// A file is imported once. Its sha256 is recorded after a successful import;
// an unchanged file is skipped and a changed one is skipped with a warning,
// so edits never duplicate or rewrite exams that already have reports.
package seed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/store"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

// ErrInvalidFile is returned when a seed file is not valid YAML.
var ErrInvalidFile = errors.New("invalid seed file")

// File is the layout of a seed file.
type File struct {
	Exams   []Exam              `yaml:"exams"`
	Courses []model.CourseInput `yaml:"courses"`
}

// Exam is an exam definition with its questions.
type Exam struct {
	model.ExamInput `yaml:",inline"`
	Questions       []model.QuestionInput `yaml:"questions"`
}

// Store is the persistence the importer needs.
type Store interface {
	GetImportedFileHash(ctx context.Context, path string) (string, error)
	SetImportedFileHash(ctx context.Context, path, hash string) error
	CreateExamWithQuestions(ctx context.Context, in model.ExamInput, questions []model.QuestionInput) (model.Exam, error)
	CreateCourse(ctx context.Context, in model.CourseInput) (model.Course, error)
}

// Summary counts what an import created.
type Summary struct {
	Files     int `json:"files"`
	Skipped   int `json:"skipped"`
	Exams     int `json:"exams"`
	Questions int `json:"questions"`
	Courses   int `json:"courses"`
}

// Parse decodes and validates a seed file.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	for i, e := range f.Exams {
		if err := validate.Struct(e.ExamInput); err != nil {
			return File{}, fmt.Errorf("exam %d (%s): %w", i, e.Name, err)
		}
		for j, q := range e.Questions {
			if err := validate.Struct(q); err != nil {
				return File{}, fmt.Errorf("exam %d (%s) question %d: %w", i, e.Name, j, err)
			}
		}
	}
	for i, c := range f.Courses {
		if err := validate.Struct(c); err != nil {
			return File{}, fmt.Errorf("course %d (%s): %w", i, c.Title, err)
		}
	}
	return f, nil
}

// Load imports every path that was not imported before.
func Load(ctx context.Context, st Store, paths []string) (Summary, error) {
	var sum Summary
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return sum, fmt.Errorf("read %s: %w", path, err)
		}
		s, err := Import(ctx, st, path, data)
		sum.add(s)
		if err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// Import imports data under name unless a file of that name was imported
// before. Uploaded files are tracked by name the same way Load tracks paths.
func Import(ctx context.Context, st Store, name string, data []byte) (Summary, error) {
	var sum Summary
	hash := sha256sum(data)
	storedHash, err := st.GetImportedFileHash(ctx, name)
	if err != nil {
		return sum, fmt.Errorf("check import status for %s: %w", name, err)
	}
	if storedHash == hash {
		slog.Info("seed file unchanged, skipping", "path", name)
		sum.Skipped++
		return sum, nil
	}
	if storedHash != "" {
		slog.Warn("seed file changed since last import, skipping to keep existing exams intact", "path", name)
		sum.Skipped++
		return sum, nil
	}

	f, err := Parse(data)
	if err != nil {
		return sum, fmt.Errorf("parse %s: %w", name, err)
	}
	if err := importFile(ctx, st, f, &sum); err != nil {
		return sum, fmt.Errorf("import %s: %w", name, err)
	}
	if err := st.SetImportedFileHash(ctx, name, hash); err != nil {
		return sum, fmt.Errorf("record import for %s: %w", name, err)
	}
	sum.Files++
	slog.Info("imported seed file", "path", name, "exams", sum.Exams, "courses", sum.Courses)
	return sum, nil
}

func (s *Summary) add(o Summary) {
	s.Files += o.Files
	s.Skipped += o.Skipped
	s.Exams += o.Exams
	s.Questions += o.Questions
	s.Courses += o.Courses
}

func importFile(ctx context.Context, st Store, f File, sum *Summary) error {
	for _, e := range f.Exams {
		exam, err := st.CreateExamWithQuestions(ctx, e.ExamInput, e.Questions)
		if errors.Is(err, store.ErrDuplicate) {
			slog.Warn("exam already exists, skipping", "name", e.Name)
			continue
		}
		if err != nil {
			return fmt.Errorf("create exam %s: %w", e.Name, err)
		}
		sum.Exams++
		sum.Questions += len(exam.Questions)
	}
	for _, c := range f.Courses {
		if _, err := st.CreateCourse(ctx, c); err != nil {
			return err
		}
		sum.Courses++
	}
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
