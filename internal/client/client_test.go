package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dulakshi2002/Edu-Code/internal/auth"
	"github.com/dulakshi2002/Edu-Code/internal/codeexec"
	"github.com/dulakshi2002/Edu-Code/internal/handler"
	appI18n "github.com/dulakshi2002/Edu-Code/internal/i18n"
	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/session"
	"github.com/dulakshi2002/Edu-Code/internal/store"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

type echoRunner struct{}

func (echoRunner) Run(_ context.Context, req codeexec.Request) (codeexec.Result, error) {
	return codeexec.Result{Output: req.Input, StatusCode: 200}, nil
}

// newServer starts an API server with one admin (admin@example.com) and one
// student (student@example.com), both with password "password123", and an
// exam whose correct answers are all "B".
func newServer(t *testing.T) (*httptest.Server, *store.Store, model.Exam) {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"admin", "student"} {
		u, err := s.CreateUser(ctx, model.User{Username: name, Email: name + "@example.com", PasswordHash: string(hash)})
		if err != nil {
			t.Fatal(err)
		}
		if name == "admin" {
			if err := s.SetUserAdmin(ctx, u.ID, true); err != nil {
				t.Fatal(err)
			}
		}
	}

	exam, err := s.CreateExam(ctx, model.ExamInput{Name: "Python 101", Duration: 60, Category: model.CategoryPython, TotalMarks: 2, PassingMarks: 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Q1", "Q2"} {
		_, err := s.AddExamQuestion(ctx, exam.ID, model.QuestionInput{
			Name:          name,
			Options:       []model.Option{{Key: "A", Text: "no"}, {Key: "B", Text: "yes"}},
			CorrectOption: "B",
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	exam, err = s.GetExam(ctx, exam.ID)
	if err != nil {
		t.Fatal(err)
	}

	issuer, err := auth.NewIssuer("client-test", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(handler.New(s, issuer, echoRunner{}, nil, handler.Config{}).Router())
	t.Cleanup(srv.Close)
	return srv, s, exam
}

func signin(t *testing.T, c *Client, who string) *model.User {
	t.Helper()
	u, err := c.Signin(context.Background(), who+"@example.com", "password123")
	if err != nil {
		t.Fatalf("Signin(%s): %v", who, err)
	}
	return u
}

func TestSigninAndMe(t *testing.T) {
	srv, _, _ := newServer(t)
	ctx := context.Background()
	c := New(srv.URL)

	if _, err := c.Me(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Me without token: err = %v", err)
	}
	if _, err := c.Signin(ctx, "student@example.com", "wrong-password"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("bad password: err = %v", err)
	}

	u := signin(t, c, "student")
	if c.Token() == "" {
		t.Fatal("token not kept")
	}
	me, err := c.Me(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if me.ID != u.ID || me.IsAdmin {
		t.Errorf("me = %+v", me)
	}

	// A token can be handed to a new client.
	other := New(srv.URL, WithToken(c.Token()), WithTimeout(5*time.Second))
	if _, err := other.Me(ctx); err != nil {
		t.Errorf("Me with copied token: %v", err)
	}
}

func TestGetExam(t *testing.T) {
	srv, _, exam := newServer(t)
	c := New(srv.URL)
	signin(t, c, "student")

	got, err := c.GetExam(context.Background(), exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != exam.Name || len(got.Questions) != 2 || got.Questions[0].CorrectOption != "B" {
		t.Errorf("exam = %+v", got)
	}

	_, err = c.GetExam(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing exam: err = %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "not_found" || apiErr.Message != "Exam not found." {
		t.Errorf("api error = %+v", apiErr)
	}

	exams, err := c.ListExams(context.Background())
	if err != nil || len(exams) != 1 {
		t.Errorf("ListExams = %d, %v", len(exams), err)
	}
}

func TestSessionRecordsThroughAPI(t *testing.T) {
	srv, st, exam := newServer(t)
	ctx := context.Background()
	c := New(srv.URL)
	student := signin(t, c, "student")

	s, err := session.Load(ctx, c, exam.ID, session.Config{UserID: student.ID, Recorder: c})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Select("B"); err != nil {
		t.Fatal(err)
	}
	if err := s.Next(); err != nil {
		t.Fatal(err)
	}
	if err := s.Select("A"); err != nil {
		t.Fatal(err)
	}
	if err := s.Submit(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-s.Recorded():
	case <-time.After(5 * time.Second):
		t.Fatal("attempt not recorded")
	}

	reports, err := c.ListMyReports(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 {
		t.Fatalf("reports = %d", len(reports))
	}
	r := reports[0]
	if r.UserID != student.ID || r.Result.Verdict != model.VerdictFail || len(r.Result.CorrectAnswers) != 1 || len(r.Result.WrongAnswers) != 1 {
		t.Errorf("report = %+v", r)
	}

	all, err := st.ListReports(ctx)
	if err != nil || len(all) != 1 {
		t.Errorf("store reports = %d, %v", len(all), err)
	}
}

func TestAdminReports(t *testing.T) {
	srv, _, exam := newServer(t)
	ctx := context.Background()

	student := New(srv.URL)
	signin(t, student, "student")
	if err := student.RecordAttempt(ctx, exam.ID, "ignored", model.ExamResult{Verdict: model.VerdictPass}); err != nil {
		t.Fatal(err)
	}
	if _, err := student.ListReports(ctx); !errors.Is(err, ErrForbidden) {
		t.Errorf("student ListReports: err = %v", err)
	}

	admin := New(srv.URL, WithHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	signin(t, admin, "admin")
	reports, err := admin.ListReports(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 || reports[0].User == nil || reports[0].User.Username != "student" {
		t.Fatalf("reports = %+v", reports)
	}
	if err := admin.DeleteReport(ctx, reports[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := admin.DeleteReport(ctx, reports[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
}

func TestValidationErrorFields(t *testing.T) {
	srv, _, _ := newServer(t)
	c := New(srv.URL)
	signin(t, c, "student")

	err := c.RecordAttempt(context.Background(), "", "", model.ExamResult{Verdict: "Maybe"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || len(apiErr.Fields) != 2 {
		t.Fatalf("err = %v", err)
	}
}

func TestRunCode(t *testing.T) {
	srv, _, _ := newServer(t)
	c := New(srv.URL, WithLanguage("es"))
	signin(t, c, "student")

	res, err := c.RunCode(context.Background(), codeexec.Request{Code: "print(input())", Language: "python", Input: "hola"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Output != "hola" || res.StatusCode != 200 {
		t.Errorf("result = %+v", res)
	}
}

func TestTransportErrors(t *testing.T) {
	srv, _, exam := newServer(t)
	ctx := context.Background()

	c := New(srv.URL)
	_, err := c.GetExam(ctx, exam.ID)
	if !errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrTransport) {
		t.Errorf("rejected call: err = %v, want ErrUnauthorized only", err)
	}

	srv.Close()
	_, err = c.Signin(ctx, "student@example.com", "password123")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("closed server: err = %v, want ErrTransport", err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("transport failure reported as API error: %v", apiErr)
	}
}
