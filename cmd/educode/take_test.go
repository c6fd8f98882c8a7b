package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dulakshi2002/Edu-Code/internal/client"
	appI18n "github.com/dulakshi2002/Edu-Code/internal/i18n"
	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/session"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

type manualTicker struct{ ch chan time.Time }

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               {}

type memRecorder struct {
	mu      sync.Mutex
	results []model.ExamResult
	err     error
}

func (r *memRecorder) RecordAttempt(_ context.Context, _, _ string, result model.ExamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return r.err
}

func (r *memRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func takeFixture(t *testing.T, duration int, recorder *memRecorder) (*console, *bytes.Buffer, *session.Session, *manualTicker, *recordResult) {
	t.Helper()
	exam := model.Exam{ID: "e1", Name: "Java Basics", Category: model.CategoryJava, Duration: duration, TotalMarks: 2, PassingMarks: 2}
	for i := 1; i <= 2; i++ {
		exam.Questions = append(exam.Questions, model.ExamQuestion{
			ID:            fmt.Sprintf("q%d", i),
			Name:          fmt.Sprintf("Question %d", i),
			Options:       []model.Option{{Key: "A", Text: "wrong"}, {Key: "B", Text: "right"}},
			CorrectOption: "B",
		})
	}
	return newTakeSession(t, exam, recorder)
}

func newTakeSession(t *testing.T, exam model.Exam, recorder *memRecorder) (*console, *bytes.Buffer, *session.Session, *manualTicker, *recordResult) {
	t.Helper()
	var buf bytes.Buffer
	out := &console{w: &buf, ctx: appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer("en"))}
	rec := &recordResult{}
	ticker := &manualTicker{ch: make(chan time.Time)}
	cfg := countdownConfig(out, "u1", recorder, rec)
	cfg.NewTicker = func(time.Duration) session.Ticker { return ticker }

	s := session.New(context.Background(), exam, cfg)
	t.Cleanup(s.Close)
	return out, &buf, s, ticker, rec
}

func feed(lines ...string) <-chan string {
	ch := make(chan string, len(lines))
	for _, l := range lines {
		ch <- l
	}
	return ch
}

func TestTakeExamSubmit(t *testing.T) {
	recorder := &memRecorder{}
	out, buf, s, _, rec := takeFixture(t, 120, recorder)

	if err := takeExam(out, s, feed("", "b", "n", "A", "x", "s"), rec); err != nil {
		t.Fatalf("takeExam: %v", err)
	}

	got := buf.String()
	for _, want := range []string{
		"Java Basics (Java): 2 questions, 120 seconds.",
		"Question 1 of 2 (120s left)",
		" * B) right",
		"option not offered by this question",
		"Correct: 1  Wrong: 1  Verdict: Fail",
		"Your result has been saved.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Time is up.") {
		t.Error("submitted exam reported as timed out")
	}
	if recorder.count() != 1 {
		t.Errorf("recorded %d attempts, want 1", recorder.count())
	}
}

func TestTakeExamTimeout(t *testing.T) {
	recorder := &memRecorder{}
	out, buf, s, ticker, rec := takeFixture(t, 1, recorder)

	lines := make(chan string, 1)
	lines <- ""
	go func() { ticker.ch <- time.Now() }()

	if err := takeExam(out, s, lines, rec); err != nil {
		t.Fatalf("takeExam: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "Time is up.") || !strings.Contains(got, "Correct: 0  Wrong: 2  Verdict: Fail") {
		t.Errorf("unexpected output:\n%s", got)
	}
	if recorder.count() != 1 {
		t.Errorf("recorded %d attempts, want 1", recorder.count())
	}
}

func TestTakeExamQuit(t *testing.T) {
	recorder := &memRecorder{}
	out, _, s, _, rec := takeFixture(t, 60, recorder)

	if err := takeExam(out, s, feed("q"), rec); !errors.Is(err, errQuit) {
		t.Fatalf("err = %v, want errQuit", err)
	}

	out, _, s, _, rec = takeFixture(t, 60, recorder)
	lines := make(chan string, 1)
	lines <- ""
	close(lines)
	if err := takeExam(out, s, lines, rec); !errors.Is(err, errQuit) {
		t.Fatalf("closed input: err = %v, want errQuit", err)
	}
	if recorder.count() != 0 {
		t.Errorf("quitting recorded %d attempts", recorder.count())
	}
}

func TestTakeExamRecordFailure(t *testing.T) {
	recorder := &memRecorder{err: errors.New("server unavailable")}
	out, buf, s, _, rec := takeFixture(t, 60, recorder)

	err := takeExam(out, s, feed("", "n", "s"), rec)
	if err == nil {
		t.Fatal("expected record error")
	}
	got := buf.String()
	if !strings.Contains(got, "Your result could not be saved: server unavailable") {
		t.Errorf("unexpected output:\n%s", got)
	}
	if !strings.Contains(got, "Correct: 0  Wrong: 2") {
		t.Errorf("results not shown after record failure:\n%s", got)
	}
}

func TestTakeExamOptionKeysShadowCommands(t *testing.T) {
	keys := []model.Option{{Key: "N", Text: "no"}, {Key: "P", Text: "pass"}, {Key: "S", Text: "skip"}, {Key: "Q", Text: "quit"}}
	exam := model.Exam{
		ID: "e2", Name: "Letters", Category: model.CategoryPython, Duration: 60, TotalMarks: 2, PassingMarks: 2,
		Questions: []model.ExamQuestion{
			{ID: "q1", Name: "Pick N", Options: keys, CorrectOption: "N"},
			{ID: "q2", Name: "Pick Q", Options: keys, CorrectOption: "Q"},
		},
	}
	recorder := &memRecorder{}
	out, buf, s, _, rec := newTakeSession(t, exam, recorder)

	if err := takeExam(out, s, feed("", "N", ":n", "Q", ":s"), rec); err != nil {
		t.Fatalf("takeExam: %v\n%s", err, buf.String())
	}
	if got := buf.String(); !strings.Contains(got, "Correct: 2  Wrong: 0  Verdict: Pass") {
		t.Errorf("option keys not selected:\n%s", got)
	}
	if recorder.count() != 1 {
		t.Errorf("recorded %d attempts, want 1", recorder.count())
	}
}

func TestApplyCommands(t *testing.T) {
	_, _, s, _, _ := takeFixture(t, 60, &memRecorder{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		line    string
		wantErr error
		cursor  int
	}{
		{"b", nil, 0},
		{":p", session.ErrControlUnavailable, 0},
		{"N", nil, 1},
		{":x", errUnknownCommand, 1},
		{"z", session.ErrUnknownOption, 1},
		{" :P ", nil, 0},
	}
	for _, tt := range tests {
		err := apply(s, tt.line)
		if (tt.wantErr == nil && err != nil) || (tt.wantErr != nil && !errors.Is(err, tt.wantErr)) {
			t.Errorf("apply(%q) err = %v, want %v", tt.line, err, tt.wantErr)
		}
		if got := s.Cursor(); got != tt.cursor {
			t.Errorf("apply(%q) cursor = %d, want %d", tt.line, got, tt.cursor)
		}
	}
	if key, _ := s.Selected(0); key != "B" {
		t.Errorf("selected = %q, want B", key)
	}
	if !isQuit(s, "Q") || !isQuit(s, ":q") || isQuit(s, "x") {
		t.Error("isQuit misreads input")
	}
}

func TestClientError(t *testing.T) {
	unreachable := fmt.Errorf("%w: connection refused", client.ErrTransport)
	err := clientError("http://localhost:9", "sign in", unreachable)
	if !errors.Is(err, client.ErrTransport) || !strings.Contains(err.Error(), "cannot reach http://localhost:9") {
		t.Errorf("transport error = %v", err)
	}

	rejected := &client.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password."}
	err = clientError("http://localhost:9", "sign in", rejected)
	if !errors.Is(err, client.ErrUnauthorized) || strings.Contains(err.Error(), "cannot reach") {
		t.Errorf("rejection = %v", err)
	}
}
