package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dulakshi2002/Edu-Code/internal/model"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Int32
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Add(1) }

type fakeRecorder struct {
	mu    sync.Mutex
	calls []model.ExamResult
	err   error
}

func (r *fakeRecorder) RecordAttempt(_ context.Context, examID, userID string, result model.ExamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, result)
	return r.err
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeSource struct {
	exam model.Exam
	err  error
}

func (f fakeSource) GetExam(_ context.Context, id string) (model.Exam, error) {
	if f.err != nil {
		return model.Exam{}, f.err
	}
	return f.exam, nil
}

func testExam(n, duration, passing int) model.Exam {
	qs := make([]model.ExamQuestion, n)
	for i := range qs {
		qs[i] = model.ExamQuestion{
			ID:   fmt.Sprintf("q%d", i),
			Name: fmt.Sprintf("Question %d", i),
			Options: []model.Option{
				{Key: "A", Text: "alpha"},
				{Key: "B", Text: "beta"},
				{Key: "C", Text: "gamma"},
				{Key: "D", Text: "delta"},
			},
			CorrectOption: "B",
		}
	}
	return model.Exam{
		ID:           "exam-1",
		Name:         "Basics",
		Duration:     duration,
		Category:     model.CategoryJava,
		TotalMarks:   n,
		PassingMarks: passing,
		Questions:    qs,
	}
}

func newTestSession(t *testing.T, exam model.Exam, rec Recorder) (*Session, *fakeTicker) {
	t.Helper()
	ft := &fakeTicker{ch: make(chan time.Time)}
	cfg := Config{
		UserID:    "user-1",
		Recorder:  rec,
		NewTicker: func(time.Duration) Ticker { return ft },
	}
	s := New(context.Background(), exam, cfg)
	t.Cleanup(s.Close)
	return s, ft
}

func waitClosed(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestLoad(t *testing.T) {
	exam := testExam(3, 60, 2)

	s, err := Load(context.Background(), fakeSource{exam: exam}, exam.ID, Config{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.State() != StateInstructions {
		t.Errorf("state = %s, want instructions", s.State())
	}
	if s.SecondsLeft() != 60 {
		t.Errorf("seconds left = %d, want 60", s.SecondsLeft())
	}

	fetchErr := errors.New("connection refused")
	_, err = Load(context.Background(), fakeSource{err: fetchErr}, "missing", Config{})
	if !errors.Is(err, fetchErr) {
		t.Errorf("Load error = %v, want wrapped fetch error", err)
	}
}

func TestStartEmptyExam(t *testing.T) {
	s, _ := newTestSession(t, testExam(0, 10, 0), nil)

	if err := s.Start(); !errors.Is(err, ErrEmptyExam) {
		t.Fatalf("Start error = %v, want ErrEmptyExam", err)
	}
	if s.State() != StateInstructions {
		t.Errorf("state = %s, want instructions", s.State())
	}
}

func TestStartTwice(t *testing.T) {
	s, _ := newTestSession(t, testExam(2, 10, 1), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrWrongState) {
		t.Errorf("second Start error = %v, want ErrWrongState", err)
	}
}

func TestNavigationControls(t *testing.T) {
	s, _ := newTestSession(t, testExam(3, 100, 1), nil)

	if got := s.Controls(); got != (Controls{}) {
		t.Errorf("controls before start = %+v, want none", got)
	}
	if err := s.Next(); !errors.Is(err, ErrWrongState) {
		t.Errorf("Next before start = %v, want ErrWrongState", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tests := []struct {
		cursor int
		want   Controls
	}{
		{0, Controls{Previous: false, Next: true, Submit: false}},
		{1, Controls{Previous: true, Next: true, Submit: false}},
		{2, Controls{Previous: true, Next: false, Submit: true}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("cursor %d", tt.cursor), func(t *testing.T) {
			for s.Cursor() < tt.cursor {
				if err := s.Next(); err != nil {
					t.Fatalf("Next: %v", err)
				}
			}
			if got := s.Controls(); got != tt.want {
				t.Errorf("controls = %+v, want %+v", got, tt.want)
			}
		})
	}

	if err := s.Next(); !errors.Is(err, ErrControlUnavailable) {
		t.Errorf("Next at last = %v, want ErrControlUnavailable", err)
	}
	for s.Cursor() > 0 {
		if err := s.Previous(); err != nil {
			t.Fatalf("Previous: %v", err)
		}
	}
	if err := s.Previous(); !errors.Is(err, ErrControlUnavailable) {
		t.Errorf("Previous at first = %v, want ErrControlUnavailable", err)
	}
	if err := s.Submit(); !errors.Is(err, ErrControlUnavailable) {
		t.Errorf("Submit at first = %v, want ErrControlUnavailable", err)
	}
	if s.State() != StateQuestions {
		t.Errorf("state = %s, want questions", s.State())
	}
}

func TestSelectWritesOnlyCurrentIndex(t *testing.T) {
	s, _ := newTestSession(t, testExam(3, 100, 1), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := s.Select("A"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := s.Select("C"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Select("D"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if s.Cursor() != 1 {
		t.Errorf("cursor moved to %d after select", s.Cursor())
	}

	got := s.Responses()
	want := model.ResponseMap{0: "A", 1: "D"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("responses = %v, want %v", got, want)
	}

	if err := s.Select("Z"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("Select unknown = %v, want ErrUnknownOption", err)
	}
	if key, _ := s.Selected(1); key != "D" {
		t.Errorf("unknown option overwrote response: %q", key)
	}
}

func TestSubmitScenario(t *testing.T) {
	rec := &fakeRecorder{}
	s, ft := newTestSession(t, testExam(2, 5, 1), rec)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := s.Select("B"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	for i := 0; i < 3; i++ {
		if !s.Tick() {
			t.Fatalf("tick %d stopped the countdown", i)
		}
	}
	if s.SecondsLeft() != 2 {
		t.Fatalf("seconds left = %d, want 2", s.SecondsLeft())
	}
	if err := s.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitClosed(t, s.Done(), "done")
	waitClosed(t, s.Recorded(), "record")

	result, reason, ok := s.Result()
	if !ok {
		t.Fatal("no result after submit")
	}
	if reason != ReasonSubmit {
		t.Errorf("reason = %s, want submit", reason)
	}
	if len(result.CorrectAnswers) != 1 || result.CorrectAnswers[0].ID != "q0" {
		t.Errorf("correct = %+v, want [q0]", result.CorrectAnswers)
	}
	if len(result.WrongAnswers) != 1 || result.WrongAnswers[0].ID != "q1" {
		t.Errorf("wrong = %+v, want [q1]", result.WrongAnswers)
	}
	if result.Verdict != model.VerdictPass {
		t.Errorf("verdict = %s, want Pass", result.Verdict)
	}
	if rec.count() != 1 {
		t.Errorf("recorder called %d times, want 1", rec.count())
	}
	if ft.stopped.Load() != 1 {
		t.Errorf("ticker stopped %d times, want 1", ft.stopped.Load())
	}
	if s.Tick() {
		t.Error("Tick after submit reported a running countdown")
	}
}

func TestTimeoutScenario(t *testing.T) {
	rec := &fakeRecorder{}
	s, ft := newTestSession(t, testExam(2, 5, 1), rec)

	var finishes atomic.Int32
	s.cfg.OnFinish = func(FinishReason, model.ExamResult) { finishes.Add(1) }

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 5; i++ {
		ft.ch <- time.Now()
	}
	waitClosed(t, s.Done(), "done")
	waitClosed(t, s.Recorded(), "record")

	result, reason, _ := s.Result()
	if reason != ReasonTimeout {
		t.Errorf("reason = %s, want timeout", reason)
	}
	if len(result.CorrectAnswers) != 0 || len(result.WrongAnswers) != 2 {
		t.Errorf("partition = %d/%d, want 0/2", len(result.CorrectAnswers), len(result.WrongAnswers))
	}
	if result.Verdict != model.VerdictFail {
		t.Errorf("verdict = %s, want Fail", result.Verdict)
	}
	if s.SecondsLeft() != 0 {
		t.Errorf("seconds left = %d, want 0", s.SecondsLeft())
	}
	if err := s.Submit(); !errors.Is(err, ErrFinished) {
		t.Errorf("Submit after timeout = %v, want ErrFinished", err)
	}
	if finishes.Load() != 1 {
		t.Errorf("OnFinish called %d times, want 1", finishes.Load())
	}
	if rec.count() != 1 {
		t.Errorf("recorder called %d times, want 1", rec.count())
	}
	if ft.stopped.Load() != 1 {
		t.Errorf("ticker stopped %d times, want 1", ft.stopped.Load())
	}
}

func TestTimeoutGradesAllQuestionsAtAnyCursor(t *testing.T) {
	s, _ := newTestSession(t, testExam(10, 3, 2), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Select("B"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := s.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := s.Select("B"); err != nil {
		t.Fatalf("Select: %v", err)
	}

	s.Tick()
	s.Tick()
	s.Tick()

	result, reason, ok := s.Result()
	if !ok || reason != ReasonTimeout {
		t.Fatalf("result ok=%v reason=%s, want timeout", ok, reason)
	}
	if n := len(result.CorrectAnswers) + len(result.WrongAnswers); n != 10 {
		t.Errorf("graded %d questions, want 10", n)
	}
	if len(result.CorrectAnswers) != 2 || result.Verdict != model.VerdictPass {
		t.Errorf("correct = %d verdict = %s, want 2 Pass", len(result.CorrectAnswers), result.Verdict)
	}
}

func TestSubmitAndTimeoutAreExclusive(t *testing.T) {
	for i := 0; i < 50; i++ {
		rec := &fakeRecorder{}
		s, _ := newTestSession(t, testExam(1, 1, 1), rec)

		var finishes atomic.Int32
		s.cfg.OnFinish = func(FinishReason, model.ExamResult) { finishes.Add(1) }
		if err := s.Start(); err != nil {
			t.Fatalf("Start: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); _ = s.Submit() }()
		go func() { defer wg.Done(); s.Tick() }()
		wg.Wait()
		waitClosed(t, s.Recorded(), "record")

		if finishes.Load() != 1 {
			t.Fatalf("iteration %d: OnFinish called %d times", i, finishes.Load())
		}
		if rec.count() != 1 {
			t.Fatalf("iteration %d: recorder called %d times", i, rec.count())
		}
	}
}

func TestRecordFailureKeepsResults(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("server unavailable")}
	s, _ := newTestSession(t, testExam(1, 30, 1), rec)

	recordErr := make(chan error, 1)
	s.cfg.OnRecordError = func(err error) { recordErr <- err }

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Select("B"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitClosed(t, s.Recorded(), "record")

	select {
	case err := <-recordErr:
		if err == nil || err.Error() != "server unavailable" {
			t.Errorf("record error = %v", err)
		}
	default:
		t.Fatal("OnRecordError not called")
	}
	if s.State() != StateResults {
		t.Errorf("state = %s, want results", s.State())
	}
	if result, _, _ := s.Result(); result.Verdict != model.VerdictPass {
		t.Errorf("verdict = %s, want Pass", result.Verdict)
	}
}

func TestZeroDurationFinishesOnStart(t *testing.T) {
	s, ft := newTestSession(t, testExam(2, 0, 0), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitClosed(t, s.Done(), "done")
	if _, reason, _ := s.Result(); reason != ReasonTimeout {
		t.Errorf("reason = %s, want timeout", reason)
	}
	if ft.stopped.Load() != 0 {
		t.Error("ticker created for zero duration exam")
	}
}

func TestCloseCancelsCountdown(t *testing.T) {
	rec := &fakeRecorder{}
	s, ft := newTestSession(t, testExam(2, 10, 1), rec)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Close()
	s.Close()

	if ft.stopped.Load() != 1 {
		t.Errorf("ticker stopped %d times, want 1", ft.stopped.Load())
	}
	if s.Tick() {
		t.Error("Tick after close reported a running countdown")
	}
	if err := s.Select("A"); !errors.Is(err, ErrClosed) {
		t.Errorf("Select after close = %v, want ErrClosed", err)
	}
	if _, _, ok := s.Result(); ok {
		t.Error("closed session produced a result")
	}
	if rec.count() != 0 {
		t.Errorf("recorder called %d times after close", rec.count())
	}
}

func TestWallClockCountdown(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for a real one-second tick")
	}
	rec := &fakeRecorder{}
	exam := testExam(3, 1, 2)
	s := New(context.Background(), exam, Config{UserID: "user-1", Recorder: rec})
	t.Cleanup(s.Close)

	start := time.Now()
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitClosed(t, s.Done(), "countdown to finish")
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("finished after %v, want about one second", elapsed)
	}

	result, reason, ok := s.Result()
	if !ok || reason != ReasonTimeout {
		t.Fatalf("Result = %v, %q, %v; want timeout", result, reason, ok)
	}
	if len(result.WrongAnswers) != 3 {
		t.Errorf("wrong answers = %d, want 3", len(result.WrongAnswers))
	}
	waitClosed(t, s.Recorded(), "record")
	if rec.count() != 1 {
		t.Errorf("recorder calls = %d, want 1", rec.count())
	}
}
