// Package session runs one timed attempt at an exam on the caller's side.
//
// A session moves through instructions, questions and results. The countdown
// and the grading both happen in the caller's process: the server only sees
// the finished result through the Recorder and does not enforce the deadline.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dulakshi2002/Edu-Code/internal/grading"
	"github.com/dulakshi2002/Edu-Code/internal/model"
)

var (
	ErrEmptyExam          = errors.New("exam has no questions")
	ErrWrongState         = errors.New("action not allowed in current state")
	ErrFinished           = errors.New("session already finished")
	ErrClosed             = errors.New("session closed")
	ErrControlUnavailable = errors.New("control unavailable at this question")
	ErrUnknownOption      = errors.New("option not offered by this question")
)

// State is the phase a session is in.
type State string

const (
	StateInstructions State = "instructions"
	StateQuestions    State = "questions"
	StateResults      State = "results"
)

// FinishReason tells what moved the session to results.
type FinishReason string

const (
	ReasonTimeout FinishReason = "timeout"
	ReasonSubmit  FinishReason = "submit"
)

// ExamSource fetches exam definitions with their questions.
type ExamSource interface {
	GetExam(ctx context.Context, examID string) (model.Exam, error)
}

// Recorder persists a finished attempt.
type Recorder interface {
	RecordAttempt(ctx context.Context, examID, userID string, result model.ExamResult) error
}

// Ticker delivers countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// Config carries the caller identity and the hooks of a session.
type Config struct {
	UserID   string
	Recorder Recorder

	// NewTicker defaults to a time.Ticker.
	NewTicker func(d time.Duration) Ticker
	// RecordTimeout bounds the recorder call. Zero means 30 seconds.
	RecordTimeout time.Duration

	OnTick        func(secondsLeft int)
	OnFinish      func(reason FinishReason, result model.ExamResult)
	OnRecordError func(err error)
}

// Controls reports which navigation actions are available.
type Controls struct {
	Previous bool
	Next     bool
	Submit   bool
}

// Session is one attempt at an exam.
type Session struct {
	cfg  Config
	exam model.Exam
	ctx  context.Context

	mu          sync.Mutex
	state       State
	closed      bool
	cursor      int
	responses   model.ResponseMap
	secondsLeft int
	ticker      Ticker
	stopTick    chan struct{}
	result      model.ExamResult
	reason      FinishReason

	done     chan struct{}
	recorded chan struct{}
}

// Load fetches the exam and returns a session in the instructions state with
// the countdown set to the exam duration. Fetch errors are returned as is,
// wrapped with the exam id; there is no retry.
func Load(ctx context.Context, src ExamSource, examID string, cfg Config) (*Session, error) {
	exam, err := src.GetExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("load exam %s: %w", examID, err)
	}
	return New(ctx, exam, cfg), nil
}

// New returns a session for an already fetched exam.
func New(ctx context.Context, exam model.Exam, cfg Config) *Session {
	if cfg.NewTicker == nil {
		cfg.NewTicker = newTimeTicker
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = 30 * time.Second
	}
	return &Session{
		cfg:         cfg,
		exam:        exam,
		ctx:         context.WithoutCancel(ctx),
		state:       StateInstructions,
		secondsLeft: exam.Duration,
		done:        make(chan struct{}),
		recorded:    make(chan struct{}),
	}
}

// Exam returns the exam definition.
func (s *Session) Exam() model.Exam { return s.exam }

// Start leaves the instructions and starts the countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateInstructions {
		s.mu.Unlock()
		return fmt.Errorf("start: %w", ErrWrongState)
	}
	if len(s.exam.Questions) == 0 {
		s.mu.Unlock()
		return ErrEmptyExam
	}

	s.state = StateQuestions
	s.cursor = 0
	s.responses = model.ResponseMap{}

	if s.secondsLeft <= 0 {
		s.secondsLeft = 0
		result := s.finishLocked(ReasonTimeout)
		s.mu.Unlock()
		s.afterFinish(ReasonTimeout, result)
		return nil
	}

	t := s.cfg.NewTicker(time.Second)
	stop := make(chan struct{})
	s.ticker = t
	s.stopTick = stop
	s.mu.Unlock()

	slog.Debug("exam session started", "exam_id", s.exam.ID, "duration", s.exam.Duration)
	go s.run(t, stop)
	return nil
}

func (s *Session) run(t Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			if !s.Tick() {
				return
			}
		}
	}
}

// Tick advances the countdown by one second. Reaching zero finishes the
// session whatever the cursor position. It reports whether the countdown
// is still running.
func (s *Session) Tick() bool {
	s.mu.Lock()
	if s.closed || s.state != StateQuestions {
		s.mu.Unlock()
		return false
	}
	if s.secondsLeft > 0 {
		s.secondsLeft--
	}
	left := s.secondsLeft
	if left > 0 {
		s.mu.Unlock()
		if s.cfg.OnTick != nil {
			s.cfg.OnTick(left)
		}
		return true
	}

	result := s.finishLocked(ReasonTimeout)
	s.mu.Unlock()
	if s.cfg.OnTick != nil {
		s.cfg.OnTick(0)
	}
	s.afterFinish(ReasonTimeout, result)
	return false
}

// Select records key as the answer to the question under the cursor.
func (s *Session) Select(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkQuestionsLocked(); err != nil {
		return err
	}
	q := s.exam.Questions[s.cursor]
	if _, ok := q.OptionText(key); !ok {
		return fmt.Errorf("select %q: %w", key, ErrUnknownOption)
	}
	s.responses[s.cursor] = key
	return nil
}

// Next moves the cursor forward.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkQuestionsLocked(); err != nil {
		return err
	}
	if s.cursor >= len(s.exam.Questions)-1 {
		return fmt.Errorf("next: %w", ErrControlUnavailable)
	}
	s.cursor++
	return nil
}

// Previous moves the cursor back.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkQuestionsLocked(); err != nil {
		return err
	}
	if s.cursor == 0 {
		return fmt.Errorf("previous: %w", ErrControlUnavailable)
	}
	s.cursor--
	return nil
}

// Submit finishes the session from the last question.
func (s *Session) Submit() error {
	s.mu.Lock()
	if err := s.checkQuestionsLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.cursor != len(s.exam.Questions)-1 {
		s.mu.Unlock()
		return fmt.Errorf("submit: %w", ErrControlUnavailable)
	}
	result := s.finishLocked(ReasonSubmit)
	s.mu.Unlock()
	s.afterFinish(ReasonSubmit, result)
	return nil
}

// Close leaves the session. A running countdown is cancelled and nothing is
// graded or recorded.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdownLocked()
	s.closed = true
}

func (s *Session) checkQuestionsLocked() error {
	switch {
	case s.closed:
		return ErrClosed
	case s.state == StateResults:
		return ErrFinished
	case s.state != StateQuestions:
		return ErrWrongState
	}
	return nil
}

// finishLocked moves to results. Callers hold mu and have checked that the
// session is in the questions state, so it runs at most once.
func (s *Session) finishLocked(reason FinishReason) model.ExamResult {
	s.stopCountdownLocked()
	s.state = StateResults
	s.reason = reason
	s.result = grading.Grade(s.exam.Questions, s.responses, s.exam.PassingMarks)
	close(s.done)
	return s.result
}

func (s *Session) stopCountdownLocked() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *Session) afterFinish(reason FinishReason, result model.ExamResult) {
	slog.Info("exam session finished",
		"exam_id", s.exam.ID,
		"user_id", s.cfg.UserID,
		"reason", reason,
		"correct", len(result.CorrectAnswers),
		"wrong", len(result.WrongAnswers),
		"verdict", result.Verdict,
	)
	if s.cfg.OnFinish != nil {
		s.cfg.OnFinish(reason, result)
	}
	go s.record(result)
}

func (s *Session) record(result model.ExamResult) {
	defer close(s.recorded)
	if s.cfg.Recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RecordTimeout)
	defer cancel()

	if err := s.cfg.Recorder.RecordAttempt(ctx, s.exam.ID, s.cfg.UserID, result); err != nil {
		slog.Error("failed to record exam attempt", "exam_id", s.exam.ID, "user_id", s.cfg.UserID, "error", err)
		if s.cfg.OnRecordError != nil {
			s.cfg.OnRecordError(err)
		}
	}
}

// State returns the current phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Cursor returns the index of the question on screen.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Current returns the question under the cursor while questions are shown.
func (s *Session) Current() (model.ExamQuestion, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateQuestions {
		return model.ExamQuestion{}, 0, false
	}
	return s.exam.Questions[s.cursor], s.cursor, true
}

// Selected returns the answer stored for position i.
func (s *Session) Selected(i int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.responses[i]
	return key, ok
}

// Responses returns a copy of the answers given so far.
func (s *Session) Responses() model.ResponseMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(model.ResponseMap, len(s.responses))
	for k, v := range s.responses {
		out[k] = v
	}
	return out
}

// SecondsLeft returns the countdown value.
func (s *Session) SecondsLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secondsLeft
}

// Controls reports the navigation available at the cursor.
func (s *Session) Controls() Controls {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateQuestions {
		return Controls{}
	}
	last := len(s.exam.Questions) - 1
	return Controls{
		Previous: s.cursor > 0,
		Next:     s.cursor < last,
		Submit:   s.cursor == last,
	}
}

// Result returns the graded result once the session reached results.
func (s *Session) Result() (model.ExamResult, FinishReason, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResults {
		return model.ExamResult{}, "", false
	}
	return s.result, s.reason, true
}

// Done is closed when the session reaches results.
func (s *Session) Done() <-chan struct{} { return s.done }

// Recorded is closed once the recorder call triggered by finishing returned.
func (s *Session) Recorded() <-chan struct{} { return s.recorded }
