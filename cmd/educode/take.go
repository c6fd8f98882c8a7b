package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dulakshi2002/Edu-Code/internal/client"
	appI18n "github.com/dulakshi2002/Edu-Code/internal/i18n"
	"github.com/dulakshi2002/Edu-Code/internal/session"
)

var errQuit = errors.New("exam left before submitting")

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "take",
		Short:        "Take a timed exam in the terminal",
		RunE:         runTake,
		SilenceUsage: true,
	}
	f := cmd.Flags()
	f.String("server", "http://localhost:8080", "Edu-Code server URL")
	f.String("email", "", "Account email (required)")
	f.String("password", "", "Account password (or set EDUCODE_PASSWORD)")
	f.String("exam", "", "Exam ID (required)")
	f.StringP("lang", "l", "en", "Message language (en, es)")
	addLogFlags(cmd, "warn")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("exam")
	return cmd
}

// console serializes writes from the input loop and the countdown goroutine.
type console struct {
	mu  sync.Mutex
	w   io.Writer
	ctx context.Context
}

func (c *console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, s)
}

func (c *console) t(id string) string { return appI18n.T(c.ctx, id) }

func (c *console) td(id string, data map[string]any) string { return appI18n.Td(c.ctx, id, data) }

// recordResult remembers the outcome of the background report write.
type recordResult struct {
	mu  sync.Mutex
	err error
}

func (r *recordResult) set(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *recordResult) get() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func runTake(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}
	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(lang))
	out := &console{w: cmd.OutOrStdout(), ctx: ctx}

	server := v.GetString("server")
	c := client.New(server, client.WithLanguage(lang))
	user, err := c.Signin(ctx, v.GetString("email"), v.GetString("password"))
	if err != nil {
		return clientError(server, "sign in", err)
	}

	rec := &recordResult{}
	s, err := session.Load(ctx, c, v.GetString("exam"), countdownConfig(out, user.ID, c, rec))
	if err != nil {
		return clientError(server, "load exam", err)
	}
	defer s.Close()

	return takeExam(out, s, readLines(cmd.InOrStdin()), rec)
}

// clientError tells an unreachable server apart from a rejected request.
func clientError(server, action string, err error) error {
	if errors.Is(err, client.ErrTransport) {
		return fmt.Errorf("%s: cannot reach %s: %w", action, server, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// countdownConfig announces the last minute and keeps the record outcome.
func countdownConfig(out *console, userID string, recorder session.Recorder, rec *recordResult) session.Config {
	return session.Config{
		UserID:   userID,
		Recorder: recorder,
		OnTick: func(left int) {
			if left == 60 || left == 30 || left == 10 {
				out.println(out.td("TakeSecondsLeft", map[string]any{"Seconds": left}))
			}
		},
		OnRecordError: rec.set,
	}
}

// readLines delivers input lines until EOF, then closes the channel.
func readLines(r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
}

// takeExam drives s from the instructions to the results using lines as
// commands, then waits for the attempt to be recorded.
func takeExam(out *console, s *session.Session, lines <-chan string, rec *recordResult) error {
	exam := s.Exam()
	out.println(out.td("TakeInstructions", map[string]any{
		"Name":         exam.Name,
		"Category":     exam.Category,
		"Questions":    appI18n.Tp(out.ctx, "QuestionsCount", len(exam.Questions)),
		"Duration":     exam.Duration,
		"PassingMarks": exam.PassingMarks,
		"TotalMarks":   exam.TotalMarks,
	}))
	out.println(out.t("TakeStartPrompt"))

	line, ok := <-lines
	if !ok || isQuit(s, line) {
		return errQuit
	}
	if err := s.Start(); err != nil {
		return err
	}

	for s.State() == session.StateQuestions {
		showQuestion(out, s)
		select {
		case line, ok := <-lines:
			if !ok || isQuit(s, line) {
				return errQuit
			}
			if err := apply(s, line); err != nil {
				out.println(err.Error())
			}
		case <-s.Done():
		}
	}

	result, reason, _ := s.Result()
	if reason == session.ReasonTimeout {
		out.println(out.t("TakeTimeUp"))
	}
	out.println(out.td("TakeResult", map[string]any{
		"Correct": len(result.CorrectAnswers),
		"Wrong":   len(result.WrongAnswers),
		"Verdict": result.Verdict,
	}))

	<-s.Recorded()
	if err := rec.get(); err != nil {
		out.println(out.td("TakeRecordFailed", map[string]any{"Error": err.Error()}))
		return fmt.Errorf("record attempt: %w", err)
	}
	out.println(out.t("TakeRecorded"))
	return nil
}

func showQuestion(out *console, s *session.Session) {
	q, i, ok := s.Current()
	if !ok {
		return
	}
	selected, _ := s.Selected(i)

	var b strings.Builder
	b.WriteString(out.td("TakeQuestionHeader", map[string]any{
		"Number":  i + 1,
		"Total":   len(s.Exam().Questions),
		"Seconds": s.SecondsLeft(),
	}))
	b.WriteString("\n" + q.Name + "\n")
	for _, o := range q.Options {
		mark := " "
		if o.Key == selected {
			mark = "*"
		}
		fmt.Fprintf(&b, " %s %s) %s\n", mark, o.Key, o.Text)
	}
	b.WriteString(out.t("TakeCommands"))
	out.println(b.String())
}

// apply runs one input line. A line that is exactly an option key of the
// current question answers it, so options labelled N, P, S or Q stay
// selectable; a leading colon (":n") always means a command.
func apply(s *session.Session, line string) error {
	in := strings.TrimSpace(line)
	if in == "" {
		return nil
	}
	if name, ok := strings.CutPrefix(in, ":"); ok {
		return navigate(s, name)
	}
	if offersKey(s, in) {
		return s.Select(in)
	}
	if err := navigate(s, in); !errors.Is(err, errUnknownCommand) {
		return err
	}
	err := s.Select(in)
	if errors.Is(err, session.ErrUnknownOption) {
		// Option keys are usually upper case letters.
		return s.Select(strings.ToUpper(in))
	}
	return err
}

var errUnknownCommand = errors.New("unknown command")

func navigate(s *session.Session, name string) error {
	switch strings.ToLower(name) {
	case "n":
		return s.Next()
	case "p":
		return s.Previous()
	case "s":
		return s.Submit()
	}
	return fmt.Errorf("%q: %w", name, errUnknownCommand)
}

func offersKey(s *session.Session, key string) bool {
	q, _, ok := s.Current()
	if !ok {
		return false
	}
	_, found := q.OptionText(key)
	return found
}

func isQuit(s *session.Session, line string) bool {
	in := strings.TrimSpace(line)
	if name, ok := strings.CutPrefix(in, ":"); ok {
		return strings.EqualFold(name, "q")
	}
	return strings.EqualFold(in, "q") && !offersKey(s, in)
}
