package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dulakshi2002/Edu-Code/internal/auth"
	"github.com/dulakshi2002/Edu-Code/internal/codeexec"
	appI18n "github.com/dulakshi2002/Edu-Code/internal/i18n"
	"github.com/dulakshi2002/Edu-Code/internal/llm"
	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/store"
)

// Runner executes IDE code on a remote service.
type Runner interface {
	Run(ctx context.Context, req codeexec.Request) (codeexec.Result, error)
}

// Assistant drafts answers to forum questions.
type Assistant interface {
	SuggestAnswer(ctx context.Context, q model.ForumQuestion) (*llm.Suggestion, error)
}

// Config holds settings for the HTTP layer.
type Config struct {
	// SecureCookies marks the access token cookie Secure.
	SecureCookies bool
	// CORSOrigins lists the origins allowed to call the API with credentials.
	CORSOrigins []string
	// RequestTimeout bounds each request. Zero means 60s.
	RequestTimeout time.Duration
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	issuer    *auth.Issuer
	runner    Runner
	assistant Assistant
	config    Config
}

// New creates a new Handler. runner and assistant may be nil, which turns
// the IDE and the forum assistant off.
func New(s *store.Store, issuer *auth.Issuer, runner Runner, assistant Assistant, cfg Config) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	return &Handler{store: s, issuer: issuer, runner: runner, assistant: assistant, config: cfg}
}

// Router builds the complete HTTP handler with its middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.config.RequestTimeout))

	origins := h.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(appI18n.Middleware())

	h.Routes(r)
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.handleHealth)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.handleSignup)
		r.Post("/signin", h.handleSignin)
		r.Post("/signout", h.handleSignout)
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/me", h.handleMe)
		r.With(h.requireAdmin).Get("/users", h.handleListUsers)
		r.With(h.requireAdmin).Put("/users/{id}/admin", h.handleSetUserAdmin)
	})

	r.Route("/api/exams", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/get-all-exams", h.handleListExams)
		r.Post("/get-exam-by-id", h.handleGetExam)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Post("/add", h.handleCreateExam)
			r.Post("/edit-exam-by-id", h.handleUpdateExam)
			r.Post("/delete-exam-by-id", h.handleDeleteExam)
			r.Post("/add-questions-to-exam", h.handleAddQuestion)
			r.Put("/edit-question-in-exam", h.handleUpdateQuestion)
			r.Post("/delete-question-in-exam", h.handleDeleteQuestion)
			r.Post("/seed", h.handleUploadSeed)
		})
	})

	r.Route("/api/examsReport", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/add-exam-attempt", h.handleAddAttempt)
		r.Post("/get-attempts-by-user", h.handleListUserAttempts)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAdmin)
			r.Post("/get-all-attempts", h.handleListAttempts)
			r.Post("/delete-exam-report", h.handleDeleteReport)
			r.Get("/export", h.handleExportReports)
		})
	})

	r.Route("/api/courses", func(r chi.Router) {
		r.Get("/", h.handleListCourses)
		r.Get("/{id}", h.handleGetCourse)
		r.Get("/language/{language}", h.handleListCoursesByLanguage)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth, h.requireAdmin)
			r.Post("/", h.handleCreateCourse)
			r.Put("/{id}", h.handleUpdateCourse)
			r.Delete("/{id}", h.handleDeleteCourse)
		})
	})

	r.Route("/api/create", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Post("/createNote", h.handleCreateNote)
		r.Get("/notes", h.handleListMyNotes)
		r.With(h.requireAdmin).Get("/mynotes", h.handleListNotes)
		r.Get("/note/{id}", h.handleGetNote)
		r.Put("/note/{id}", h.handleUpdateNote)
		r.Delete("/note/{id}", h.handleDeleteNote)
	})

	r.Route("/project", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/projects", h.handleListProjects)
		r.Post("/projects", h.handleCreateProject)
		r.Get("/projects/{id}", h.handleGetProject)
		r.Put("/projects/{id}", h.handleUpdateProject)
		r.Delete("/projects/{id}", h.handleDeleteProject)
	})

	r.Route("/api/questions", func(r chi.Router) {
		r.Get("/questions", h.handleListForumQuestions)
		r.Get("/questions/{id}", h.handleGetForumQuestion)
		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/questions", h.handleCreateForumQuestion)
			r.Put("/questions/{id}", h.handleUpdateForumQuestion)
			r.Delete("/questions/{id}", h.handleDeleteForumQuestion)
			r.Post("/questions/{id}/comments", h.handleAddComment)
			r.Post("/questions/{id}/suggest", h.handleSuggestAnswer)
			r.Get("/uquestions", h.handleListMyForumQuestions)
		})
	})

	r.Post("/api/feedback", h.handleAddFeedback)
	r.With(h.requireAuth, h.requireAdmin).Get("/api/feedback", h.handleListFeedback)

	r.With(h.requireAuth).Post("/ide/runCode", h.handleRunCode)
}

type healthStatus struct {
	Exams int `json:"exams"`
}

// handleHealth checks the database and reports the catalog size, which is
// zero until an exam is created or a seed file imported.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		respondError(w, r, err, "")
		return
	}
	n, err := h.store.ExamCount(r.Context())
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondOK(w, r, http.StatusOK, "Healthy", healthStatus{Exams: n})
}

// loggingMiddleware logs HTTP requests using slog.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
