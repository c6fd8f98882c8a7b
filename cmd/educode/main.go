package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/dulakshi2002/Edu-Code/internal/auth"
	"github.com/dulakshi2002/Edu-Code/internal/codeexec"
	"github.com/dulakshi2002/Edu-Code/internal/handler"
	appI18n "github.com/dulakshi2002/Edu-Code/internal/i18n"
	"github.com/dulakshi2002/Edu-Code/internal/llm"
	"github.com/dulakshi2002/Edu-Code/internal/model"
	"github.com/dulakshi2002/Edu-Code/internal/seed"
	"github.com/dulakshi2002/Edu-Code/internal/store"
	"github.com/dulakshi2002/Edu-Code/internal/validate"
)

func main() {
	// A .env file in the working directory is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "educode",
		Short: "Edu-Code e-learning platform server and tools",
	}

	serve := serveCmd()
	root.AddCommand(serve, seedCmd(), exportCmd(), takeCmd(), userCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `educode --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLogFlags(cmd *cobra.Command, level string) {
	cmd.Flags().String("log-level", level, "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "educode.db", "SQLite database path")
	f.StringSlice("seed", nil, "YAML seed files with exams and courses to import (repeatable)")
	f.String("jwt-secret", "", "Secret used to sign access tokens (or set EDUCODE_JWT_SECRET)")
	f.Duration("token-ttl", 24*time.Hour, "Access token lifetime")
	f.Bool("secure-cookies", false, "Set Secure flag on the access token cookie")
	f.StringSlice("cors-origins", []string{"http://localhost:5173"}, "Origins allowed to call the API from a browser")
	f.String("admin-email", "admin@educode.local", "Email of the initial admin account")
	f.String("admin-password", "", "Initial admin password (or set EDUCODE_ADMIN_PASSWORD)")
	f.StringP("lang", "l", "en", "Default message language (en, es)")
	f.String("jdoodle-url", codeexec.DefaultEndpoint, "Code execution service endpoint")
	f.String("jdoodle-client-id", "", "Code execution client ID; empty disables the IDE")
	f.String("jdoodle-client-secret", "", "Code execution client secret")
	f.Duration("run-timeout", 30*time.Second, "Timeout for one code execution request")
	f.String("redis-addr", "", "Redis address for caching code runs that ask for it (\"cache\": true); empty disables the cache")
	f.String("redis-password", "", "Redis password")
	f.Int("redis-db", 0, "Redis database number")
	f.Duration("redis-ttl", time.Hour, "How long cached code runs are kept")
	f.String("llm-url", "", "OpenAI-compatible API base URL; empty disables the forum assistant")
	f.String("llm-key", "", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Duration("shutdown-timeout", 10*time.Second, "How long to wait for requests to finish on shutdown")
	addLogFlags(cmd, "info")
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed FILE...",
		Short: "Import exams and courses from YAML seed files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSeed,
	}
	cmd.Flags().String("db", "educode.db", "SQLite database path")
	addLogFlags(cmd, "info")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all exam reports as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "educode.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd, "info")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		RunE:  runUserAdd,
	}
	f := add.Flags()
	f.String("db", "educode.db", "SQLite database path")
	f.String("username", "", "Username (required)")
	f.String("email", "", "Email (required)")
	f.String("password", "", "Password, at least 8 characters (required)")
	f.Bool("admin", false, "Grant admin rights")
	addLogFlags(add, "info")
	_ = add.MarkFlagRequired("username")
	_ = add.MarkFlagRequired("email")
	_ = add.MarkFlagRequired("password")

	cmd.AddCommand(add)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EDUCODE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("educode")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/educode")
	v.AddConfigPath("/etc/educode")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	issuer, err := auth.NewIssuer(v.GetString("jwt-secret"), v.GetDuration("token-ttl"))
	if err != nil {
		return fmt.Errorf("token issuer: %w (set --jwt-secret or EDUCODE_JWT_SECRET)", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(ctx, db, v.GetString("admin-email"), v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	if paths := v.GetStringSlice("seed"); len(paths) > 0 {
		if _, err := seed.Load(ctx, db, paths); err != nil {
			return fmt.Errorf("load seed files: %w", err)
		}
	}

	var runner handler.Runner
	if id := v.GetString("jdoodle-client-id"); id != "" {
		opts := []codeexec.Option{codeexec.WithTimeout(v.GetDuration("run-timeout"))}
		if addr := v.GetString("redis-addr"); addr != "" {
			cache, err := codeexec.NewRedisCache(ctx, addr, v.GetString("redis-password"), v.GetInt("redis-db"), v.GetDuration("redis-ttl"))
			if err != nil {
				slog.Warn("code run cache disabled", "addr", addr, "error", err)
			} else {
				defer cache.Close()
				opts = append(opts, codeexec.WithCache(cache))
				slog.Info("caching code runs in redis", "addr", addr)
			}
		}
		runner = codeexec.New(v.GetString("jdoodle-url"), id, v.GetString("jdoodle-client-secret"), opts...)
	} else {
		slog.Warn("no code execution credentials, IDE runs are disabled")
	}

	var assistant handler.Assistant
	if url := v.GetString("llm-url"); url != "" {
		assistant = llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"))
		slog.Info("forum assistant enabled", "url", url, "model", v.GetString("llm-model"))
	}

	h := handler.New(db, issuer, runner, assistant, handler.Config{
		SecureCookies: v.GetBool("secure-cookies"),
		CORSOrigins:   v.GetStringSlice("cors-origins"),
	})

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "lang", lang, "db", v.GetString("db"))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), v.GetDuration("shutdown-timeout"))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	sum, err := seed.Load(cmd.Context(), db, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d file(s): %d exam(s), %d question(s), %d course(s); skipped %d file(s)\n",
		sum.Files, sum.Exams, sum.Questions, sum.Courses, sum.Skipped)
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportReports(cmd.Context())
	if err != nil {
		return fmt.Errorf("export reports: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	slog.Info("exported reports", "count", export.NumReports, "output", outPath)
	return nil
}

func runUserAdd(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	in := model.SignupInput{
		Username: strings.TrimSpace(v.GetString("username")),
		Email:    strings.ToLower(strings.TrimSpace(v.GetString("email"))),
		Password: v.GetString("password"),
	}
	if err := validate.Struct(in); err != nil {
		return err
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	u, err := createUser(cmd.Context(), db, in, v.GetBool("admin"))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) id=%s admin=%t\n", u.Username, u.Email, u.ID, u.IsAdmin)
	return nil
}

func createUser(ctx context.Context, db *store.Store, in model.SignupInput, admin bool) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := db.CreateUser(ctx, model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	if admin {
		if err := db.SetUserAdmin(ctx, u.ID, true); err != nil {
			return model.User{}, fmt.Errorf("grant admin: %w", err)
		}
		u.IsAdmin = true
	}
	return u, nil
}

func seedAdmin(ctx context.Context, db *store.Store, email, password string) error {
	count, err := db.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or EDUCODE_ADMIN_PASSWORD env var")
	}

	u, err := createUser(ctx, db, model.SignupInput{Username: "admin", Email: strings.ToLower(email), Password: password}, true)
	if err != nil {
		return err
	}
	slog.Info("seeded default admin user", "username", u.Username, "email", u.Email)
	return nil
}
