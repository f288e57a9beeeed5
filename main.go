package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/finora-app/finora/internal/auth"
	"github.com/finora-app/finora/internal/config"
	"github.com/finora-app/finora/internal/csrf"
	"github.com/finora-app/finora/internal/httpx"
	"github.com/finora-app/finora/internal/requestctx"
	"github.com/finora-app/finora/internal/store"
)

// Embeds the migration files into the binary so deploys are a single artifact.

//go:embed migrations/*.sql
var migrationsDir embed.FS

func main() {
	// Load config first so we can set log level.
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger before config is available.
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}

	// Include source location in log entries at debug level only.
	addSrc := cfg.LogLevel == slog.LevelDebug

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: addSrc,
	})))

	// Cancel ctx on SIGINT/SIGTERM; run() shuts down when ctx is done.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run() is a separate func so deferred closes always execute before os.Exit.
	if err := run(ctx, cfg, nil); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// run holds all server logic and returns error instead of calling os.Exit,
// so deferred resource cleanup always runs.
// Shuts down when ctx is cancelled (signal handling is the caller's concern).
// If ready is non-nil, the server's base URL is sent on it once the listener is bound.
func run(ctx context.Context, cfg *config.Config, ready chan<- string) error {
	ps, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to set up postgres store: %w", err)
	}
	defer ps.Close()

	migrationsFS, err := fs.Sub(migrationsDir, "migrations")
	if err != nil {
		return fmt.Errorf("failed to access embedded migrations: %w", err)
	}
	if err := ps.Migrate(ctx, migrationsFS); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Rate limiting needs Redis; without REDIS_URL every request is allowed.
	var rl httpx.RateLimiter = store.NoopRateLimiter{}
	if cfg.RedisURL != "" {
		rrl, err := store.NewRedisRateLimiter(ctx, cfg.RedisURL, store.RateLimitPolicy{
			MaxAttempts: cfg.RateLimitMax,
			Window:      cfg.RateLimitWindow,
		})
		if err != nil {
			return fmt.Errorf("failed to set up redis rate limiter: %w", err)
		}
		defer rrl.Close()
		rl = rrl
	} else {
		slog.Warn("REDIS_URL not set, rate limiting disabled")
	}

	protector, err := csrf.New(csrf.Config{
		SigningKey:       []byte(cfg.CSRFSecret),
		CookieKey:        []byte(cfg.CookieSecret),
		CookieDomain:     cfg.CookieDomain,
		CookieSecure:     cfg.CookieSecure,
		TokenTTL:         cfg.CSRFTokenTTL,
		ProtectedMethods: cfg.CSRFProtectedMethods,
	})
	if err != nil {
		return fmt.Errorf("failed to set up csrf protection: %w", err)
	}

	h := &auth.Handler{Svc: &auth.Service{DB: ps}}

	// Bind listener; ":0" picks a free port (useful in tests).
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	server := &http.Server{Handler: buildRouter(cfg, protector, rl, h)}

	// Start server in a goroutine; run() continues past this.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("finora api listening", "addr", ln.Addr().String())
		// Send error only if server stops for a reason other than explicit shutdown.
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Signal readiness to caller (used by tests; nil in production).
	if ready != nil {
		ready <- "http://" + ln.Addr().String()
	}

	// Wait for server error or shutdown signal from ctx.
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// buildRouter wires all routes and middleware.
// Order matters: the request id must exist before anything logs, the
// recoverer must wrap everything that can panic, and CSRF runs last so
// rejected requests still get logged and rate limited.
func buildRouter(cfg *config.Config, protector *csrf.Protector, rl httpx.RateLimiter, h *auth.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestctx.Middleware)
	r.Use(httpx.RequestLogger)
	r.Use(httpx.Recoverer)
	r.Use(httpx.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "x-csrf-token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httpx.RateLimit(rl))
	r.Use(middleware.Timeout(30 * time.Second))

	r.NotFound(httpx.NotFound)
	r.MethodNotAllowed(httpx.MethodNotAllowed)

	// Health stays outside the envelope; load balancers want a flat body.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"UP"}`))
	})

	r.Get(cfg.CSRFTokenPath, protector.TokenHandler())

	r.Group(func(r chi.Router) {
		r.Use(protector.Protect)
		r.Post("/api/v1/auth/signup", h.SignUp)
		r.Post("/api/v1/auth/signin", h.SignIn)
	})

	return r
}
