// Command entraid-demo runs a minimal application around the authentication
// core: the /auth/ actions plus a public page, an authenticated dashboard,
// and a role-gated admin page.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/go-entraid-auth/internal/bootstrap"
	httpx "github.com/target/go-entraid-auth/internal/http"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	svc, err := bootstrap.BuildAuthService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("build auth service: %w", err)
	}

	cookie := httpx.SessionCookie{
		Name:   cfg.Auth.EntraID.CookieName,
		MaxAge: cfg.Auth.EntraID.CookieMaxAge,
		Domain: cfg.HTTP.CookieDomain,
	}
	csrf := httpx.NewCSRFGuard(cfg.Auth.EntraID.CookieSecret)
	helpers := httpx.AuthHelpers{Svc: svc, Cookie: cookie}

	mux := http.NewServeMux()
	httpx.RegisterAuthRoutes(mux, &httpx.AuthHandlers{
		Svc:     svc,
		CSRF:    csrf,
		Cookie:  cookie,
		IsDev:   cfg.IsDev,
		Logger:  logger,
		BaseURL: cfg.HTTP.BaseURL,
	})

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		if user, ok := helpers.User(r); ok {
			fmt.Fprintf(w, "signed in as %s (%s)\n", user.Name, user.Email)
			return
		}
		fmt.Fprintf(w, "signed out; visit %s\n", helpers.SignInURL())
	})

	authCfg := httpx.AuthorizeConfig{
		Svc:    svc,
		CSRF:   csrf,
		Cookie: cookie,
		IsDev:  cfg.IsDev,
	}

	dashboardCfg := authCfg
	dashboardCfg.RequireAuth = true
	mux.Handle("GET /dashboard", httpx.WithAuth(func(w http.ResponseWriter, r *http.Request) {
		user, _ := httpx.GetUserFromContext(r.Context())
		fmt.Fprintf(w, "dashboard for %s, roles %v\n", user.Email, user.Roles)
	}, dashboardCfg))

	adminCfg := authCfg
	adminCfg.RequireAuth = true
	adminCfg.RequiredRoles = []string{"admin"}
	mux.Handle("GET /admin", httpx.WithAuth(func(w http.ResponseWriter, r *http.Request) {
		user, _ := httpx.GetUserFromContext(r.Context())
		fmt.Fprintf(w, "admin area, hello %s\n", user.Name)
	}, adminCfg))

	return serve(ctx, logger, mux, cfg.HTTP.Addr)
}

func serve(ctx context.Context, logger *slog.Logger, handler http.Handler, addr string) error {
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
