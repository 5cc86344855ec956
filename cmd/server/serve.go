package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kairos-gateway/internal/auth"
	"kairos-gateway/internal/depends"
	"kairos-gateway/internal/engine"
	"kairos-gateway/internal/frappe"
	"kairos-gateway/internal/instrument"
	"kairos-gateway/internal/kv"
	"kairos-gateway/internal/logging"
	"kairos-gateway/internal/metadata"
	"kairos-gateway/internal/proxy"
	"kairos-gateway/internal/search"
	"kairos-gateway/internal/selection"
	"kairos-gateway/internal/views"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("config loaded",
		zap.Int("port", cfg.Server.Port),
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("kv", cfg.KV.Driver))

	// 1. Local state store
	store, err := kv.Open(ctx, cfg.KV)
	if err != nil {
		return fmt.Errorf("open kv store: %w", err)
	}
	defer store.Close()

	// 2. Backend client and schema registry
	client := frappe.New(cfg.Backend, logger)
	reg := metadata.NewRegistry(client, logger)

	// 3. Instrumentation
	buffer := instrument.NewEventBuffer(logger, 500, 1000)
	defer buffer.Stop()
	recorder := instrument.NewRecorder(buffer)

	// 4. Console services
	selections := selection.NewStore(selection.DefaultLimit)
	searcher := search.NewSearcher(client, reg, cfg.Search.Doctypes, cfg.Search.LimitPerType, logger)
	searches := search.NewSessions(searcher)
	if idle := cfg.Session.IdleTTL(); idle > 0 {
		go sweepIdle(ctx, idle, selections, searches)
	}

	// 5. Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler,
		BodyLimit:             int(cfg.Upload.MaxFileSize) + 1<<20,
		DisableStartupMessage: true,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(instrument.Middleware(recorder, cfg.Instrumentation.Enabled, cfg.Instrumentation.SamplingRate))
	app.Use(logging.RequestLogger(logger))

	// 6. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 7. Auth routes. Logout drops per-session state.
	sessionMW := auth.RequireSession(cfg.Session)
	authHandler := auth.NewAuthHandler(client, cfg.Session, logger)
	authHandler.OnLogout = func(sid string) {
		selections.DropSession(sid)
		searches.Drop(sid)
	}
	auth.RegisterAuthRoutes(app, authHandler, sessionMW)

	// 8. Console routes
	consoleHandler := engine.NewHandler(engine.Deps{
		Backend:    client,
		Registry:   reg,
		Evaluator:  depends.NewEvaluator(),
		Selections: selections,
		Searches:   searches,
		Recent:     search.NewRecent(store, cfg.Recent.MaxItems),
		Views:      views.NewService(client, logger),
		MaxUpload:  cfg.Upload.MaxFileSize,
		Logger:     logger,
	})
	engine.RegisterConsoleRoutes(app, consoleHandler, instrument.NewEventHandler(buffer), sessionMW)

	// 9. Everything else under /api goes to the backend as-is
	proxy.Register(app, proxy.Forward(cfg.Backend.BaseURL, cfg.Backend.Timeout(), logger))

	// 10. Start server
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		logger.Info("starting server", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

// sweepIdle reclaims console state of sessions that went quiet without a
// logout. It returns when ctx ends.
func sweepIdle(ctx context.Context, idle time.Duration, selections *selection.Store, searches *search.Sessions) {
	ticker := time.NewTicker(max(idle/4, time.Minute))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, m := selections.Sweep(idle), searches.Sweep(idle); n+m > 0 {
				logger.Debug("dropped idle session state", zap.Int("selections", n), zap.Int("searches", m))
			}
		}
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		return c.Status(code).JSON(engine.ErrorResponse{
			Error: &engine.AppError{Code: httpCode(code), Message: fiberErr.Message},
		})
	}

	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
	}

	logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(code).JSON(engine.ErrorResponse{
		Error: &engine.AppError{Code: "INTERNAL_ERROR", Message: "Something went wrong. Please try again."},
	})
}

func httpCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "FILE_TOO_LARGE"
	}
	if status >= 500 {
		return "INTERNAL_ERROR"
	}
	return "BAD_REQUEST"
}
