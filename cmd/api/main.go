package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/lacereza/storefront/internal/di"
	"github.com/lacereza/storefront/internal/handlers"
	"github.com/lacereza/storefront/internal/platform/config"
	"github.com/lacereza/storefront/internal/platform/observability"
	"github.com/lacereza/storefront/internal/platform/secrets"
	"github.com/lacereza/storefront/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets(requiredSecretNames(envValues)...),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(envValues, cfg, startedAt)

	container, err := di.NewContainer(ctx, cfg,
		di.WithLogger(logger),
		di.WithBuildInfo(buildInfo),
	)
	if err != nil {
		logger.Fatal("failed to build container", zap.Error(err), zap.String("backend", cfg.Store.Backend))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	// The server still starts when the first load fails; readiness stays red until /reload succeeds.
	loadCtx, cancelLoad := context.WithTimeout(ctx, 30*time.Second)
	if result, err := container.Services.Store.Load(loadCtx); err != nil {
		logger.Error("initial store load failed", zap.Error(err))
	} else {
		logger.Info("store document loaded",
			zap.Bool("seeded", result.Seeded),
			zap.Strings("fallbacks", result.Fallbacks),
		)
	}
	cancelLoad()

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(container.Services.System),
	)
	publicHandlers := handlers.NewPublicHandlers(container.Services.Catalog, container.Services.Checkout)
	editorHandlers := handlers.NewEditorHandlers(container.Services.Store,
		handlers.WithEditorMaxUploadBytes(cfg.Media.MaxUploadBytes),
		handlers.WithEditorAIService(container.Services.AI),
		handlers.WithEditorAIMiddlewares(handlers.RateLimit(cfg.RateLimits.AIPerMinute, nil)),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPublicRoutes(publicHandlers.Routes),
		handlers.WithPublicMiddlewares(handlers.RateLimit(cfg.RateLimits.PublicPerMinute, nil)),
		handlers.WithEditorRoutes(editorHandlers.Routes),
		handlers.WithEditorMiddlewares(handlers.RateLimit(cfg.RateLimits.EditorPerMinute, nil)),
	)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront api listening",
			zap.String("backend", cfg.Store.Backend),
			zap.String("media_mode", cfg.Media.Mode),
			zap.Bool("ai_enabled", container.Services.AI.Enabled()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(env["STORE_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(env["STORE_BUILD_COMMIT_SHA"])
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firestore.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Events.ProjectID)
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		return strings.TrimSpace(env[key])
	}

	project := lookup("STORE_SECRETS_PROJECT_ID")
	if project == "" {
		project = lookup("STORE_FIRESTORE_PROJECT_ID")
	}
	fallbackPath := lookup("STORE_SECRETS_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if project != "" {
		opts = append(opts, secrets.WithProject(project))
	}
	if credentialsFile := lookup("STORE_GOOGLE_CREDENTIALS_FILE"); credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}
	return secrets.NewFetcher(ctx, opts...)
}

// requiredSecretNames lists secrets that must resolve before the server starts. The AI key is only
// mandatory when the helpers are switched on and the key is a secret reference.
func requiredSecretNames(env map[string]string) []string {
	if env == nil {
		return nil
	}
	enabled := strings.ToLower(strings.TrimSpace(env["STORE_AI_ENABLED"]))
	if enabled == "false" || enabled == "0" {
		return nil
	}
	key := strings.TrimSpace(env["STORE_AI_API_KEY"])
	if strings.HasPrefix(key, "secret://") || strings.HasPrefix(key, "sm://") {
		return []string{"AI.APIKey"}
	}
	return nil
}
