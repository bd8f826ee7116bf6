// Command server is the memorycore process entrypoint: it wires the
// Store, Embedder, Completer, and the C4-C10 component services into one
// Turn Orchestrator and serves it over HTTP. Grounded on the teacher's
// env-var bootstrap style (pkg/config.New) generalized past Lambda/DynamoDB
// to a long-lived process with its own listener and graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"memorycore/internal/completion"
	"memorycore/internal/config"
	"memorycore/internal/conflict"
	"memorycore/internal/domainaugment"
	"memorycore/internal/embedding"
	"memorycore/internal/lifecycle"
	"memorycore/internal/orchestrator"
	"memorycore/internal/resolver"
	"memorycore/internal/retrieval"
	"memorycore/internal/store/storepg"
	"memorycore/internal/transport/httpapi"
	"memorycore/pkg/observability"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger, err := newLogger(getEnv("ENVIRONMENT", "development"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load(getEnv("CONFIG_FILE", ""))
	if err != nil {
		return err
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return err
	}
	s := storepg.New(db)

	sysConfig := config.NewSystemConfig(context.Background(), s, logger)
	sysTicker := time.NewTicker(30 * time.Second)
	defer sysTicker.Stop()
	go func() {
		for range sysTicker.C {
			sysConfig.Refresh(context.Background())
		}
	}()

	embedder := embedding.NewResilientProvider(
		embedding.NewRestyProvider(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDim, 16),
		"embedder",
	)
	completer := completion.NewService(completion.NewResilientProvider(
		completion.NewOpenAIProvider(cfg.CompletionAPIKey, cfg.CompletionModel),
		"completer",
	))

	rcfg := resolver.DefaultConfig()
	rcfg.FuzzyThreshold = sysConfig.Float64(config.KeyResolverFuzzyThreshold, rcfg.FuzzyThreshold)

	lc := lifecycle.New(lifecycle.DefaultConfig())
	detector := conflict.New(lc, conflict.DefaultConfig())
	retriever := retrieval.New(s, lc, retrieval.DefaultConfig())
	augmenter := domainaugment.New(s, domainaugment.DefaultConfig())

	metrics := observability.NewCollector("memorycore")
	tp, err := observability.InitTracing(observability.TracingConfig{ServiceName: "memorycore", Environment: cfg.Environment})
	if err != nil {
		return err
	}
	defer tp.Shutdown(context.Background())

	ocfg := orchestrator.DefaultConfig()
	ocfg.TurnDeadline = sysConfig.Duration(config.KeyOrchestratorTurnDeadline, ocfg.TurnDeadline)

	orch := orchestrator.New(s, embedder, completer, rcfg, detector, retriever, augmenter,
		ocfg, metrics, tp.Tracer())

	router := httpapi.NewRouter(orch, logger)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router.Setup(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
