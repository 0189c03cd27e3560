package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rs/cors"

	"github.com/talentops/hragent/internal/adapters/duckdb"
	"github.com/talentops/hragent/internal/adapters/llm"
	appconfig "github.com/talentops/hragent/internal/config"
	"github.com/talentops/hragent/internal/core/ports"
	"github.com/talentops/hragent/internal/core/services"
	"github.com/talentops/hragent/pkg/kernel"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("starting hragent")

	if err := run(logger); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	cfg, err := appconfig.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	repo, err := duckdb.NewRepository(logger, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repo.Close()

	executor := duckdb.NewHRExecutor(logger, repo)

	var reasoner ports.Reasoner
	switch cfg.ReasonerBackend {
	case "ollama":
		reasoner = llm.NewOllamaReasoner(cfg.OllamaBaseURL, cfg.OllamaModel)
	default:
		reasoner = llm.NewOpenAIReasoner(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	logger.Info("reasoner configured", "backend", cfg.ReasonerBackend)

	planner := services.NewPlanner(logger, reasoner, executor, cfg.MaxSteps, cfg.StepBudget)
	sessions := services.NewSessionStore(repo, 64)

	apiServer := kernel.NewServer(logger, planner, sessions, repo)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: c.Handler(apiServer.Handler()),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting api server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
