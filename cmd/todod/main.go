package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todoassist/internal/agent"
	"todoassist/internal/config"
	"todoassist/internal/httpapi"
	"todoassist/internal/observability"
	"todoassist/internal/provider"
	"todoassist/internal/storage"
	"todoassist/internal/tools"
)

const (
	sweepInterval = 5 * time.Minute
	sessionIdle   = 30 * time.Minute
)

func main() {
	var (
		configPath string
		addr       string
		engineName string
	)
	flag.StringVar(&configPath, "config", "", "Path to config JSON")
	flag.StringVar(&addr, "addr", "", "Listen address override")
	flag.StringVar(&engineName, "engine", "policy", "Chat engine: policy or loop")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	log := observability.Logger().With("component", "todod")

	store, err := storage.NewSQLiteStore(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store failed: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	dispatch := tools.NewDispatcher(store)
	engine, err := buildEngine(engineName, cfg, dispatch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init engine failed: %v\n", err)
		os.Exit(1)
	}

	sessions := agent.NewSessionManager(sessionIdle)
	api := httpapi.NewServer(store, engine, sessions, time.Duration(cfg.Server.TokenTTLMins)*time.Minute)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := sessions.Sweep()
				if err := store.DeleteExpiredTokens(ctx); err != nil && ctx.Err() == nil {
					log.Error("token sweep failed", "error", err)
				}
				if removed > 0 {
					log.Info("session sweep", "removed", removed)
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("listening", "addr", cfg.Server.Addr, "engine", engineName, "provider", cfg.Provider.Name)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "serve failed: %v\n", err)
		os.Exit(1)
	}
}

// buildEngine picks the chat engine. The deterministic policy works with
// or without a provider; the direct tool loop needs one.
func buildEngine(name string, cfg config.Config, dispatch *tools.Dispatcher) (agent.Engine, error) {
	opts := agent.LLMOptions{
		MaxTokens:         cfg.Agent.MaxTokens,
		Temperature:       cfg.Agent.Temperature,
		HistoryLimit:      cfg.Agent.HistoryLimit,
		HistoryTokenLimit: cfg.Agent.HistoryTokenLimit,
	}

	var llm provider.Provider
	if cfg.Provider.Enabled() {
		llm = provider.NewOpenAIProvider(provider.OpenAIConfig{
			Name:       cfg.Provider.Name,
			BaseURL:    cfg.Provider.BaseURL,
			APIKey:     cfg.Provider.APIKey,
			Model:      cfg.Provider.Model,
			TimeoutMS:  cfg.Provider.TimeoutMS,
			MaxRetries: cfg.Provider.MaxRetries,
		})
	}

	switch name {
	case "policy":
		var classifier agent.Classifier = agent.NewRuleClassifier()
		if llm != nil {
			classifier = agent.NewLLMClassifier(llm, opts)
		}
		return agent.NewPolicy(dispatch, classifier), nil
	case "loop":
		if llm == nil {
			return nil, fmt.Errorf("engine loop requires a configured provider (set GEMINI_API_KEY or OPENAI_API_KEY)")
		}
		return agent.NewToolLoop(llm, dispatch, opts), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (want policy or loop)", name)
	}
}
