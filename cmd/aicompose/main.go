package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hercegdoo/aicompose/internal/adapter/cli"
	"github.com/hercegdoo/aicompose/internal/adapter/httpapi"
	llmhttp "github.com/hercegdoo/aicompose/internal/adapter/llm/http"
	"github.com/hercegdoo/aicompose/internal/adapter/llm/openai"
	"github.com/hercegdoo/aicompose/internal/adapter/llm/static"
	"github.com/hercegdoo/aicompose/internal/adapter/store/sqlite"
	"github.com/hercegdoo/aicompose/internal/config"
	"github.com/hercegdoo/aicompose/internal/injection"
	"github.com/hercegdoo/aicompose/internal/ratelimit"
	"github.com/hercegdoo/aicompose/internal/usecase/compose"
	"github.com/hercegdoo/aicompose/internal/usecase/settings"
	"github.com/hercegdoo/aicompose/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "aicompose",
		EnvPrefix:   "AIC",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	obs := buildObservability(cfg.Observability)

	provider := buildProvider(cfg.Providers, obs)
	limiter := ratelimit.NewStore(limitPolicies(cfg.Limits))

	orchestrator := compose.NewOrchestrator(compose.Deps{
		Provider: provider,
		Limiter:  limiter,
		Guard:    injection.NewGuard(),
		Validator: compose.NewValidator(compose.Options{
			Styles:       cfg.Options.Styles,
			Lengths:      cfg.Options.Lengths,
			Creativities: cfg.Options.Creativities,
			Languages:    cfg.Options.Languages,
		}),
		Prompts: compose.NewPromptBuilder(cfg.Options.LengthWords),
		Metrics: obs.metrics,
	})

	// Initialize instruction store if enabled
	var instructionService httpapi.InstructionService
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else {
			store, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				log.Printf("warning: failed to initialize store: %v", err)
			} else {
				defer store.Close()
				instructionService = settings.NewService(store)
			}
		}
	}

	api := httpapi.NewServer(orchestrator, instructionService, limiter, obs.metrics, cfg.Server.Debug)

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:      &serverRunner{handler: api.Handler()},
		DefaultAddr: cfg.Server.Addr,
		Version:     version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "aicompose"))
	}
	return paths
}

// serverRunner hosts the HTTP API and drains it when the context ends.
type serverRunner struct {
	handler http.Handler
}

func (r *serverRunner) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           r.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// observabilityComponents holds shared observability instances
type observabilityComponents struct {
	logger  llmhttp.Logger
	metrics llmhttp.Metrics
}

// buildObservability creates observability components based on configuration
func buildObservability(cfg config.ObservabilityConfig) observabilityComponents {
	var logger llmhttp.Logger
	var metrics llmhttp.Metrics

	if cfg.Logging.Enabled {
		logLevel := llmhttp.LogLevelInfo
		switch cfg.Logging.Level {
		case "debug":
			logLevel = llmhttp.LogLevelDebug
		case "error":
			logLevel = llmhttp.LogLevelError
		}

		logger = llmhttp.NewDefaultLogger(logLevel, logFormat(cfg.Logging.Format), cfg.Logging.RedactAPIKeys)
	}

	if cfg.Metrics.Enabled {
		metrics = llmhttp.NewDefaultMetrics()
	}

	return observabilityComponents{
		logger:  logger,
		metrics: metrics,
	}
}

// logFormat resolves the configured format; "auto" follows the terminal.
func logFormat(format string) llmhttp.LogFormat {
	switch format {
	case "json":
		return llmhttp.LogFormatJSON
	case "human":
		return llmhttp.LogFormatHuman
	default:
		if cli.IsOutputTerminal() {
			return llmhttp.LogFormatHuman
		}
		return llmhttp.LogFormatJSON
	}
}

// limitPolicies converts configured limits to rate-limit policies,
// falling back to the defaults for absent or malformed entries.
func limitPolicies(limits map[string]config.LimitConfig) map[ratelimit.Action]ratelimit.Policy {
	policies := ratelimit.DefaultPolicies()
	for name, limit := range limits {
		action := ratelimit.Action(name)
		policy, ok := policies[action]
		if !ok {
			policy = policies[ratelimit.ActionGeneral]
		}
		if limit.Requests > 0 {
			policy.Requests = limit.Requests
		}
		if window, err := time.ParseDuration(limit.Window); err == nil && window > 0 {
			policy.Window = window
		}
		if blockFor, err := time.ParseDuration(limit.BlockFor); err == nil && blockFor > 0 {
			policy.BlockFor = blockFor
		}
		policies[action] = policy
	}
	return policies
}

func buildProvider(providers map[string]config.ProviderConfig, obs observabilityComponents) compose.Provider {
	if cfg, ok := providers["openai"]; ok && cfg.Enabled {
		apiKey := cfg.APIKey
		// An unresolved ${VAR} reference means the variable was not set.
		if apiKey == "" || apiKey == "${OPENAI_API_KEY}" {
			log.Println("OpenAI: no API key provided, using static provider")
		} else {
			model := cfg.Model
			if model == "" {
				model = "gpt-4o-mini"
			}
			client := openai.NewClient(apiKey, model, cfg.Endpoint, cfg.MaxTokens)
			if cfg.Timeout != nil {
				if timeout, err := time.ParseDuration(*cfg.Timeout); err == nil && timeout > 0 {
					client.SetTimeout(timeout)
				} else {
					log.Printf("warning: invalid openai timeout %q, keeping default", *cfg.Timeout)
				}
			}
			if obs.logger != nil {
				client.SetLogger(obs.logger)
			}
			if obs.metrics != nil {
				client.SetMetrics(obs.metrics)
			}
			return client
		}
	}

	return static.NewProvider("")
}

// Compile-time interface compliance checks
var _ compose.Provider = (*openai.Client)(nil)
var _ compose.Provider = (*static.Provider)(nil)
var _ compose.Limiter = (*ratelimit.Store)(nil)
var _ httpapi.GenerateService = (*compose.Orchestrator)(nil)
var _ httpapi.InstructionService = (*settings.Service)(nil)
var _ settings.Store = (*sqlite.Store)(nil)
var _ llmhttp.Logger = (*llmhttp.DefaultLogger)(nil)
var _ llmhttp.Metrics = (*llmhttp.DefaultMetrics)(nil)
var _ cli.ServerRunner = (*serverRunner)(nil)
