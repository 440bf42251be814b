package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alokm/hr-assistant/internal/api"
	"github.com/alokm/hr-assistant/internal/auth"
	"github.com/alokm/hr-assistant/internal/config"
	"github.com/alokm/hr-assistant/internal/core"
	"github.com/alokm/hr-assistant/internal/history"
	"github.com/alokm/hr-assistant/internal/holiday"
	"github.com/alokm/hr-assistant/internal/ingest"
	"github.com/alokm/hr-assistant/internal/logging"
	"github.com/alokm/hr-assistant/internal/tools"
	"github.com/alokm/hr-assistant/internal/vectorstore"
)

func main() {
	root := &cobra.Command{
		Use:   "hr-assistant",
		Short: "Retrieval-augmented HR assistant with tool-calling agent",
	}
	root.AddCommand(serveCmd(), ingestCmd(), tokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New(nil, cfg.LogLevel)

			for _, missing := range cfg.MissingServices() {
				log.Warn().Str("service", missing).Msg("starting degraded: service not configured")
			}

			histories, err := history.New(cfg.DatabaseURL, cfg.SessionTTL)
			if err != nil {
				return fmt.Errorf("failed to initialize history store: %w", err)
			}
			defer histories.Close()

			handler, llm, err := buildHandler(cmd.Context(), cfg, histories, log)
			if err != nil {
				return err
			}
			if llm != nil {
				defer llm.Close()
			}

			srv := &http.Server{
				Addr:         ":" + cfg.HTTPPort,
				Handler:      api.NewRouter(handler, log),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 60 * time.Second, // LLM calls can take time
				IdleTimeout:  120 * time.Second,
			}

			go func() {
				log.Info().Str("addr", srv.Addr).Msg("starting server")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server failed")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			log.Info().Msg("shutting down server")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			log.Info().Msg("server exited gracefully")
			return nil
		},
	}
}

// buildHandler constructs the agent stack. Without a Gemini key the agent
// and vector index stay nil and the API reports them unavailable.
func buildHandler(ctx context.Context, cfg *config.Config, histories *history.Store, log *logging.Logger) (*api.APIHandler, *core.LLMService, error) {
	if cfg.GeminiAPIKey == "" {
		return api.NewAPIHandler(nil, histories, nil, cfg.JWTSecret, log), nil, nil
	}

	llm, err := core.NewLLMService(ctx, cfg.GeminiAPIKey, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize LLM service: %w", err)
	}

	vectors, err := vectorstore.New(cfg.DataDir, llm.EmbeddingFunc())
	if err != nil {
		llm.Close()
		return nil, nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	log.Info().Int("chunks", vectors.Count()).Msg("vector index loaded")

	registry := buildRegistry(cfg, vectors)
	agent := core.NewAgent(llm, registry, histories, log)

	return api.NewAPIHandler(agent, histories, vectors, cfg.JWTSecret, log), llm, nil
}

func buildRegistry(cfg *config.Config, vectors *vectorstore.Store) *tools.Registry {
	var holidays *holiday.Client
	if cfg.HolidayAPIKey != "" {
		holidays = holiday.NewClient(cfg.HolidayAPIBaseURL, cfg.HolidayAPIKey)
	}

	registry := tools.NewRegistry()
	registry.Register(tools.NewDateTool())
	registry.Register(tools.NewHolidaysTool(holidays, cfg.HolidayCountry))
	registry.Register(tools.NewTodayHolidayTool(holidays, cfg.HolidayCountry))
	registry.Register(tools.NewUpcomingHolidaysTool(holidays, cfg.HolidayCountry))
	registry.Register(tools.NewPolicySearchTool(vectors, cfg.RetrievalK))
	return registry
}

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Chunk and embed policy documents into the vector index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New(nil, cfg.LogLevel)

			if cfg.GeminiAPIKey == "" {
				return fmt.Errorf("GEMINI_API_KEY is required for ingestion")
			}

			llm, err := core.NewLLMService(cmd.Context(), cfg.GeminiAPIKey, log)
			if err != nil {
				return fmt.Errorf("failed to initialize LLM service: %w", err)
			}
			defer llm.Close()

			vectors, err := vectorstore.New(cfg.DataDir, llm.EmbeddingFunc())
			if err != nil {
				return fmt.Errorf("failed to open vector store: %w", err)
			}

			n, err := ingest.NewIngestor(vectors, log).IngestDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			log.Info().Int("chunks", n).Msg("ingestion finished")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the authenticated server mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is required to mint tokens")
			}

			token, err := auth.GenerateToken(cfg.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "hr-assistant", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	return cmd
}
