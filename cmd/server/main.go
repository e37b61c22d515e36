package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/genai"

	"github.com/inboundiq/server/internal/agent/decision"
	"github.com/inboundiq/server/internal/agent/escalation"
	"github.com/inboundiq/server/internal/agent/graph"
	"github.com/inboundiq/server/internal/agent/graph/nodes"
	"github.com/inboundiq/server/internal/agent/model"
	"github.com/inboundiq/server/internal/agent/rag"
	"github.com/inboundiq/server/internal/agent/tools"
	"github.com/inboundiq/server/internal/api"
	"github.com/inboundiq/server/internal/core"
	"github.com/inboundiq/server/internal/embedding"
	"github.com/inboundiq/server/internal/events"
	"github.com/inboundiq/server/internal/evidence"
	"github.com/inboundiq/server/internal/jobs"
	"github.com/inboundiq/server/internal/memory"
	"github.com/inboundiq/server/internal/reasoning"
	logx "github.com/inboundiq/server/pkg/logger"
	pkgredis "github.com/inboundiq/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the agent server,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey string `envconfig:"GEMINI_API_KEY" required:"true"`

	// Agent configs
	Decide       model.DecideModelConfig
	Compose      model.ComposeModelConfig
	Embedding    model.EmbeddingConfig
	Prompt       model.PromptConfig
	Thresholds   model.ThresholdConfig
	Stores       model.StoreConfig
	Conversation model.ConversationConfig
	Kafka        model.KafkaConfig
	Server       model.ServerConfig
	Jobs         model.JobsConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise Redis client")
	}
	defer rdb.Close()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create genai client")
	}

	// Stores
	factual, err := memory.NewFactualStore(cfg.Stores.FactualPath)
	if err != nil {
		logx.Fatal().Err(err).Str("path", cfg.Stores.FactualPath).Msg("failed to open factual store")
	}
	defer factual.Close()

	evidenceStore, err := evidence.NewStore(cfg.Stores.EvidencePath)
	if err != nil {
		logx.Fatal().Err(err).Str("path", cfg.Stores.EvidencePath).Msg("failed to open evidence store")
	}
	defer evidenceStore.Close()

	queryEmbedder, err := embedding.NewGenAIEmbedder(client, cfg.Embedding.Model, embedding.TaskRetrievalQuery)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create query embedder")
	}

	semantic, err := memory.NewSemanticIndex(cfg.Stores.SemanticPath, queryEmbedder)
	if err != nil {
		logx.Fatal().Err(err).Str("path", cfg.Stores.SemanticPath).Msg("failed to open semantic index")
	}
	defer semantic.Close()

	ttl, err := time.ParseDuration(cfg.Conversation.TTL)
	if err != nil {
		logx.Fatal().Str("ttl", cfg.Conversation.TTL).Msg("invalid CONVERSATION_TTL")
	}
	cache := memory.NewRedisTurnCache(rdb, ttl, cfg.Conversation.MaxTurns)
	gw := memory.NewGateway(factual, cache, semantic)

	// Event sink
	var sink events.Sink = events.NopSink{}
	if cfg.Kafka.Brokers != "" {
		sink = events.NewKafkaSink(strings.Split(cfg.Kafka.Brokers, ","), cfg.Kafka.DecisionTopic, cfg.Kafka.EscalationTopic)
		logx.Info().Str("brokers", cfg.Kafka.Brokers).Msg("kafka event sink enabled")
	}
	defer sink.Close()

	// Reasoning
	decideGen, err := reasoning.NewGeminiGenerator(ctx, client, reasoning.GeminiConfig{
		Model:       cfg.Decide.Model,
		MaxTokens:   cfg.Decide.MaxTokens,
		Temperature: cfg.Decide.Temperature,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create decide generator")
	}
	composeGen, err := reasoning.NewGeminiGenerator(ctx, client, reasoning.GeminiConfig{
		Model:       cfg.Compose.Model,
		MaxTokens:   cfg.Compose.MaxTokens,
		Temperature: cfg.Compose.Temperature,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create compose generator")
	}

	// Tools
	registry := tools.NewRegistry(
		tools.NewCalendarTool(gw),
		tools.NewCRMTool(gw),
		tools.NewMessageTool(gw),
	)
	executor := tools.NewExecutor(registry)

	// Cycle graph
	runner, err := graph.NewRunner(ctx, &nodes.Deps{
		Gateway:    gw,
		Engine:     decision.NewEngine(decideGen, &cfg.Prompt, registry.Names()),
		Retriever:  rag.NewRetriever(queryEmbedder, evidenceStore, cfg.Thresholds.TopK),
		Reranker:   rag.NewReranker(cfg.Thresholds.RerankDrop),
		Composer:   composeGen,
		Executor:   executor,
		Escalation: escalation.NewHandler(gw, sink),
		Sink:       sink,
		PromptCfg:  &cfg.Prompt,
		Thresholds: cfg.Thresholds,
		MaxTurns:   cfg.Conversation.MaxTurns,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build cycle graph")
	}

	// Background follow-up sweeper
	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	interval, err := time.ParseDuration(cfg.Jobs.FollowUpInterval)
	if err != nil {
		logx.Fatal().Str("interval", cfg.Jobs.FollowUpInterval).Msg("invalid FOLLOWUP_CHECK_INTERVAL")
	}
	go jobs.NewFollowUpSweeper(gw, executor, interval).Run(sweepCtx)

	// HTTP front door
	server := api.NewServer(cfg.Server.Addr, runner)
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logx.Fatal().Err(err).Msg("server failed")
	case sig := <-stop:
		logx.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	cancelSweep()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
}
