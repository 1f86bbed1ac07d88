package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/bayai-chat/server/internal/core"
	"github.com/bayai-chat/server/internal/engine/graph"
	"github.com/bayai-chat/server/internal/engine/llm"
	"github.com/bayai-chat/server/internal/engine/memory"
	"github.com/bayai-chat/server/internal/engine/model"
	"github.com/bayai-chat/server/internal/engine/service"
	"github.com/bayai-chat/server/internal/engine/summarize"
	logx "github.com/bayai-chat/server/pkg/logger"
	pkgredis "github.com/bayai-chat/server/pkg/redis"
	pkgweaviate "github.com/bayai-chat/server/pkg/weaviate"
)

// AppConfig defines all configurable parameters for the engine example,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis    pkgredis.Config
	Weaviate pkgweaviate.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Engine configs
	Judgment     model.JudgmentModelConfig
	Answer       model.AnswerModelConfig
	Embedding    model.EmbeddingConfig
	Retriever    model.RetrieverConfig
	Conversation model.ConversationConfig

	// Demo tenant
	Namespace   string `envconfig:"DEMO_NAMESPACE" default:"demo-company"`
	CompanyName string `envconfig:"DEMO_COMPANY_NAME" default:"Demo Company"`
}

func main() {
	fmt.Println("Testing conversation engine...")
	ctx := context.Background()

	logx.Init(logx.LoggerOpts{Environment: core.FromEnv()})

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	rdb, err := envCfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()
	fmt.Println("Connected to Redis successfully")

	weaviateClient, err := envCfg.Weaviate.New()
	if err != nil {
		log.Fatalf("Failed to initialise Weaviate client: %v", err)
	}
	fmt.Println("Connected to Weaviate successfully")

	runner, err := graph.BuildEngineGraph(ctx, graph.Config{
		APIKey:         envCfg.APIKey,
		BaseURL:        envCfg.BaseURL,
		JudgmentModel:  envCfg.Judgment,
		AnswerModel:    envCfg.Answer,
		Embedding:      envCfg.Embedding,
		Retriever:      envCfg.Retriever,
		Conversation:   envCfg.Conversation,
		WeaviateClient: weaviateClient,
	})
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}

	judgment, err := llm.NewChatModels(ctx, llm.ChatModelConfig{
		APIKey:         envCfg.APIKey,
		BaseURL:        envCfg.BaseURL,
		JudgmentConfig: &envCfg.Judgment,
		AnswerConfig:   &envCfg.Answer,
	})
	if err != nil {
		log.Fatalf("Failed to build summarizer model: %v", err)
	}

	svc := service.NewChatSessionService(
		runner,
		memory.NewRedisSessionStore(rdb, envCfg.Conversation),
		summarize.NewSummarizer(judgment.Judgment),
		envCfg.Conversation,
	)

	testQueries := []struct {
		description string
		query       string
	}{
		{
			description: "First question against the knowledge base",
			query:       "What services do you offer?",
		},
		{
			description: "Follow-up needing query rewriting",
			query:       "How much does it cost?",
		},
		{
			description: "Callback request starting contact collection",
			query:       "Can someone call me back about this?",
		},
		{
			description: "Farewell short-circuit",
			query:       "Thanks, goodbye!",
		},
	}

	sessionID := ""

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Query: %q\n", test.query)
		fmt.Println("Processing...")

		out := svc.Process(ctx, service.ChatRequest{
			SessionID:   sessionID,
			Question:    test.query,
			Namespace:   envCfg.Namespace,
			CompanyName: envCfg.CompanyName,
		})
		sessionID = out.SessionID

		fmt.Printf("Response %d [%s]: %s\n", i+1, out.Mode, out.Answer)
		for _, src := range out.Sources {
			fmt.Printf("  source: %s (%.2f)\n", src.Title, src.Score)
		}
		if out.NeedsCallback {
			fmt.Printf("  callback requested; collected: %+v\n", out.Contact)
		}
		fmt.Println("-----------------------------------------------")

		// slight delay between tests for readability
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("All engine tests completed.")
}
