package llm

import (
	"context"
	"fmt"

	logx "github.com/bayai-chat/server/pkg/logger"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/bayai-chat/server/internal/engine/model"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey         string
	BaseURL        string
	JudgmentConfig *model.JudgmentModelConfig
	AnswerConfig   *model.AnswerModelConfig
}

// ChatModels holds the judgment and answer chat models. The judgment model
// is the cheap low-temperature one used for classification, rewriting and
// summarization; the answer model produces user-facing replies.
type ChatModels struct {
	Judgment          *gemini.ChatModel
	Answer            *gemini.ChatModel
	JudgmentModelName string
	AnswerModelName   string
}

// NewChatModels creates both judgment and answer chat models sharing one
// Gemini client.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	client, err := newGenAIClient(ctx, config.APIKey, config.BaseURL)
	if err != nil {
		return nil, err
	}

	judgment, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.JudgmentConfig.Model,
		Temperature: &config.JudgmentConfig.Temperature,
		MaxTokens:   &config.JudgmentConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating judgment model")
		return nil, fmt.Errorf("error creating judgment model: %w", err)
	}

	answer, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.AnswerConfig.Model,
		Temperature: &config.AnswerConfig.Temperature,
		MaxTokens:   &config.AnswerConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating answer model")
		return nil, fmt.Errorf("error creating answer model: %w", err)
	}

	return &ChatModels{
		Judgment:          judgment,
		Answer:            answer,
		JudgmentModelName: config.JudgmentConfig.Model,
		AnswerModelName:   config.AnswerConfig.Model,
	}, nil
}

func newGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// GeminiEmbedder embeds query text with the Gemini embedding endpoint.
type GeminiEmbedder struct {
	client *genai.Client
	cfg    model.EmbeddingConfig
}

// NewGeminiEmbedder creates an embedder with its own Gemini client so it can
// be wired independently of the chat models.
func NewGeminiEmbedder(ctx context.Context, apiKey, baseURL string, cfg model.EmbeddingConfig) (*GeminiEmbedder, error) {
	client, err := newGenAIClient(ctx, apiKey, baseURL)
	if err != nil {
		return nil, err
	}
	return &GeminiEmbedder{client: client, cfg: cfg}, nil
}

// Embed returns the embedding vector for text, truncated by the API to the
// configured output dimensionality.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := int32(e.cfg.Dimensions)
	resp, err := e.client.Models.EmbedContent(ctx, e.cfg.Model,
		genai.Text(text),
		&genai.EmbedContentConfig{OutputDimensionality: &dim},
	)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embed content: empty embedding for %q", e.cfg.Model)
	}
	return resp.Embeddings[0].Values, nil
}

var _ model.Embedder = (*GeminiEmbedder)(nil)
