// Package graph composes the conversation pipeline: classify, rewrite,
// retrieve, branch to answer, web fallback or off-topic redirect.
package graph

import (
	"context"
	"fmt"

	logx "github.com/bayai-chat/server/pkg/logger"
	"github.com/cloudwego/eino/compose"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"github.com/bayai-chat/server/internal/engine/answer"
	"github.com/bayai-chat/server/internal/engine/graph/nodes"
	"github.com/bayai-chat/server/internal/engine/graph/observers"
	"github.com/bayai-chat/server/internal/engine/llm"
	"github.com/bayai-chat/server/internal/engine/model"
	"github.com/bayai-chat/server/internal/engine/offtopic"
	"github.com/bayai-chat/server/internal/engine/retrieve"
	"github.com/bayai-chat/server/internal/engine/rewrite"
	"github.com/bayai-chat/server/internal/engine/websearch"
)

// Runner executes the compiled graph for one inbound message.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (*model.EngineResult, error)
}

// Config holds everything needed to compose the full engine graph
// end-to-end. This is a convenience layer over Components that also
// constructs the chat models, embedder and vector index.
type Config struct {
	APIKey  string
	BaseURL string

	JudgmentModel model.JudgmentModelConfig
	AnswerModel   model.AnswerModelConfig
	Embedding     model.EmbeddingConfig
	Retriever     model.RetrieverConfig
	Conversation  model.ConversationConfig

	WeaviateClient *weaviate.Client
}

// Components are the per-stage collaborators the graph nodes delegate to.
type Components struct {
	Rewriter    *rewrite.Rewriter
	Retriever   *retrieve.Retriever
	Detector    *offtopic.Detector
	WebSearcher *websearch.Searcher
	Responder   *answer.Responder
}

// GraphBuilder handles the construction of the engine conversation graph.
type GraphBuilder struct {
	components *Components
	graph      *compose.Graph[model.QueryInput, *model.EngineResult]
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *model.EngineResult]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (*model.EngineResult, error) {
	return r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
}

// BuildEngineGraph composes models, retrieval and the graph, returning a
// ready Runner.
func BuildEngineGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.WeaviateClient == nil {
		return nil, fmt.Errorf("weaviate client is nil")
	}

	cms, err := llm.NewChatModels(ctx, llm.ChatModelConfig{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		JudgmentConfig: &cfg.JudgmentModel,
		AnswerConfig:   &cfg.AnswerModel,
	})
	if err != nil {
		return nil, err
	}

	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.APIKey, cfg.BaseURL, cfg.Embedding)
	if err != nil {
		return nil, err
	}

	judgment := nodes.NewCostTrackingGenerator(cms.Judgment, cms.JudgmentModelName)
	answerGen := nodes.NewCostTrackingGenerator(cms.Answer, cms.AnswerModelName)

	components := &Components{
		Rewriter:    rewrite.NewRewriter(judgment, cfg.Conversation),
		Retriever:   retrieve.NewRetriever(embedder, retrieve.NewWeaviateIndex(cfg.WeaviateClient, cfg.Retriever.ClassName), cfg.Retriever),
		Detector:    offtopic.NewDetector(judgment),
		WebSearcher: websearch.NewSearcher(answerGen),
		Responder:   answer.NewResponder(answerGen),
	}

	runnable, err := BuildGraph(ctx, components)
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Engine graph built successfully")
	return &graphRunner{runnable: runnable}, nil
}

// BuildGraph constructs and compiles the engine graph from its components.
func BuildGraph(ctx context.Context, components *Components) (compose.Runnable[model.QueryInput, *model.EngineResult], error) {
	if components == nil {
		return nil, fmt.Errorf("graph components are nil")
	}
	if components.Rewriter == nil || components.Retriever == nil ||
		components.Detector == nil || components.WebSearcher == nil || components.Responder == nil {
		return nil, fmt.Errorf("graph components are not fully initialized")
	}

	builder := &GraphBuilder{
		components: components,
		graph: compose.NewGraph[model.QueryInput, *model.EngineResult](
			compose.WithGenLocalState(func(ctx context.Context) *model.ChatState {
				return &model.ChatState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodeClassify,
		nodes.NewClassifyNode(),
		compose.WithStatePreHandler(nodes.NewClassifyPreHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeRewrite,
		nodes.NewRewriteNode(b.components.Rewriter),
	)

	b.graph.AddLambdaNode(nodes.NodeRetrieve,
		nodes.NewRetrieveNode(b.components.Retriever),
	)

	b.graph.AddLambdaNode(nodes.NodeWebSearch,
		nodes.NewWebSearchNode(b.components.WebSearcher),
	)

	b.graph.AddLambdaNode(nodes.NodeOffTopicRedirect,
		nodes.NewOffTopicRedirectNode(b.components.Detector),
	)

	b.graph.AddLambdaNode(nodes.NodeAnswer,
		nodes.NewAnswerNode(b.components.Responder),
	)
}

// addEdges creates the unconditional flow connections between nodes
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodeClassify},
		{nodes.NodeRewrite, nodes.NodeRetrieve},
		{nodes.NodeWebSearch, nodes.NodeAnswer},
		{nodes.NodeAnswer, compose.END},
		{nodes.NodeOffTopicRedirect, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	skipBranch := compose.NewGraphBranch(
		nodes.NewSkipSearchCondition(),
		map[string]bool{
			compose.END:       true,
			nodes.NodeRewrite: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeClassify, skipBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding skip-search branch")
		return fmt.Errorf("error adding skip-search branch: %w", err)
	}

	retrievalBranch := compose.NewGraphBranch(
		nodes.NewRetrievalCondition(b.components.Detector),
		map[string]bool{
			nodes.NodeAnswer:           true,
			nodes.NodeWebSearch:        true,
			nodes.NodeOffTopicRedirect: true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeRetrieve, retrievalBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding retrieval branch")
		return fmt.Errorf("error adding retrieval branch: %w", err)
	}

	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *model.EngineResult], error) {
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(20))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}
