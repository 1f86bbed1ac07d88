package nodes

import (
	"context"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/bayai-chat/server/internal/engine/model"
	logx "github.com/bayai-chat/server/pkg/logger"
)

// costTrackingGenerator accumulates per-call LLM usage cost into the graph
// state. Components keep seeing a plain Generator; outside a graph run the
// accumulation is a no-op.
type costTrackingGenerator struct {
	inner     model.Generator
	modelName string
}

// NewCostTrackingGenerator wraps gen so every call's token usage is priced
// and added to the running total for the query.
func NewCostTrackingGenerator(gen model.Generator, modelName string) model.Generator {
	return &costTrackingGenerator{inner: gen, modelName: modelName}
}

func (g *costTrackingGenerator) Generate(ctx context.Context, msgs []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	out, err := g.inner.Generate(ctx, msgs, opts...)
	if err != nil {
		return out, err
	}

	if model.CostEnabled() && out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		pricing := model.ResolvePricing(g.modelName)
		inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)

		logx.Debug().
			Str("model", g.modelName).
			Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
			Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
			Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
			Float64("input_cost_usd", inC).
			Float64("output_cost_usd", outC).
			Float64("total_cost_usd", totalC).
			Msg("LLM usage")

		_ = compose.ProcessState(ctx, func(_ context.Context, s *model.ChatState) error {
			s.TotalCostUSD += totalC
			return nil
		})
	}
	return out, nil
}
