package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"inbox-rag-api/internal/application/pipeline"
	"inbox-rag-api/pkg/metrics"
)

// Generator 把 Eino ChatModel 适配为检索流水线的 TextGenerator 端口。
// 查询增强只需要单轮纯文本补全。
type Generator struct {
	factory  *EinoFactory
	provider string
	model    string
}

// NewGenerator 创建文本生成适配器；provider 为空时使用默认提供商
func NewGenerator(factory *EinoFactory, provider string) *Generator {
	g := &Generator{factory: factory, provider: provider}
	if factory != nil && factory.config != nil {
		name := provider
		if name == "" {
			name = factory.config.DefaultProvider
		}
		if cfg, ok := factory.config.Providers[name]; ok {
			g.model = cfg.Model
		}
	}
	return g
}

var _ pipeline.TextGenerator = (*Generator)(nil)

// Generate 单轮文本生成
func (g *Generator) Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	if g == nil || g.factory == nil {
		return "", fmt.Errorf("llm factory not configured")
	}

	chatModel, err := g.factory.Get(ctx, g.provider)
	if err != nil {
		return "", err
	}

	start := time.Now()
	msg, err := chatModel.Generate(ctx,
		[]*schema.Message{schema.UserMessage(prompt)},
		model.WithTemperature(temperature),
		model.WithMaxTokens(maxTokens),
	)
	metrics.LLMCallDuration.WithLabelValues(g.provider, g.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return "", fmt.Errorf("llm generate failed: %w", err)
	}
	metrics.LLMCallTotal.WithLabelValues(g.provider, g.model, "ok").Inc()

	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		metrics.LLMTokensUsed.WithLabelValues(g.provider, g.model, "prompt").
			Add(float64(msg.ResponseMeta.Usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(g.provider, g.model, "completion").
			Add(float64(msg.ResponseMeta.Usage.CompletionTokens))
	}

	return msg.Content, nil
}
