package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"inbox-rag-api/pkg/logger"
)

// Enhancer 查询增强器：上下文改写、HyDE、多查询变体。
// 三个步骤独立开关、独立容错，任意一步失败不影响其余步骤。
type Enhancer struct {
	generator TextGenerator
}

// NewEnhancer 创建查询增强器；generator 为 nil 时所有步骤降级为直通
func NewEnhancer(generator TextGenerator) *Enhancer {
	return &Enhancer{generator: generator}
}

// Enhance 执行查询增强。仅当 cfg.FallbackOnError 为 false 且上下文改写
// 失败时返回错误；其余失败一律降级并记录日志。
func (e *Enhancer) Enhance(ctx context.Context, query string, history []HistoryTurn, cfg EnhanceConfig) (*EnhancedQuery, error) {
	query = strings.TrimSpace(query)
	result := &EnhancedQuery{
		OriginalQuery: query,
		EnhancedQuery: query,
	}

	// 1) 上下文注入：结合历史改写为独立查询
	if cfg.ContextRewrite && len(history) > 0 && e.available() {
		rewritten, err := e.rewriteWithContext(ctx, query, history, cfg.HistoryTurns)
		if err != nil {
			if !cfg.FallbackOnError {
				return nil, enhancementError("context_rewrite", err)
			}
			logger.Warn(ctx, "context rewrite failed, falling back to original query",
				"error", err.Error())
		} else if rewritten != "" {
			result.EnhancedQuery = rewritten
		}
	}

	// 2) HyDE：生成假设答案文档，仅作为额外的嵌入目标
	if cfg.HyDE && e.available() {
		doc, err := e.generateHyDE(ctx, result.EnhancedQuery)
		if err != nil {
			logger.Warn(ctx, "hyde generation failed, continuing without it",
				"error", err.Error())
		} else {
			result.HyDEDocument = doc
		}
	}

	// 3) 多查询变体
	result.QueryVariants = []string{result.EnhancedQuery}
	if cfg.MultiQuery && e.available() {
		variants, err := e.generateVariants(ctx, result.EnhancedQuery, cfg.VariantCount)
		if err != nil || len(variants) == 0 {
			if err != nil {
				logger.Warn(ctx, "multi-query generation failed, using enhanced query only",
					"error", err.Error())
			}
		} else {
			result.QueryVariants = variants
		}
	}

	return result, nil
}

func (e *Enhancer) available() bool {
	return e != nil && e.generator != nil
}

func (e *Enhancer) rewriteWithContext(ctx context.Context, query string, history []HistoryTurn, turns int) (string, error) {
	if !e.available() {
		return "", ErrGeneratorUnavailable
	}
	prompt := buildContextRewritePrompt(query, history, turns)
	out, err := e.generator.Generate(ctx, prompt, 0.3, 256)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(out), `"`)), nil
}

func (e *Enhancer) generateHyDE(ctx context.Context, query string) (string, error) {
	if !e.available() {
		return "", ErrGeneratorUnavailable
	}
	out, err := e.generator.Generate(ctx, buildHyDEPrompt(query), 0.7, 512)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (e *Enhancer) generateVariants(ctx context.Context, query string, count int) ([]string, error) {
	if !e.available() {
		return nil, ErrGeneratorUnavailable
	}
	out, err := e.generator.Generate(ctx, buildMultiQueryPrompt(query, count), 0.8, 512)
	if err != nil {
		return nil, err
	}
	return parseVariants(out, count), nil
}

// parseVariants 解析变体列表，依次尝试：JSON 数组、markdown 围栏内的
// JSON、逐行切分（编号/列表符/引号），修剪后截断到 count。
func parseVariants(raw string, count int) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if v := tryParseJSONArray(raw); len(v) > 0 {
		return capVariants(v, count)
	}
	if fenced := extractFencedBlock(raw); fenced != "" {
		if v := tryParseJSONArray(fenced); len(v) > 0 {
			return capVariants(v, count)
		}
	}

	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = trimListMarker(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return capVariants(out, count)
}

func tryParseJSONArray(s string) []string {
	var arr []string
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		return nil
	}
	var out []string
	for _, item := range arr {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// extractFencedBlock 提取第一个 markdown 代码围栏的内容
func extractFencedBlock(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return ""
	}
	rest := s[start+3:]
	// 跳过语言标注行（如 "json"）
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		first := strings.TrimSpace(rest[:nl])
		if first == "json" || first == "" {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}

// trimListMarker 去掉行首的编号（"1." "2)"）、列表符与成对引号
func trimListMarker(line string) string {
	line = strings.TrimSpace(line)

	// 编号前缀
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		line = strings.TrimSpace(line[i+1:])
	}

	line = strings.TrimSpace(strings.TrimLeft(line, "-*•"))

	if len(line) >= 2 {
		if (line[0] == '"' && line[len(line)-1] == '"') ||
			(line[0] == '\'' && line[len(line)-1] == '\'') {
			line = strings.TrimSpace(line[1 : len(line)-1])
		}
	}
	return line
}

func capVariants(v []string, count int) []string {
	if count > 0 && len(v) > count {
		return v[:count]
	}
	return v
}
