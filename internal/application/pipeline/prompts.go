package pipeline

import (
	"fmt"
	"strings"
)

// 查询增强使用的提示词模板。
// 输出约定尽量机器可读（JSON 优先），解析侧仍做多级降级。

const contextRewritePrompt = `Given the conversation history below, rewrite the latest user question into a fully self-contained search query. Resolve pronouns and implicit references using the history. Reply with the rewritten query only, no explanations.

Conversation history:
%s

Latest question: %s

Rewritten query:`

const hydePrompt = `Write a short, factual passage (3-5 sentences) that would directly answer the question below, as if it came from a knowledge base article or an email. Do not mention that it is hypothetical. Reply with the passage only.

Question: %s

Passage:`

const multiQueryPrompt = `Generate %d alternative phrasings of the search query below. Keep the same intent but vary the wording and specificity. Reply with a JSON array of strings only.

Query: %s`

func buildContextRewritePrompt(query string, history []HistoryTurn, turns int) string {
	if turns > 0 && len(history) > turns {
		history = history[len(history)-turns:]
	}
	var sb strings.Builder
	for _, turn := range history {
		sb.WriteString(turn.Role)
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteByte('\n')
	}
	return fmt.Sprintf(contextRewritePrompt, sb.String(), query)
}

func buildHyDEPrompt(query string) string {
	return fmt.Sprintf(hydePrompt, query)
}

func buildMultiQueryPrompt(query string, count int) string {
	return fmt.Sprintf(multiQueryPrompt, count, query)
}
