package retrieval

import (
	"fmt"
	"strings"

	"inbox-rag-api/internal/application/pipeline"
)

// BuildPromptContext 将召回结果格式化为可直接注入 Prompt 的块。
// 约束：尽量短，避免把 score 等调试信息塞进 Prompt。
func BuildPromptContext(candidates []pipeline.Candidate, maxCandidates int, maxRunesPerCandidate int) string {
	if len(candidates) == 0 {
		return ""
	}
	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	if maxRunesPerCandidate <= 0 {
		maxRunesPerCandidate = 400
	}

	n := len(candidates)
	if n > maxCandidates {
		n = maxCandidates
	}

	lines := make([]string, 0, n+2)
	lines = append(lines, "【召回上下文（可能为空）】")
	for i := 0; i < n; i++ {
		c := candidates[i]

		ref := ""
		switch c.Source {
		case pipeline.SourceEmail:
			subject := strings.TrimSpace(c.Title)
			sender := strings.TrimSpace(c.Metadata["sender"])
			if subject == "" {
				subject = strings.TrimSpace(c.Metadata["message_id"])
			}
			if sender != "" {
				ref = fmt.Sprintf("Email:%s (%s)", subject, sender)
			} else {
				ref = fmt.Sprintf("Email:%s", subject)
			}
		case pipeline.SourceKnowledgeBase:
			title := strings.TrimSpace(c.Title)
			if title == "" {
				title = strings.TrimSpace(c.Metadata["file_name"])
			}
			ref = fmt.Sprintf("Doc:%s", title)
		default:
			ref = "Context"
		}

		txt := compactOneLine(c.Content)
		txt = truncateRunes(txt, maxRunesPerCandidate)
		if strings.TrimSpace(txt) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%d] (%s) %s", i+1, ref, txt))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func compactOneLine(s string) string {
	out := strings.ReplaceAll(s, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\r", "\n")
	out = strings.ReplaceAll(out, "\n", " ")
	out = strings.TrimSpace(out)
	for strings.Contains(out, "  ") {
		out = strings.ReplaceAll(out, "  ", " ")
	}
	return out
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max])) + "…"
}
