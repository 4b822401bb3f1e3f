package milvus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inbox-rag-api/internal/application/pipeline"
)

func keywordCand(id, title, content string) pipeline.Candidate {
	return pipeline.Candidate{
		ID:      id,
		Source:  pipeline.SourceKnowledgeBase,
		Title:   title,
		Content: content,
	}
}

func TestScoreBM25RanksByRelevance(t *testing.T) {
	candidates := []pipeline.Candidate{
		keywordCand("a", "", "kubernetes deployment guide with many unrelated words inside"),
		keywordCand("b", "", "cooking recipes pasta tomatoes"),
		keywordCand("c", "", "kubernetes cluster kubernetes"),
	}

	out := scoreBM25(candidates, pipeline.Tokenize("kubernetes"), 10)
	require.Len(t, out, 2)

	// c 词频更高且文档更短，应排第一
	assert.Equal(t, "c", out[0].ID)
	assert.Equal(t, "a", out[1].ID)

	// 分数归一到 (0,1]，最高分为 1
	assert.InDelta(t, 1.0, out[0].Score, 1e-9)
	assert.Greater(t, out[1].Score, 0.0)
	assert.Less(t, out[1].Score, 1.0)
}

func TestScoreBM25TitleCountsTowardsMatch(t *testing.T) {
	candidates := []pipeline.Candidate{
		keywordCand("a", "quarterly report", "numbers and tables"),
		keywordCand("b", "", "totally unrelated text"),
	}

	out := scoreBM25(candidates, pipeline.Tokenize("quarterly"), 10)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestScoreBM25LimitTruncates(t *testing.T) {
	candidates := []pipeline.Candidate{
		keywordCand("a", "", "golang services"),
		keywordCand("b", "", "golang golang golang"),
		keywordCand("c", "", "golang tooling"),
	}

	out := scoreBM25(candidates, pipeline.Tokenize("golang"), 2)
	assert.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
}

func TestScoreBM25NoMatches(t *testing.T) {
	candidates := []pipeline.Candidate{
		keywordCand("a", "", "nothing relevant here"),
	}

	out := scoreBM25(candidates, pipeline.Tokenize("milvus"), 10)
	assert.Nil(t, out)
}

func TestScoreBM25EmptyInput(t *testing.T) {
	assert.Nil(t, scoreBM25(nil, pipeline.Tokenize("query"), 10))
}
