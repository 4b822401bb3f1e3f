package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	inputs []string
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, texts...)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 1}
	}
	return out, nil
}

type fakeVectorIndex struct {
	ensured        int
	deletedDocs    []string
	insertedChunks []*ChunkRecord
	insertedEmails []*EmailRecord
	insertKB       string
	insertErr      error
}

func (f *fakeVectorIndex) EnsureCollections(ctx context.Context) error {
	f.ensured++
	return nil
}

func (f *fakeVectorIndex) InsertChunks(ctx context.Context, knowledgeBaseID string, chunks []*ChunkRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.insertKB = knowledgeBaseID
	f.insertedChunks = append(f.insertedChunks, chunks...)
	return nil
}

func (f *fakeVectorIndex) InsertEmails(ctx context.Context, knowledgeBaseID string, emails []*EmailRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.insertKB = knowledgeBaseID
	f.insertedEmails = append(f.insertedEmails, emails...)
	return nil
}

func (f *fakeVectorIndex) DeleteChunksByDocument(ctx context.Context, knowledgeBaseID, documentID string) error {
	f.deletedDocs = append(f.deletedDocs, documentID)
	return nil
}

func TestIndexDocumentSplitsAndInserts(t *testing.T) {
	embedder := &fakeEmbedder{}
	vector := &fakeVectorIndex{}
	idx := NewIndexer(embedder, vector, 2)

	content := strings.Repeat("甲", 900) + strings.Repeat("乙", 900)
	n, err := idx.IndexDocument(context.Background(), "kb-1", DocumentInput{
		DocumentID: "doc-1",
		FileName:   "handbook.pdf",
		Content:    content,
	})
	require.NoError(t, err)
	assert.Greater(t, n, 1)
	assert.Equal(t, n, len(vector.insertedChunks))

	// 先删旧分片再写入
	assert.Equal(t, []string{"doc-1"}, vector.deletedDocs)
	assert.Equal(t, "kb-1", vector.insertKB)

	for i, c := range vector.insertedChunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, "doc-1", c.DocumentID)
		assert.Equal(t, "handbook.pdf", c.FileName)
		assert.NotEmpty(t, c.ID)
		assert.NotEmpty(t, c.Vector)
	}

	// 向量化输入带文件名前缀，写入的正文不带
	require.NotEmpty(t, embedder.inputs)
	assert.True(t, strings.HasPrefix(embedder.inputs[0], "文档：handbook.pdf\n"))
	assert.False(t, strings.HasPrefix(vector.insertedChunks[0].TextContent, "文档："))
}

func TestIndexDocumentEmptyContentOnlyDeletes(t *testing.T) {
	vector := &fakeVectorIndex{}
	idx := NewIndexer(&fakeEmbedder{}, vector, 0)

	n, err := idx.IndexDocument(context.Background(), "kb-1", DocumentInput{
		DocumentID: "doc-1",
		Content:    "   ",
	})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []string{"doc-1"}, vector.deletedDocs)
	assert.Empty(t, vector.insertedChunks)
}

func TestIndexDocumentValidation(t *testing.T) {
	idx := NewIndexer(&fakeEmbedder{}, &fakeVectorIndex{}, 0)

	_, err := idx.IndexDocument(context.Background(), "", DocumentInput{DocumentID: "doc-1"})
	require.Error(t, err)

	_, err = idx.IndexDocument(context.Background(), "kb-1", DocumentInput{})
	require.Error(t, err)
}

func TestIndexDocumentDisabled(t *testing.T) {
	idx := NewIndexer(nil, &fakeVectorIndex{}, 0)

	_, err := idx.IndexDocument(context.Background(), "kb-1", DocumentInput{DocumentID: "doc-1", Content: "x"})
	require.ErrorIs(t, err, ErrVectorDisabled)
}

func TestIndexDocumentEmbedFailure(t *testing.T) {
	embedErr := errors.New("embedding down")
	idx := NewIndexer(&fakeEmbedder{err: embedErr}, &fakeVectorIndex{}, 0)

	_, err := idx.IndexDocument(context.Background(), "kb-1", DocumentInput{DocumentID: "doc-1", Content: "正文"})
	require.ErrorIs(t, err, embedErr)
}

func TestIndexEmails(t *testing.T) {
	embedder := &fakeEmbedder{}
	vector := &fakeVectorIndex{}
	idx := NewIndexer(embedder, vector, 0)

	sentAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	n, err := idx.IndexEmails(context.Background(), "kb-1", []EmailInput{
		{MessageID: "m-1", Subject: "周报", Sender: "alice@example.com", SentAt: sentAt, Body: "本周进展"},
		{MessageID: "m-2", Body: "   "}, // 空邮件跳过
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, vector.insertedEmails, 1)

	e := vector.insertedEmails[0]
	assert.Equal(t, "m-1", e.MessageID)
	assert.Equal(t, "周报", e.Subject)
	assert.Equal(t, "alice@example.com", e.Sender)
	assert.Equal(t, sentAt.Unix(), e.SentAt)
	assert.Equal(t, "本周进展", e.TextContent)

	// 向量化输入包含主题
	require.Len(t, embedder.inputs, 1)
	assert.Equal(t, "主题：周报\n本周进展", embedder.inputs[0])
}

func TestIndexEmailsMissingMessageID(t *testing.T) {
	idx := NewIndexer(&fakeEmbedder{}, &fakeVectorIndex{}, 0)

	_, err := idx.IndexEmails(context.Background(), "kb-1", []EmailInput{
		{Subject: "无ID", Body: "正文"},
	})
	require.Error(t, err)
}

func TestIndexEmailsAllEmpty(t *testing.T) {
	vector := &fakeVectorIndex{}
	idx := NewIndexer(&fakeEmbedder{}, vector, 0)

	n, err := idx.IndexEmails(context.Background(), "kb-1", []EmailInput{{MessageID: "m-1"}})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, vector.insertedEmails)
}

func TestEmbedBatchRespectsBatchSize(t *testing.T) {
	embedder := &fakeEmbedder{}
	idx := NewIndexer(embedder, &fakeVectorIndex{}, 2)

	vectors, err := idx.embedBatch(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
}
