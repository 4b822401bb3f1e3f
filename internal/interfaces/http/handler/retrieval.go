// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inbox-rag-api/internal/application/pipeline"
	"inbox-rag-api/internal/application/ragconfig"
	appretrieval "inbox-rag-api/internal/application/retrieval"
	"inbox-rag-api/internal/domain/entity"
	"inbox-rag-api/internal/domain/repository"
	"inbox-rag-api/internal/infrastructure/persistence/milvus"
	"inbox-rag-api/internal/interfaces/http/dto"
	"inbox-rag-api/pkg/logger"
)

// historyTurnLimit 通过 session_id 注入历史时拉取的最大轮次数
const historyTurnLimit = 20

type RetrievalHandler struct {
	generator pipeline.TextGenerator
	embedder  pipeline.Embedder
	vector    *milvus.Repository

	configSvc *ragconfig.Service
	indexer   *appretrieval.Indexer

	kbRepo      repository.KnowledgeBaseRepository
	docRepo     repository.DocumentRepository
	sessionRepo repository.ConversationSessionRepository
	turnRepo    repository.ConversationTurnRepository
}

func NewRetrievalHandler(
	generator pipeline.TextGenerator,
	embedder pipeline.Embedder,
	vector *milvus.Repository,
	configSvc *ragconfig.Service,
	indexer *appretrieval.Indexer,
	kbRepo repository.KnowledgeBaseRepository,
	docRepo repository.DocumentRepository,
	sessionRepo repository.ConversationSessionRepository,
	turnRepo repository.ConversationTurnRepository,
) *RetrievalHandler {
	return &RetrievalHandler{
		generator:   generator,
		embedder:    embedder,
		vector:      vector,
		configSvc:   configSvc,
		indexer:     indexer,
		kbRepo:      kbRepo,
		docRepo:     docRepo,
		sessionRepo: sessionRepo,
		turnRepo:    turnRepo,
	}
}

// Search 检索融合流水线
// @Summary 执行多路召回与重排，返回上下文候选集
// @Tags Retrieval
// @Accept json
// @Produce json
// @Param body body dto.SearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/retrieval/search [post]
func (h *RetrievalHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	kb, err := h.kbRepo.GetByID(ctx, req.KnowledgeBaseID)
	if err != nil {
		logger.Error(ctx, "failed to get knowledge base", err)
		dto.InternalError(c, "failed to search")
		return
	}
	if kb == nil {
		dto.NotFound(c, "knowledge base not found")
		return
	}

	cfg, err := h.configSvc.Resolve(ctx, req.KnowledgeBaseID, req.ConfigOverride)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	history := dto.PipelineHistory(req.History)
	if len(history) == 0 && req.SessionID != "" {
		history = h.sessionHistory(ctx, req.KnowledgeBaseID, req.SessionID)
	}

	svc := pipeline.NewService(
		h.generator,
		h.embedder,
		milvus.NewPipelineVectorSearch(h.vector, req.KnowledgeBaseID),
		milvus.NewPipelineKeywordSearch(h.vector, req.KnowledgeBaseID),
	)

	candidates, tr := svc.RetrieveAndRank(ctx, req.Query, history, cfg)

	resp := &dto.SearchResponse{
		Candidates:    dto.NewCandidateResponses(candidates),
		PromptContext: appretrieval.BuildPromptContext(candidates, cfg.MaxResults, 0),
	}
	if req.Debug {
		resp.Trace = tr
	}
	dto.Success(c, resp)
}

// sessionHistory 拉取会话最近轮次作为增强上下文；失败只降级，不阻塞检索
func (h *RetrievalHandler) sessionHistory(ctx context.Context, knowledgeBaseID, sessionID string) []pipeline.HistoryTurn {
	if h.sessionRepo == nil || h.turnRepo == nil {
		return nil
	}

	session, err := h.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		logger.Warn(ctx, "failed to load session for history injection", "error", err.Error())
		return nil
	}
	if session == nil || session.KnowledgeBaseID != knowledgeBaseID {
		return nil
	}

	turns, err := h.turnRepo.ListRecentBySession(ctx, sessionID, historyTurnLimit)
	if err != nil {
		logger.Warn(ctx, "failed to load conversation history", "error", err.Error())
		return nil
	}

	out := make([]pipeline.HistoryTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, pipeline.HistoryTurn{Role: string(t.Role), Content: t.Content})
	}
	return out
}

// IndexDocument 文档入库
// @Summary 切分、向量化并写入文档分片
// @Tags Retrieval
// @Accept json
// @Produce json
// @Param body body dto.IndexDocumentRequest true "文档索引请求"
// @Success 200 {object} dto.Response[dto.IndexResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/retrieval/index/documents [post]
func (h *RetrievalHandler) IndexDocument(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.IndexDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	kb, err := h.kbRepo.GetByID(ctx, req.KnowledgeBaseID)
	if err != nil {
		logger.Error(ctx, "failed to get knowledge base", err)
		dto.InternalError(c, "failed to index document")
		return
	}
	if kb == nil {
		dto.NotFound(c, "knowledge base not found")
		return
	}

	// 重建已有文档时沿用调用方的 document_id，新文档生成新 ID
	documentID := strings.TrimSpace(req.DocumentID)
	if documentID != "" {
		doc, getErr := h.docRepo.GetByID(ctx, documentID)
		if getErr != nil {
			logger.Error(ctx, "failed to get document", getErr)
			dto.InternalError(c, "failed to index document")
			return
		}
		if doc == nil {
			dto.NotFound(c, "document not found")
			return
		}
	} else {
		documentID = uuid.NewString()
		doc := entity.NewDocument(req.KnowledgeBaseID, req.FileName)
		doc.ID = documentID
		if err := h.docRepo.Create(ctx, doc); err != nil {
			logger.Error(ctx, "failed to create document record", err)
			dto.InternalError(c, "failed to index document")
			return
		}
	}

	n, err := h.indexer.IndexDocument(ctx, req.KnowledgeBaseID, appretrieval.DocumentInput{
		DocumentID: documentID,
		FileName:   req.FileName,
		Content:    req.Content,
	})
	if err != nil {
		if stErr := h.docRepo.UpdateStatus(ctx, documentID, entity.DocumentStatusFailed, 0); stErr != nil {
			logger.Warn(ctx, "failed to mark document as failed", "error", stErr.Error())
		}
		logger.Error(ctx, "failed to index document", err,
			"knowledge_base_id", req.KnowledgeBaseID, "document_id", documentID)
		dto.InternalError(c, "failed to index document")
		return
	}

	if err := h.docRepo.UpdateStatus(ctx, documentID, entity.DocumentStatusReady, n); err != nil {
		logger.Warn(ctx, "failed to mark document as ready", "error", err.Error())
	}

	dto.Success(c, &dto.IndexResponse{DocumentID: documentID, IndexedCount: n})
}

// IndexEmails 邮件入库
// @Summary 向量化并写入邮件语料
// @Tags Retrieval
// @Accept json
// @Produce json
// @Param body body dto.IndexEmailsRequest true "邮件索引请求"
// @Success 200 {object} dto.Response[dto.IndexResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/retrieval/index/emails [post]
func (h *RetrievalHandler) IndexEmails(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.IndexEmailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	kb, err := h.kbRepo.GetByID(ctx, req.KnowledgeBaseID)
	if err != nil {
		logger.Error(ctx, "failed to get knowledge base", err)
		dto.InternalError(c, "failed to index emails")
		return
	}
	if kb == nil {
		dto.NotFound(c, "knowledge base not found")
		return
	}

	inputs := make([]appretrieval.EmailInput, 0, len(req.Emails))
	for _, e := range req.Emails {
		inputs = append(inputs, appretrieval.EmailInput{
			MessageID: e.MessageID,
			Subject:   e.Subject,
			Sender:    e.Sender,
			SentAt:    e.SentAt,
			Body:      e.Body,
		})
	}

	start := time.Now()
	n, err := h.indexer.IndexEmails(ctx, req.KnowledgeBaseID, inputs)
	if err != nil {
		logger.Error(ctx, "failed to index emails", err,
			"knowledge_base_id", req.KnowledgeBaseID, "count", len(inputs))
		dto.InternalError(c, "failed to index emails")
		return
	}
	logger.Info(ctx, "emails indexed",
		"knowledge_base_id", req.KnowledgeBaseID,
		"indexed", n,
		"duration_ms", time.Since(start).Milliseconds())

	dto.Success(c, &dto.IndexResponse{IndexedCount: n})
}
