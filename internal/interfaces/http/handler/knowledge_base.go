// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"inbox-rag-api/internal/domain/entity"
	"inbox-rag-api/internal/domain/repository"
	rediscache "inbox-rag-api/internal/infrastructure/persistence/redis"
	"inbox-rag-api/internal/interfaces/http/dto"
	"inbox-rag-api/pkg/logger"
)

type KnowledgeBaseHandler struct {
	kbRepo  repository.KnowledgeBaseRepository
	docRepo repository.DocumentRepository
	cache   *rediscache.Cache
}

func NewKnowledgeBaseHandler(kbRepo repository.KnowledgeBaseRepository, docRepo repository.DocumentRepository, cache *rediscache.Cache) *KnowledgeBaseHandler {
	return &KnowledgeBaseHandler{
		kbRepo:  kbRepo,
		docRepo: docRepo,
		cache:   cache,
	}
}

// Create 创建知识库
// @Summary 创建知识库
// @Tags KnowledgeBases
// @Accept json
// @Produce json
// @Param body body dto.CreateKnowledgeBaseRequest true "创建请求"
// @Success 201 {object} dto.Response[dto.KnowledgeBaseResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/knowledge-bases [post]
func (h *KnowledgeBaseHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateKnowledgeBaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	kb := entity.NewKnowledgeBase(req.Name, req.Description)
	if err := h.kbRepo.Create(ctx, kb); err != nil {
		logger.Error(ctx, "failed to create knowledge base", err)
		dto.InternalError(c, "failed to create knowledge base")
		return
	}

	dto.Created(c, dto.ToKnowledgeBaseResponse(kb))
}

// Get 获取知识库详情
// @Summary 获取知识库详情
// @Tags KnowledgeBases
// @Produce json
// @Param id path string true "知识库 ID"
// @Success 200 {object} dto.Response[dto.KnowledgeBaseResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/knowledge-bases/{id} [get]
func (h *KnowledgeBaseHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	kbID := trimmedID(c, "id")

	kb, err := h.kbRepo.GetByID(ctx, kbID)
	if err != nil {
		logger.Error(ctx, "failed to get knowledge base", err)
		dto.InternalError(c, "failed to get knowledge base")
		return
	}
	if kb == nil {
		dto.NotFound(c, "knowledge base not found")
		return
	}

	dto.Success(c, dto.ToKnowledgeBaseResponse(kb))
}

// List 知识库列表
// @Summary 知识库列表
// @Tags KnowledgeBases
// @Produce json
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.KnowledgeBaseListResponse]
// @Router /api/v1/knowledge-bases [get]
func (h *KnowledgeBaseHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	pageReq := dto.BindPage(c)

	result, err := h.kbRepo.List(ctx, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list knowledge bases", err)
		dto.InternalError(c, "failed to list knowledge bases")
		return
	}

	kbs := make([]*dto.KnowledgeBaseResponse, 0, len(result.Items))
	for i := range result.Items {
		kbs = append(kbs, dto.ToKnowledgeBaseResponse(result.Items[i]))
	}
	dto.SuccessWithPage(c, &dto.KnowledgeBaseListResponse{KnowledgeBases: kbs},
		dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}

// Update 更新知识库
// @Summary 更新知识库
// @Tags KnowledgeBases
// @Accept json
// @Produce json
// @Param id path string true "知识库 ID"
// @Param body body dto.UpdateKnowledgeBaseRequest true "更新请求"
// @Success 200 {object} dto.Response[dto.KnowledgeBaseResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/knowledge-bases/{id} [put]
func (h *KnowledgeBaseHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	kbID := trimmedID(c, "id")

	var req dto.UpdateKnowledgeBaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	kb, err := h.kbRepo.GetByID(ctx, kbID)
	if err != nil {
		logger.Error(ctx, "failed to get knowledge base", err)
		dto.InternalError(c, "failed to update knowledge base")
		return
	}
	if kb == nil {
		dto.NotFound(c, "knowledge base not found")
		return
	}

	if req.Name != nil {
		kb.Name = *req.Name
	}
	if req.Description != nil {
		kb.Description = *req.Description
	}
	if req.Status != nil {
		switch entity.KnowledgeBaseStatus(*req.Status) {
		case entity.KnowledgeBaseStatusActive, entity.KnowledgeBaseStatusArchived:
			kb.Status = entity.KnowledgeBaseStatus(*req.Status)
		default:
			dto.BadRequest(c, "invalid status: "+*req.Status)
			return
		}
	}

	if err := h.kbRepo.Update(ctx, kb); err != nil {
		logger.Error(ctx, "failed to update knowledge base", err)
		dto.InternalError(c, "failed to update knowledge base")
		return
	}

	if h.cache != nil {
		if err := h.cache.InvalidateKnowledgeBase(ctx, kbID); err != nil {
			logger.Warn(ctx, "failed to invalidate knowledge base cache", "error", err.Error())
		}
	}

	dto.Success(c, dto.ToKnowledgeBaseResponse(kb))
}

// ListDocuments 知识库文档列表
// @Summary 知识库已索引文档列表
// @Tags KnowledgeBases
// @Produce json
// @Param id path string true "知识库 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.DocumentListResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/knowledge-bases/{id}/documents [get]
func (h *KnowledgeBaseHandler) ListDocuments(c *gin.Context) {
	ctx := c.Request.Context()
	kbID := trimmedID(c, "id")

	kb, err := h.kbRepo.GetByID(ctx, kbID)
	if err != nil {
		logger.Error(ctx, "failed to get knowledge base", err)
		dto.InternalError(c, "failed to list documents")
		return
	}
	if kb == nil {
		dto.NotFound(c, "knowledge base not found")
		return
	}

	pageReq := dto.BindPage(c)
	result, err := h.docRepo.ListByKnowledgeBase(ctx, kbID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list documents", err)
		dto.InternalError(c, "failed to list documents")
		return
	}

	docs := make([]*dto.DocumentResponse, 0, len(result.Items))
	for i := range result.Items {
		docs = append(docs, dto.ToDocumentResponse(result.Items[i]))
	}
	dto.SuccessWithPage(c, &dto.DocumentListResponse{Documents: docs},
		dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}
