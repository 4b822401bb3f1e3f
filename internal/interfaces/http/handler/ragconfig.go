// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"inbox-rag-api/internal/application/ragconfig"
	"inbox-rag-api/internal/domain/repository"
	"inbox-rag-api/internal/interfaces/http/dto"
	"inbox-rag-api/pkg/logger"
)

type RAGConfigHandler struct {
	configSvc *ragconfig.Service
	kbRepo    repository.KnowledgeBaseRepository
}

func NewRAGConfigHandler(configSvc *ragconfig.Service, kbRepo repository.KnowledgeBaseRepository) *RAGConfigHandler {
	return &RAGConfigHandler{
		configSvc: configSvc,
		kbRepo:    kbRepo,
	}
}

// Get 获取知识库检索配置
// @Summary 获取知识库检索配置（存储值 + 三层合并后的生效值）
// @Tags RAGConfig
// @Produce json
// @Param id path string true "知识库 ID"
// @Success 200 {object} dto.Response[dto.RAGConfigResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/knowledge-bases/{id}/rag-config [get]
func (h *RAGConfigHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	kbID := trimmedID(c, "id")

	kb, err := h.kbRepo.GetByID(ctx, kbID)
	if err != nil {
		logger.Error(ctx, "failed to get knowledge base", err)
		dto.InternalError(c, "failed to get rag config")
		return
	}
	if kb == nil {
		dto.NotFound(c, "knowledge base not found")
		return
	}

	record, err := h.configSvc.Get(ctx, kbID)
	if err != nil {
		logger.Error(ctx, "failed to get rag config", err)
		dto.InternalError(c, "failed to get rag config")
		return
	}

	effective, err := h.configSvc.Resolve(ctx, kbID, nil)
	if err != nil {
		logger.Error(ctx, "failed to resolve rag config", err)
		dto.InternalError(c, "failed to get rag config")
		return
	}

	dto.Success(c, dto.NewRAGConfigResponse(kbID, record, effective))
}

// Update 更新知识库检索配置
// @Summary 校验并保存知识库检索配置覆盖
// @Tags RAGConfig
// @Accept json
// @Produce json
// @Param id path string true "知识库 ID"
// @Param body body dto.UpdateRAGConfigRequest true "配置更新请求"
// @Success 200 {object} dto.Response[dto.RAGConfigResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/v1/knowledge-bases/{id}/rag-config [put]
func (h *RAGConfigHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	kbID := trimmedID(c, "id")

	var req dto.UpdateRAGConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	kb, err := h.kbRepo.GetByID(ctx, kbID)
	if err != nil {
		logger.Error(ctx, "failed to get knowledge base", err)
		dto.InternalError(c, "failed to update rag config")
		return
	}
	if kb == nil {
		dto.NotFound(c, "knowledge base not found")
		return
	}

	// 字段值非法属于语义错误，区别于 JSON 解析失败的 400
	record, err := h.configSvc.Update(ctx, kbID, req.Settings)
	if err != nil {
		dto.UnprocessableEntity(c, err.Error(), nil)
		return
	}

	effective, err := h.configSvc.Resolve(ctx, kbID, nil)
	if err != nil {
		logger.Error(ctx, "failed to resolve rag config", err)
		dto.InternalError(c, "failed to update rag config")
		return
	}

	dto.Success(c, dto.NewRAGConfigResponse(kbID, record, effective))
}

// Delete 删除知识库检索配置，回落到系统默认
// @Summary 删除知识库检索配置
// @Tags RAGConfig
// @Produce json
// @Param id path string true "知识库 ID"
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/knowledge-bases/{id}/rag-config [delete]
func (h *RAGConfigHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	kbID := trimmedID(c, "id")

	kb, err := h.kbRepo.GetByID(ctx, kbID)
	if err != nil {
		logger.Error(ctx, "failed to get knowledge base", err)
		dto.InternalError(c, "failed to delete rag config")
		return
	}
	if kb == nil {
		dto.NotFound(c, "knowledge base not found")
		return
	}

	if err := h.configSvc.Delete(ctx, kbID); err != nil {
		logger.Error(ctx, "failed to delete rag config", err)
		dto.InternalError(c, "failed to delete rag config")
		return
	}

	dto.NoContent(c)
}
