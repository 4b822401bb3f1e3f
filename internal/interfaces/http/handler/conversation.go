// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"inbox-rag-api/internal/domain/entity"
	"inbox-rag-api/internal/domain/repository"
	"inbox-rag-api/internal/interfaces/http/dto"
	"inbox-rag-api/pkg/logger"
)

type ConversationHandler struct {
	txMgr       repository.Transactor
	kbRepo      repository.KnowledgeBaseRepository
	sessionRepo repository.ConversationSessionRepository
	turnRepo    repository.ConversationTurnRepository
}

func NewConversationHandler(
	txMgr repository.Transactor,
	kbRepo repository.KnowledgeBaseRepository,
	sessionRepo repository.ConversationSessionRepository,
	turnRepo repository.ConversationTurnRepository,
) *ConversationHandler {
	return &ConversationHandler{
		txMgr:       txMgr,
		kbRepo:      kbRepo,
		sessionRepo: sessionRepo,
		turnRepo:    turnRepo,
	}
}

// CreateSession 创建会话
// @Summary 创建会话
// @Tags Conversations
// @Accept json
// @Produce json
// @Param body body dto.CreateSessionRequest true "创建会话请求"
// @Success 201 {object} dto.Response[dto.SessionResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/conversations [post]
func (h *ConversationHandler) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	kb, err := h.kbRepo.GetByID(ctx, req.KnowledgeBaseID)
	if err != nil {
		logger.Error(ctx, "failed to get knowledge base", err)
		dto.InternalError(c, "failed to create session")
		return
	}
	if kb == nil {
		dto.NotFound(c, "knowledge base not found")
		return
	}

	session := entity.NewConversationSession(req.KnowledgeBaseID, req.UserID, req.Title)
	if err := h.sessionRepo.Create(ctx, session); err != nil {
		logger.Error(ctx, "failed to create session", err)
		dto.InternalError(c, "failed to create session")
		return
	}

	dto.Created(c, dto.ToSessionResponse(session))
}

// GetSession 获取会话详情
// @Summary 获取会话详情
// @Tags Conversations
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/conversations/{sid} [get]
func (h *ConversationHandler) GetSession(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := trimmedID(c, "sid")

	session, err := h.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		logger.Error(ctx, "failed to get session", err)
		dto.InternalError(c, "failed to get session")
		return
	}
	if session == nil {
		dto.NotFound(c, "session not found")
		return
	}

	dto.Success(c, dto.ToSessionResponse(session))
}

// ListSessions 知识库会话列表
// @Summary 知识库会话列表
// @Tags Conversations
// @Produce json
// @Param id path string true "知识库 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.SessionListResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/knowledge-bases/{id}/conversations [get]
func (h *ConversationHandler) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	kbID := trimmedID(c, "id")

	kb, err := h.kbRepo.GetByID(ctx, kbID)
	if err != nil {
		logger.Error(ctx, "failed to get knowledge base", err)
		dto.InternalError(c, "failed to list sessions")
		return
	}
	if kb == nil {
		dto.NotFound(c, "knowledge base not found")
		return
	}

	pageReq := dto.BindPage(c)
	result, err := h.sessionRepo.ListByKnowledgeBase(ctx, kbID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list sessions", err)
		dto.InternalError(c, "failed to list sessions")
		return
	}

	sessions := make([]*dto.SessionResponse, 0, len(result.Items))
	for i := range result.Items {
		sessions = append(sessions, dto.ToSessionResponse(result.Items[i]))
	}
	dto.SuccessWithPage(c, &dto.SessionListResponse{Sessions: sessions},
		dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}

// AppendTurn 追加会话轮次
// @Summary 追加会话轮次
// @Tags Conversations
// @Accept json
// @Produce json
// @Param sid path string true "会话 ID"
// @Param body body dto.AppendTurnRequest true "轮次内容"
// @Success 201 {object} dto.Response[dto.TurnResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/conversations/{sid}/turns [post]
func (h *ConversationHandler) AppendTurn(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := trimmedID(c, "sid")

	var req dto.AppendTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	role := entity.Role(req.Role)
	switch role {
	case entity.RoleSystem, entity.RoleUser, entity.RoleAssistant:
	default:
		dto.BadRequest(c, "invalid role: "+req.Role)
		return
	}

	// 行级锁定会话后写入轮次，保证并发追加时 updated_at 单调推进
	var turn *entity.ConversationTurn
	err := h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		session, txErr := h.sessionRepo.GetByIDForUpdate(txCtx, sessionID)
		if txErr != nil {
			return txErr
		}
		if session == nil {
			return errNotFound("session not found")
		}

		turn = entity.NewConversationTurn(sessionID, role, req.Content, req.Metadata)
		if txErr := h.turnRepo.Create(txCtx, turn); txErr != nil {
			return txErr
		}
		return h.sessionRepo.Update(txCtx, session)
	})
	if err != nil {
		if !isNotFound(err) {
			logger.Error(ctx, "failed to append turn", err, "session_id", sessionID)
		}
		respondError(c, err, "failed to append turn")
		return
	}

	dto.Created(c, dto.ToTurnResponse(turn))
}

// ListTurns 会话轮次列表
// @Summary 会话轮次列表（按时间正序）
// @Tags Conversations
// @Produce json
// @Param sid path string true "会话 ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.TurnListResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/conversations/{sid}/turns [get]
func (h *ConversationHandler) ListTurns(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := trimmedID(c, "sid")

	session, err := h.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		logger.Error(ctx, "failed to get session", err)
		dto.InternalError(c, "failed to list turns")
		return
	}
	if session == nil {
		dto.NotFound(c, "session not found")
		return
	}

	pageReq := dto.BindPage(c)
	result, err := h.turnRepo.ListBySession(ctx, sessionID, repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		logger.Error(ctx, "failed to list turns", err)
		dto.InternalError(c, "failed to list turns")
		return
	}

	turns := make([]*dto.TurnResponse, 0, len(result.Items))
	for i := range result.Items {
		turns = append(turns, dto.ToTurnResponse(result.Items[i]))
	}
	dto.SuccessWithPage(c, &dto.TurnListResponse{Turns: turns},
		dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total)))
}
