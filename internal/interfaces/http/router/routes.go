// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers) {
	// 检索流水线
	retrieval := v1.Group("/retrieval")
	{
		retrieval.POST("/search", h.Retrieval.Search)
		retrieval.POST("/index/documents", h.Retrieval.IndexDocument)
		retrieval.POST("/index/emails", h.Retrieval.IndexEmails)
	}

	// 知识库管理
	knowledgeBases := v1.Group("/knowledge-bases")
	{
		knowledgeBases.POST("", h.KnowledgeBase.Create)
		knowledgeBases.GET("", h.KnowledgeBase.List)
		knowledgeBases.GET("/:id", h.KnowledgeBase.Get)
		knowledgeBases.PUT("/:id", h.KnowledgeBase.Update)
		knowledgeBases.GET("/:id/documents", h.KnowledgeBase.ListDocuments)

		// 知识库级检索配置
		knowledgeBases.GET("/:id/rag-config", h.RAGConfig.Get)
		knowledgeBases.PUT("/:id/rag-config", h.RAGConfig.Update)
		knowledgeBases.DELETE("/:id/rag-config", h.RAGConfig.Delete)

		// 知识库下的会话
		knowledgeBases.GET("/:id/conversations", h.Conversation.ListSessions)
	}

	// 会话管理
	conversations := v1.Group("/conversations")
	{
		conversations.POST("", h.Conversation.CreateSession)
		conversations.GET("/:sid", h.Conversation.GetSession)
		conversations.GET("/:sid/turns", h.Conversation.ListTurns)
		conversations.POST("/:sid/turns", h.Conversation.AppendTurn)
	}
}
