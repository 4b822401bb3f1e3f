// Package eino 注册 Eino 全局 callbacks，采集 LLM 与 Embedding 的指标和追踪
package eino

import (
	"sync"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
)

var initOnce sync.Once

// Init 注册 Eino 全局 callbacks（进程级一次）
func Init(provider string) {
	initOnce.Do(func() {
		handler := cbtemplate.NewHandlerHelper().
			ChatModel(newChatModelCallbackHandler(provider)).
			Embedding(newEmbeddingCallbackHandler(provider)).
			Handler()
		einocallbacks.AppendGlobalHandlers(handler)
	})
}
