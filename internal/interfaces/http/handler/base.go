// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"inbox-rag-api/internal/interfaces/http/dto"
	apperrors "inbox-rag-api/pkg/errors"
)

type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string {
	return e.msg
}

func errNotFound(msg string) error {
	return &notFoundError{msg: msg}
}

func isNotFound(err error) bool {
	var nf *notFoundError
	return errors.As(err, &nf)
}

// respondError 按错误类型写响应：AppError 带业务码，其余按 500 处理
func respondError(c *gin.Context, err error, fallback string) {
	if appErr := apperrors.AsAppError(err); appErr != nil {
		dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, &dto.ErrorDetail{
			ErrorCode: string(appErr.Code),
		})
		return
	}
	if isNotFound(err) {
		dto.NotFound(c, err.Error())
		return
	}
	dto.InternalError(c, fallback)
}

// trimmedID 去除路径参数两端空白
func trimmedID(c *gin.Context, param string) string {
	return strings.TrimSpace(c.Param(param))
}
