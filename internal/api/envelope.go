// Package api HTTP 接口层
// 所有响应使用统一信封 {success, data, message, timestamp}，错误按类型映射 HTTP 状态码。
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/util/timeutil"
)

// MessageSuccess 成功响应的消息
const MessageSuccess = "Success"

// Envelope 统一响应信封
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	// Timestamp RFC3339，+08:00
	Timestamp string `json:"timestamp"`
}

// ok 写成功响应
func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{
		Success:   true,
		Data:      data,
		Message:   MessageSuccess,
		Timestamp: timeutil.NowRFC3339(),
	})
}

// fail 按错误类型写失败响应
func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success:   false,
		Message:   msg,
		Timestamp: timeutil.NowRFC3339(),
	})
}

// failErr 写错误响应并记录日志
// 客户端错误记 Info，上游或内部错误记 Warn
func failErr(c *gin.Context, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	_ = c.Error(err)

	fields := []zap.Field{
		zap.String("path", c.FullPath()),
		zap.String("kind", kind.String()),
		zap.String("request_id", c.GetString(RequestIDKey)),
		zap.Error(err),
	}
	if status < http.StatusInternalServerError {
		logger.Info("请求失败", fields...)
	} else {
		logger.Warn("请求失败", fields...)
	}
	fail(c, status, err.Error())
}

// respond 根据 err 写成功或失败响应
func respond[T any](c *gin.Context, logger *zap.Logger, data T, err error) {
	if err != nil {
		failErr(c, logger, err)
		return
	}
	ok(c, data)
}
