package response

import (
	"time"

	"chatcrm/internal/pkg/xerrors"
)

// NoData 无数据的信封
type NoData struct{}

// Envelope /health 等非代理路由的响应体
type Envelope[T any] struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      *T     `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func okEnvelope[T any](data *T, traceID string) *Envelope[T] {
	return &Envelope[T]{
		Code:      xerrors.CodeSuccess.ToInt(),
		Message:   xerrors.CodeSuccess.Message(),
		Data:      data,
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}

// failEnvelope message 为本地化后的提示，detail 为内部错误描述
func failEnvelope(appErr *xerrors.AppError, message, traceID string) *Envelope[NoData] {
	return &Envelope[NoData]{
		Code:      appErr.Code.ToInt(),
		Message:   message,
		Error:     appErr.Message,
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}

// ErrorBody /api/auth/* 的错误体 {"error": "..."}，与认证服务保持一致
type ErrorBody struct {
	Error string `json:"error"`
}
