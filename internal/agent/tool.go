// Package agent 实现带工具调用的对话 Agent。
package agent

import (
	"context"

	"mental-care-go/internal/model"
)

// Tool 是 Agent 可调用的函数。Parameters 返回 JSON Schema，Call 接收模型给出的 JSON 参数。
type Tool interface {
	Name() string
	Description() string
	Parameters() any
	Call(ctx context.Context, argsJSON string) (string, error)
}

type sessionKey struct{}

// WithSession 把当前会话放入 ctx，供需要用户身份的工具读取。
func WithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext 取出 WithSession 放入的会话。
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*model.Session)
	return s, ok && s != nil
}
