package model

import (
	"strings"
	"time"
)

// 访客身份
const (
	GuestUsername = "Khách"
	GuestUserInfo = "username:Khách, Chưa cung cấp thông tin"

	guestOwnerPrefix = "guest:"
)

// IsReservedUsername 判断用户名是否与访客身份冲突，注册时不可使用。
func IsReservedUsername(username string) bool {
	return strings.EqualFold(username, GuestUsername) ||
		strings.HasPrefix(strings.ToLower(username), guestOwnerPrefix)
}

// Session 是一次登录产生的显式会话上下文，在登录成功时创建，登出或过期时销毁。
type Session struct {
	SessionID string    `json:"sessionId"`
	Username  string    `json:"username"`
	UserInfo  string    `json:"userInfo"`
	Role      string    `json:"role"`
	IsGuest   bool      `json:"isGuest"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Owner 返回对话记忆与评分记录的归属键。访客共用同一个显示名，按会话隔离。
func (s *Session) Owner() string {
	if s.IsGuest {
		return guestOwnerPrefix + s.SessionID
	}
	return s.Username
}

// MemoryKey 返回该会话对应的对话记忆键。
func (s *Session) MemoryKey() string {
	return SessionKey(s.Owner())
}

// IsAdmin 判断会话用户是否为管理员。
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}
