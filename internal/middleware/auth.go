// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"mental-care-go/internal/model"
	"mental-care-go/internal/service"
	"mental-care-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// 上下文键
const (
	ContextSessionKey = "session"
	ContextTokenKey   = "token"
)

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 它会从请求头中提取 token，校验签名与黑名单，并将会话存入 Gin 的上下文中。
func AuthMiddleware(userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "Yêu cầu thiếu thông tin xác thực"})
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "Định dạng xác thực không hợp lệ"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)

		session, err := userService.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, service.ErrInvalidSession) {
				log.Errorf("[AuthMiddleware] 校验会话失败: %v", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "Phiên đăng nhập không hợp lệ hoặc đã hết hạn"})
			return
		}

		c.Set(ContextSessionKey, session)
		c.Set(ContextTokenKey, tokenString)
		c.Next()
	}
}

// SessionFrom 取出 AuthMiddleware 注入的会话。
func SessionFrom(c *gin.Context) (*model.Session, bool) {
	v, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, false
	}
	s, ok := v.(*model.Session)
	return s, ok
}
