// Package token 提供了用于生成和验证 JSON Web Tokens (JWT) 的功能。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager 负责管理 JWT 的生成和验证。
type JWTManager struct {
	secretKey     []byte        // 用于签名和验证 token 的密钥
	tokenDur      time.Duration // 普通用户 token 有效期
	guestTokenDur time.Duration // 访客 token 有效期
}

// CustomClaims 携带会话上下文字段。
type CustomClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	UserInfo  string `json:"userInfo"`
	Role      string `json:"role"`
	IsGuest   bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
func NewJWTManager(secret string, expireHours, guestExpireHours int) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secret),
		tokenDur:      time.Duration(expireHours) * time.Hour,
		guestTokenDur: time.Duration(guestExpireHours) * time.Hour,
	}
}

// Duration 返回对应身份的 token 有效期。
func (m *JWTManager) Duration(guest bool) time.Duration {
	if guest {
		return m.guestTokenDur
	}
	return m.tokenDur
}

// GenerateToken 根据 claims 签发 token，IssuedAt/ExpiresAt 由此处填写。
func (m *JWTManager) GenerateToken(claims CustomClaims, now time.Time) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        claims.SessionID,
		Subject:   claims.Username,
		ExpiresAt: jwt.NewNumericDate(now.Add(m.Duration(claims.IsGuest))),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// VerifyToken 验证给定的 token 字符串。
func (m *JWTManager) VerifyToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
