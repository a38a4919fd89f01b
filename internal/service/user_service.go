// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mental-care-go/internal/model"
	"mental-care-go/internal/repository"
	"mental-care-go/pkg/hash"
	"mental-care-go/pkg/log"
	"mental-care-go/pkg/token"

	"github.com/google/uuid"
)

// 用户相关的哨兵错误
var (
	ErrUserExists         = errors.New("用户名已存在")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrPasswordMismatch   = errors.New("两次输入的密码不一致")
	ErrEmptyCredentials   = errors.New("用户名和密码不能为空")
	ErrReservedUsername   = errors.New("用户名为系统保留")
	ErrInvalidSession     = errors.New("会话无效或已过期")
)

// RegisterInput 是注册所需的全部字段。
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	Email           string
	Name            string
	Age             int
	Gender          string
}

// AuthResult 是登录类操作的结果：会话及其 token。
type AuthResult struct {
	Token   string
	Session *model.Session
}

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	GuestLogin(ctx context.Context) (*AuthResult, error)
	Logout(ctx context.Context, tokenString string) error
	Authenticate(ctx context.Context, tokenString string) (*model.Session, error)
	GetProfile(ctx context.Context, username string) (*model.User, error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	blacklist  repository.TokenBlacklist
	jwtManager *token.JWTManager
	now        func() time.Time
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, blacklist repository.TokenBlacklist, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		blacklist:  blacklist,
		jwtManager: jwtManager,
		now:        time.Now,
	}
}

// Register 处理用户注册的业务逻辑，成功后直接登录。
func (s *userService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return nil, ErrEmptyCredentials
	}
	if model.IsReservedUsername(in.Username) {
		return nil, ErrReservedUsername
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	// 1. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(ctx, in.Username)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// 2. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	// 3. 存储新用户
	newUser := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Name:     in.Name,
		Age:      in.Age,
		Gender:   in.Gender,
		Password: hashedPassword,
		Role:     model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	log.Infof("[UserService] 新用户注册成功, username: %s", newUser.Username)
	return s.issue(newUser.Username, newUser.Summary(), newUser.Role, false)
}

// Login 处理用户登录的业务逻辑。用户不存在与密码错误返回同一个错误。
func (s *userService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user.Username, user.Summary(), user.Role, false)
}

// GuestLogin 创建访客会话，不写入任何用户记录。
func (s *userService) GuestLogin(_ context.Context) (*AuthResult, error) {
	return s.issue(model.GuestUsername, model.GuestUserInfo, model.RoleUser, true)
}

// Logout 将 token 加入黑名单直到其过期。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return ErrInvalidSession
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.Add(ctx, tokenString, ttl); err != nil {
		return fmt.Errorf("写入 token 黑名单失败: %w", err)
	}
	log.Infof("[UserService] 用户登出, username: %s, session: %s", claims.Username, claims.SessionID)
	return nil
}

// Authenticate 校验 token 并还原会话。
func (s *userService) Authenticate(ctx context.Context, tokenString string) (*model.Session, error) {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return nil, ErrInvalidSession
	}
	revoked, err := s.blacklist.Contains(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("查询 token 黑名单失败: %w", err)
	}
	if revoked {
		return nil, ErrInvalidSession
	}
	return &model.Session{
		SessionID: claims.SessionID,
		Username:  claims.Username,
		UserInfo:  claims.UserInfo,
		Role:      claims.Role,
		IsGuest:   claims.IsGuest,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// GetProfile 获取用户资料。
func (s *userService) GetProfile(ctx context.Context, username string) (*model.User, error) {
	return s.userRepo.FindByUsername(ctx, username)
}

func (s *userService) issue(username, userInfo, role string, guest bool) (*AuthResult, error) {
	now := s.now()
	session := &model.Session{
		SessionID: uuid.NewString(),
		Username:  username,
		UserInfo:  userInfo,
		Role:      role,
		IsGuest:   guest,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.jwtManager.Duration(guest)),
	}
	tokenString, err := s.jwtManager.GenerateToken(token.CustomClaims{
		SessionID: session.SessionID,
		Username:  username,
		UserInfo:  userInfo,
		Role:      role,
		IsGuest:   guest,
	}, now)
	if err != nil {
		return nil, fmt.Errorf("生成 token 失败: %w", err)
	}
	return &AuthResult{Token: tokenString, Session: session}, nil
}
