// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"time"

	"mental-care-go/internal/middleware"
	"mental-care-go/internal/model"
	"mental-care-go/internal/service"
	"mental-care-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// UserHandler 负责处理所有与用户会话相关的 API 请求。
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建一个新的 UserHandler 实例。
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest 定义了用户注册 API 的请求体结构。
type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Email           string `json:"email"`
	Name            string `json:"name"`
	Age             int    `json:"age"`
	Gender          string `json:"gender"`
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// sessionResponse 是登录类接口返回的数据。
type sessionResponse struct {
	Token   string         `json:"token"`
	Session *model.Session `json:"session"`
}

// Register 处理用户注册请求。
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Register: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Dữ liệu gửi lên không hợp lệ"})
		return
	}

	res, err := h.userService.Register(c.Request.Context(), service.RegisterInput{
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Email:           req.Email,
		Name:            req.Name,
		Age:             req.Age,
		Gender:          req.Gender,
	})
	if err != nil {
		log.Warnf("Register: User registration failed for '%s', error: %v", req.Username, err)
		status, msg := userErrorResponse(err)
		c.JSON(status, gin.H{"code": status, "message": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Đăng ký thành công",
		"data":    sessionResponse{Token: res.Token, Session: res.Session},
	})
}

// Login 处理用户登录请求。
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: Invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Dữ liệu gửi lên không hợp lệ"})
		return
	}

	res, err := h.userService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		log.Warnf("Login: User authentication failed for '%s', error: %v", req.Username, err)
		status, msg := userErrorResponse(err)
		c.JSON(status, gin.H{"code": status, "message": msg})
		return
	}

	log.Infof("User '%s' logged in successfully", req.Username)
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Đăng nhập thành công",
		"data":    sessionResponse{Token: res.Token, Session: res.Session},
	})
}

// GuestLogin 以访客身份登录。
func (h *UserHandler) GuestLogin(c *gin.Context) {
	res, err := h.userService.GuestLogin(c.Request.Context())
	if err != nil {
		log.Errorf("GuestLogin: failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "Không thể đăng nhập với tư cách khách"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Đăng nhập thành công",
		"data":    sessionResponse{Token: res.Token, Session: res.Session},
	})
}

// ProfileResponse 定义了获取用户个人信息 API 的响应体结构。
type ProfileResponse struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	Role      string    `json:"role"`
	IsGuest   bool      `json:"isGuest"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// GetProfile 获取当前登录用户的个人信息。访客直接返回会话中的信息。
func (h *UserHandler) GetProfile(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取会话信息"})
		return
	}
	if session.IsGuest {
		c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": ProfileResponse{
			Username: session.Username, Role: session.Role, IsGuest: true,
		}})
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), session.Username)
	if err != nil {
		log.Errorf("GetProfile: failed for '%s', error: %v", session.Username, err)
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "Không tìm thấy người dùng"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": ProfileResponse{
		Username:  user.Username,
		Email:     user.Email,
		Name:      user.Name,
		Age:       user.Age,
		Gender:    user.Gender,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}})
}

// Logout 处理用户登出请求。
func (h *UserHandler) Logout(c *gin.Context) {
	tokenString := c.GetString(middleware.ContextTokenKey)
	if err := h.userService.Logout(c.Request.Context(), tokenString); err != nil {
		log.Errorf("Logout: failed, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "Đăng xuất thất bại"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "Đã đăng xuất"})
}

// userErrorResponse 把用户服务的哨兵错误映射为状态码和提示。
func userErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUserExists):
		return http.StatusConflict, "Tên đăng nhập đã tồn tại"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Tên đăng nhập hoặc mật khẩu không đúng"
	case errors.Is(err, service.ErrPasswordMismatch):
		return http.StatusBadRequest, "Mật khẩu xác nhận không khớp"
	case errors.Is(err, service.ErrEmptyCredentials):
		return http.StatusBadRequest, "Tên đăng nhập và mật khẩu không được để trống"
	case errors.Is(err, service.ErrReservedUsername):
		return http.StatusBadRequest, "Tên đăng nhập này đã được hệ thống sử dụng"
	default:
		return http.StatusInternalServerError, "Lỗi hệ thống, vui lòng thử lại sau"
	}
}
