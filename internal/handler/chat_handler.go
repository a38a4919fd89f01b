package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mental-care-go/internal/middleware"
	"mental-care-go/internal/service"
	"mental-care-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// AIUnavailableMessage 是对话失败时返回给用户的提示。
const AIUnavailableMessage = "Dịch vụ AI tạm thời không khả dụng, vui lòng thử lại."

var (
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // 允许所有来源
		},
	}
)

// ChatHandler 负责处理聊天的 REST 与 WebSocket 请求。
type ChatHandler struct {
	chatService service.ChatService
	userService service.UserService
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, userService service.UserService) *ChatHandler {
	return &ChatHandler{chatService: chatService, userService: userService}
}

// SendMessageRequest 是发送消息的请求体。
type SendMessageRequest struct {
	Message string `json:"message"`
}

// History 返回当前会话的对话记录。
func (h *ChatHandler) History(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取会话信息"})
		return
	}
	history, err := h.chatService.History(c.Request.Context(), session)
	if err != nil {
		log.Errorf("History: failed for '%s', error: %v", session.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "Không thể tải lịch sử trò chuyện"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": history})
}

// SendMessage 执行一轮对话并返回助手回复。
func (h *ChatHandler) SendMessage(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取会话信息"})
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Dữ liệu gửi lên không hợp lệ"})
		return
	}

	result, err := h.chatService.Turn(c.Request.Context(), session, req.Message)
	if err != nil {
		status, msg := chatErrorResponse(err)
		c.JSON(status, gin.H{"code": status, "message": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": result})
}

// Handle 处理一个传入的 WebSocket 连接，token 通过路径参数传入。
func (h *ChatHandler) Handle(c *gin.Context) {
	session, err := h.userService.Authenticate(c.Request.Context(), c.Param("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", session.Username)
	ctx := c.Request.Context()
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		result, err := h.chatService.Turn(ctx, session, string(message))
		if err != nil {
			_, msg := chatErrorResponse(err)
			writeJSON(conn, map[string]interface{}{"type": "error", "error": msg})
		} else {
			writeJSON(conn, map[string]interface{}{
				"type":      "reply",
				"content":   result.Reply.Content,
				"toolCalls": result.ToolCalls,
				"timestamp": result.Reply.Timestamp.UnixMilli(),
			})
		}
		writeJSON(conn, map[string]interface{}{
			"type":      "completion",
			"status":    "finished",
			"timestamp": time.Now().UnixMilli(),
			"date":      time.Now().Format("2006-01-02T15:04:05"),
		})
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Errorf("序列化 WebSocket 消息失败: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warnf("写入 WebSocket 消息失败: %v", err)
	}
}

func chatErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		return http.StatusBadRequest, "Tin nhắn không được để trống"
	case errors.Is(err, service.ErrAIUnavailable):
		return http.StatusBadGateway, AIUnavailableMessage
	default:
		log.Errorf("处理对话失败: %v", err)
		return http.StatusInternalServerError, "Lỗi hệ thống, vui lòng thử lại sau"
	}
}
