package handler

import (
	"net/http"

	"mental-care-go/internal/middleware"
	"mental-care-go/internal/service"
	"mental-care-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ScoreHandler 处理心情评分的读写。
type ScoreHandler struct {
	scoreService service.ScoreService
}

// NewScoreHandler 创建 ScoreHandler。
func NewScoreHandler(scoreService service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreService: scoreService}
}

// RecordScoreRequest 是手动记录评分的请求体。
type RecordScoreRequest struct {
	Score      string `json:"score"`
	Content    string `json:"content"`
	TotalGuess string `json:"totalGuess"`
}

// List 返回当前用户的全部评分。
func (h *ScoreHandler) List(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取会话信息"})
		return
	}
	entries, err := h.scoreService.List(c.Request.Context(), session.Owner())
	if err != nil {
		log.Errorf("ListScores: failed for '%s', error: %v", session.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "Không thể tải dữ liệu đánh giá"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": entries})
}

// Record 为当前用户追加一条评分。
func (h *ScoreHandler) Record(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取会话信息"})
		return
	}
	var req RecordScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Dữ liệu gửi lên không hợp lệ"})
		return
	}
	entry, err := h.scoreService.Record(c.Request.Context(), session.Owner(), req.Score, req.Content, req.TotalGuess)
	if err != nil {
		log.Errorf("RecordScore: failed for '%s', error: %v", session.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "Không thể lưu đánh giá"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": entry})
}
