package handler

import (
	"net/http"
	"time"

	"mental-care-go/internal/middleware"
	"mental-care-go/internal/service"
	"mental-care-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 提供评分看板数据。
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler。
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Overview 返回全部点与最近 7 天的点。
func (h *DashboardHandler) Overview(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取会话信息"})
		return
	}
	ctx := c.Request.Context()
	all, err := h.dashboard.Points(ctx, session.Owner())
	if err != nil {
		log.Errorf("Dashboard: failed for '%s', error: %v", session.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "Không thể tải dữ liệu"})
		return
	}
	week, err := h.dashboard.LastWeek(ctx, session.Owner())
	if err != nil {
		log.Errorf("Dashboard: failed for '%s', error: %v", session.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "Không thể tải dữ liệu"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": gin.H{"points": all, "lastWeek": week}})
}

// Day 返回 date=YYYY-MM-DD 当天的点。
func (h *DashboardHandler) Day(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取会话信息"})
		return
	}
	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), h.dashboard.Location())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Ngày không hợp lệ, định dạng YYYY-MM-DD"})
		return
	}
	points, err := h.dashboard.ByDate(c.Request.Context(), session.Owner(), date)
	if err != nil {
		log.Errorf("DashboardDay: failed for '%s', error: %v", session.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "Không thể tải dữ liệu"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": points})
}
