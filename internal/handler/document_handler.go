package handler

import (
	"errors"
	"net/http"

	"mental-care-go/internal/middleware"
	"mental-care-go/internal/pipeline"
	"mental-care-go/internal/service"
	"mental-care-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 处理管理员上传知识库文档。
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler 创建 DocumentHandler。
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Upload 接收 multipart 表单中的 file 字段。
func (h *DocumentHandler) Upload(c *gin.Context) {
	session, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取会话信息"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Thiếu tệp tải lên"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Không thể đọc tệp"})
		return
	}
	defer file.Close()

	task, err := h.documentService.Upload(c.Request.Context(), fileHeader.Filename, file, fileHeader.Size,
		fileHeader.Header.Get("Content-Type"), session.Username)
	if err != nil {
		if errors.Is(err, pipeline.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Định dạng tệp không được hỗ trợ"})
			return
		}
		log.Errorf("UploadDocument: failed, file: %s, error: %v", fileHeader.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "Tải tệp thất bại"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"code": http.StatusAccepted, "message": "Đã tiếp nhận tài liệu", "data": task})
}
