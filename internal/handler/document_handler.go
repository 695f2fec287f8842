// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pdf-qa-go/internal/apperr"
	"pdf-qa-go/internal/service"
	"pdf-qa-go/pkg/log"
)

// statusCodeFor 把业务错误映射为 HTTP 状态码。
func statusCodeFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDocumentNotReady), errors.Is(err, apperr.ErrIndexNotFound):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrEmbeddingUnavailable), errors.Is(err, apperr.ErrGenerationUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError 以统一格式返回错误响应。
func respondError(c *gin.Context, err error) {
	c.JSON(statusCodeFor(err), gin.H{"error": err.Error()})
}

// DocumentHandler 负责处理文档生命周期相关的 API 请求。
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Upload 处理 PDF 上传请求。文件在 multipart 表单的 "file" 字段中。
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未能获取上传的文件"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("Upload: failed to open uploaded file", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer file.Close()

	dto, err := h.documentService.Upload(c.Request.Context(), fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		log.Error("Upload: failed to upload document", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto)
}

// List 返回所有文档的元数据列表。
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documentService.List(c.Request.Context())
	if err != nil {
		log.Error("List: failed to list documents", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// Get 返回单个文档的元数据，前端用它轮询处理状态。
func (h *DocumentHandler) Get(c *gin.Context) {
	id := c.Param("id")

	dto, err := h.documentService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto)
}

// Delete 删除文档及其全部关联资源。
func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.documentService.Delete(c.Request.Context(), id); err != nil {
		log.Error("Delete: failed to delete document", err)
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
