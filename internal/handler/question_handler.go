package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdf-qa-go/internal/service"
	"pdf-qa-go/pkg/log"
)

// QuestionHandler 负责处理文档问答相关的 API 请求。
type QuestionHandler struct {
	qaService service.QAService
}

// NewQuestionHandler 创建一个新的 QuestionHandler 实例。
func NewQuestionHandler(qaService service.QAService) *QuestionHandler {
	return &QuestionHandler{qaService: qaService}
}

// AskRequest 定义了问答 API 的请求体结构。
type AskRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Question   string `json:"question" binding:"required"`
}

// Ask 处理针对某个文档的提问请求。
func (h *QuestionHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}

	answer, err := h.qaService.Ask(c.Request.Context(), req.DocumentID, req.Question)
	if err != nil {
		log.Error("Ask: failed to answer question", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// History 返回某个文档的问答历史。
func (h *QuestionHandler) History(c *gin.Context) {
	id := c.Param("id")

	history, err := h.qaService.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}
