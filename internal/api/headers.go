package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ExtractHeaders 仅提取上传文件的表头字段
// POST /api/headers (multipart: file)
func (h *Handler) ExtractHeaders(c *gin.Context) {
	fileName, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	fields, err := h.converter.ExtractHeaders(c.Request.Context(), fileName, data)
	if err != nil {
		respondConvertError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"fields":  fields,
	})
}
