package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// Download 下载转换结果
// GET /api/download/:token
func (h *Handler) Download(c *gin.Context) {
	entry, ok := h.downloads.get(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "下载链接不存在或已过期"})
		return
	}

	data, err := h.blobs.GetBlob(entry.blobName, "exports")
	if err != nil {
		respondConvertError(c, err)
		return
	}

	// 文件名含韩文/中文，按 RFC 5987 编码
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(entry.blobName)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
