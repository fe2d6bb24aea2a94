package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"orderbridge/internal/converter"
	"orderbridge/internal/model"
)

// downloadTTL 转换结果下载链接的有效期
const downloadTTL = 30 * time.Minute

// Convert 执行文件转换
// POST /api/convert (multipart: file, templateId, overrides?)
func (h *Handler) Convert(c *gin.Context) {
	fileName, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	templateID := c.PostForm("templateId")
	if templateID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "未指定模板"})
		return
	}
	tpl, err := h.store.GetTemplate(templateID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "模板不存在"})
		return
	}

	// 手工覆盖：可选 JSON 对象 {目标字段: 字面量}
	var overrides map[string]string
	if raw := c.PostForm("overrides"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "overrides 不是合法的 JSON 对象"})
			return
		}
	}

	logID, _ := h.store.CreateConvertLog(fileName, int64(len(data)), templateID)

	result, err := h.converter.Convert(c.Request.Context(), converter.Request{
		FileName:  fileName,
		Data:      data,
		Template:  tpl,
		Overrides: overrides,
	})
	if err != nil {
		if logID != 0 {
			_ = h.store.UpdateConvertLog(logID, "", 0, 0, "failed", err.Error())
		}
		respondConvertError(c, err)
		return
	}

	if err := h.blobs.PutBlob(result.FileName, result.Output, "exports"); err != nil {
		if logID != 0 {
			_ = h.store.UpdateConvertLog(logID, string(result.Format), result.ProcessedRowCount, len(result.Errors), "failed", err.Error())
		}
		respondConvertError(c, err)
		return
	}
	if logID != 0 {
		_ = h.store.UpdateConvertLog(logID, string(result.Format), result.ProcessedRowCount, len(result.Errors), "completed", "")
	}

	token := h.downloads.put(result.FileName, downloadTTL)
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"fileName":          result.FileName,
		"format":            result.Format,
		"sheetName":         result.SheetName,
		"encoding":          result.Encoding,
		"processedRowCount": result.ProcessedRowCount,
		"errors":            rowErrorsJSON(result.Errors),
		"downloadToken":     token,
	})
}

// readUpload 读取 multipart 上传文件
func (h *Handler) readUpload(c *gin.Context) (string, []byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "未找到上传文件"})
		return "", nil, false
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "无法读取上传文件"})
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "读取上传文件失败"})
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}

// rowErrorsJSON 保证空错误列表序列化为 [] 而不是 null
func rowErrorsJSON(errors []model.RowError) []model.RowError {
	if errors == nil {
		return []model.RowError{}
	}
	return errors
}
