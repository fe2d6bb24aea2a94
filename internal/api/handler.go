package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderbridge/internal/converter"
	"orderbridge/internal/model"
	"orderbridge/internal/store"
)

// Handler API 处理器
type Handler struct {
	store     *store.Store
	blobs     *store.BlobStore
	converter *converter.Converter
	downloads *downloadStore
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.Store, blobs *store.BlobStore, conv *converter.Converter) *Handler {
	return &Handler{
		store:     st,
		blobs:     blobs,
		converter: conv,
		downloads: newDownloadStore(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 转换
	router.POST("/convert", h.Convert)
	// 仅提取表头（前端配置映射规则用）
	router.POST("/headers", h.ExtractHeaders)

	// 模板管理
	router.GET("/templates", h.ListTemplates)
	router.POST("/templates", h.SaveTemplate)
	router.GET("/templates/:id", h.GetTemplate)
	router.PUT("/templates/:id", h.UpdateTemplate)
	router.DELETE("/templates/:id", h.DeleteTemplate)

	// 转换结果下载
	router.GET("/download/:token", h.Download)
}

// respondConvertError 统一的失败响应
//
// ConvertError 带错误码返回，前端据此分支提示（比如传统格式
// 超限时建议"另存为 xlsx"）。
func respondConvertError(c *gin.Context, err error) {
	if ce, ok := model.AsConvertError(err); ok {
		c.JSON(statusForCode(ce.Code), gin.H{
			"success": false,
			"error":   ce.Message,
			"code":    ce.Code,
			"causes":  ce.Causes,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func statusForCode(code model.ErrorCode) int {
	switch code {
	case model.CodeUnsupportedFormat, model.CodeTemplateInvalid, model.CodeLegacyFileTooLarge:
		return http.StatusBadRequest
	case model.CodeHeaderNotFound, model.CodeWorkbookUnreadable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
