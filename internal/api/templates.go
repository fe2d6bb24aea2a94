package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderbridge/internal/model"
	"orderbridge/internal/store"
)

// ListTemplates 列出全部模板
// GET /api/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.store.ListTemplates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	if templates == nil {
		templates = []*model.Template{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "templates": templates})
}

// SaveTemplate 保存模板
// POST /api/templates
func (h *Handler) SaveTemplate(c *gin.Context) {
	var tpl model.Template
	if err := c.ShouldBindJSON(&tpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "无效的模板 JSON"})
		return
	}

	id, err := h.store.SaveTemplate(&tpl)
	if err != nil {
		respondConvertError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// GetTemplate 按 ID 读取模板
// GET /api/templates/:id
func (h *Handler) GetTemplate(c *gin.Context) {
	tpl, err := h.store.GetTemplate(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "模板不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "template": tpl})
}

// UpdateTemplate 更新模板
// PUT /api/templates/:id
func (h *Handler) UpdateTemplate(c *gin.Context) {
	var tpl model.Template
	if err := c.ShouldBindJSON(&tpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "无效的模板 JSON"})
		return
	}
	tpl.ID = c.Param("id")

	if err := h.store.UpdateTemplate(&tpl); err != nil {
		if errors.Is(err, store.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "模板不存在"})
			return
		}
		respondConvertError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteTemplate 删除模板
// DELETE /api/templates/:id
func (h *Handler) DeleteTemplate(c *gin.Context) {
	if err := h.store.DeleteTemplate(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "模板不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
