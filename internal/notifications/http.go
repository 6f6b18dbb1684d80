package notifications

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlas-collective/portal-backend/internal/auth"
)

type Handler struct {
	repo *Repo
}

func Register(rg *gin.RouterGroup, repo *Repo) {
	h := &Handler{repo: repo}

	rg.GET("", h.list)
	rg.PATCH("/:id/read", h.markRead)
}

func (h *Handler) list(c *gin.Context) {
	userID := auth.UserDBID(c)
	unread := c.Query("unread") == "true"

	items, err := h.repo.ListByUser(c.Request.Context(), userID, unread)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "notifications": items, "count": len(items)})
}

func (h *Handler) markRead(c *gin.Context) {
	userID := auth.UserDBID(c)

	ok, err := h.repo.MarkRead(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
