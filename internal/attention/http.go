package attention

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlas-collective/portal-backend/internal/auth"
)

type Handler struct {
	agg *Aggregator
}

func Register(rg *gin.RouterGroup, agg *Aggregator) {
	h := &Handler{agg: agg}
	rg.GET("", h.list)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.agg.GetItems(c.Request.Context(), Caller{
		UserID: auth.UserDBID(c),
		Admin:  auth.IsAdmin(c),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": items, "count": len(items)})
}
