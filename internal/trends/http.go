package trends

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlas-collective/portal-backend/internal/auth"
	"github.com/atlas-collective/portal-backend/internal/promotion"
)

type Handler struct {
	repo *Repo
	svc  *Service
}

func Register(rg *gin.RouterGroup, repo *Repo, svc *Service) {
	h := &Handler{repo: repo, svc: svc}

	rg.GET("/hot", h.listHot)
	rg.POST("/:id/brief", h.createBrief)
}

func (h *Handler) listHot(c *gin.Context) {
	if !auth.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin only"})
		return
	}

	clusters, err := h.repo.ListAboveVelocityPercentile(c.Request.Context(), hotVelocityPercentile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "trends": clusters, "count": len(clusters)})
}

func (h *Handler) createBrief(c *gin.Context) {
	res, err := h.svc.CreateBrief(c.Request.Context(), auth.UserDBID(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "trend cluster not found"})
		case errors.Is(err, promotion.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "trend already has a brief"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": res.Project, "ref": res.Ref})
}
