package http

import (
	"github.com/gin-gonic/gin"

	"github.com/atlas-collective/portal-backend/internal/projects/service"
	"github.com/atlas-collective/portal-backend/internal/promotion"
)

type Handler struct {
	svc      *service.ProjectService
	promoter *promotion.Coordinator
}

// Register attaches project routes to the given router group.
func Register(rg *gin.RouterGroup, svc *service.ProjectService, promoter *promotion.Coordinator) {
	h := &Handler{svc: svc, promoter: promoter}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:public_id", h.get)
	rg.GET("/:public_id/history", h.history)
	rg.GET("/:public_id/refs", h.refs)
	rg.PATCH("/:public_id/status", h.changeStatus)
	rg.POST("/:public_id/approval", h.approval)
	rg.POST("/:public_id/promote", h.promote)
	rg.POST("/:public_id/collaborators", h.addCollaborator)
	rg.DELETE("/:public_id/collaborators/:user_id", h.removeCollaborator)
}
