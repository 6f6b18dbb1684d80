package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atlas-collective/portal-backend/internal/auth"
	"github.com/atlas-collective/portal-backend/internal/projects/domain"
	"github.com/atlas-collective/portal-backend/internal/projects/repository"
	"github.com/atlas-collective/portal-backend/internal/promotion"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.Create(c.Request.Context(), domain.CreateProjectRequest{
		OwnerID:    auth.UserDBID(c),
		Department: workflow.Department(req.Department),
		Type:       req.Type,
		Name:       req.Name,
		Company:    req.Company,
		Audience:   req.Audience,
		Notes:      req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), repository.ListFilter{
		UserID:     auth.UserDBID(c),
		Admin:      auth.IsAdmin(c),
		Department: workflow.Department(c.Query("department")),
		Query:      c.Query("q"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items, "count": len(items)})
}

func (h *Handler) get(c *gin.Context) {
	p, collaborators, err := h.svc.Get(c.Request.Context(), auth.UserDBID(c), auth.IsAdmin(c), c.Param("public_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p, "collaborators": collaborators})
}

func (h *Handler) history(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context(), auth.UserDBID(c), auth.IsAdmin(c), c.Param("public_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "entries": entries, "count": len(entries)})
}

func (h *Handler) refs(c *gin.Context) {
	refs, err := h.promoter.Refs(c.Request.Context(), auth.IsAdmin(c), auth.UserDBID(c), c.Param("public_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "refs": refs, "count": len(refs)})
}

func (h *Handler) changeStatus(c *gin.Context) {
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.ChangeStatus(c.Request.Context(), auth.IsAdmin(c), c.Param("public_id"), domain.StatusChangeRequest{
		ActorID:     auth.UserDBID(c),
		Status:      req.Status,
		ArtifactURL: req.ArtifactURL,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) approval(c *gin.Context) {
	var req approvalReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Action == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p, err := h.svc.Approval(c.Request.Context(), auth.IsAdmin(c), c.Param("public_id"), domain.ApprovalRequest{
		ActorID: auth.UserDBID(c),
		Action:  req.Action,
		Message: req.Message,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) promote(c *gin.Context) {
	var req promoteReq
	if err := c.ShouldBindJSON(&req); err != nil || req.TargetDepartment == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	res, err := h.promoter.Promote(c.Request.Context(), auth.IsAdmin(c), c.Param("public_id"), promotion.PromoteRequest{
		ActorID:          auth.UserDBID(c),
		TargetDepartment: workflow.Department(req.TargetDepartment),
		Type:             req.Type,
		Name:             req.Name,
		Company:          req.Company,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": res.Project, "ref": res.Ref, "warnings": res.Warnings})
}

func (h *Handler) addCollaborator(c *gin.Context) {
	var req collaboratorReq
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	err := h.svc.AddCollaborator(c.Request.Context(), auth.UserDBID(c), auth.IsAdmin(c),
		c.Param("public_id"), req.UserID, req.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h *Handler) removeCollaborator(c *gin.Context) {
	err := h.svc.RemoveCollaborator(c.Request.Context(), auth.UserDBID(c), auth.IsAdmin(c),
		c.Param("public_id"), c.Param("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
