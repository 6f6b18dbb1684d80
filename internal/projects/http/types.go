package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlas-collective/portal-backend/internal/projects/domain"
	"github.com/atlas-collective/portal-backend/internal/promotion"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

type createReq struct {
	Department string `json:"department"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	Company    string `json:"company"`
	Audience   string `json:"audience"`
	Notes      string `json:"notes"`
}

type statusReq struct {
	Status      string `json:"status"`
	ArtifactURL string `json:"artifact_url"`
}

type approvalReq struct {
	Action  string `json:"action"`
	Message string `json:"message"`
}

type promoteReq struct {
	TargetDepartment string `json:"target_department"`
	Type             string `json:"type"`
	Name             string `json:"name"`
	Company          string `json:"company"`
}

type collaboratorReq struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// writeError maps domain failures onto the HTTP error taxonomy. Typed
// business errors carry their allowed-set through to the client.
func writeError(c *gin.Context, err error) {
	var terr *workflow.TransitionError
	if errors.As(err, &terr) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": terr.Reason, "allowed": terr.Allowed})
		return
	}

	var perr *promotion.PathError
	if errors.As(err, &perr) {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": perr.Reason, "allowed": perr.Allowed})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "insufficient role"})
	case errors.Is(err, domain.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, domain.ErrVersionConflict), errors.Is(err, domain.ErrNotInReview),
		errors.Is(err, promotion.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, promotion.ErrTerminalDepartment):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
