package sweep

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlas-collective/portal-backend/internal/auth"
)

// Register exposes an on-demand reconciliation trigger, admin only.
func Register(rg *gin.RouterGroup, rec *Reconciler) {
	rg.POST("/run", func(c *gin.Context) {
		if !auth.IsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin only"})
			return
		}

		restored, err := rec.Run(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "restored": restored})
	})
}
