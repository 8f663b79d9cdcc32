package handlers

import (
	"net/http"

	"coverly/services/maintenance"
	"coverly/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaintenanceHandler triggers the SLA sweep on demand. The same sweeper runs
// on the asynq schedule; this endpoint exists for operators and tests.
type MaintenanceHandler struct {
	Sweeper *maintenance.Sweeper
}

func NewMaintenanceHandler(s *maintenance.Sweeper) *MaintenanceHandler {
	return &MaintenanceHandler{Sweeper: s}
}

// RunSLAMaintenanceHandler runs one sweep and reports its counts.
func (h *MaintenanceHandler) RunSLAMaintenanceHandler(c *gin.Context) {
	logger := getLogger(c)
	result, err := h.Sweeper.Run(c.Request.Context())
	if err != nil {
		logger.Error("manual maintenance run failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal_error", "maintenance run failed")
		return
	}
	c.JSON(http.StatusOK, result)
}
