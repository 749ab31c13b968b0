package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ndlovu-dev/inkwell/internal/realtime"
	"github.com/ndlovu-dev/inkwell/pkg/response"
)

// Health returns a readiness payload covering the database and the realtime hub.
func Health(db *gorm.DB, hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		dbStatus := "ok"

		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				err = sqlDB.PingContext(requestContext(c))
			}
			if err != nil {
				status = "degraded"
				dbStatus = "unreachable"
			}
		}

		payload := gin.H{
			"status":   status,
			"database": dbStatus,
		}
		if hub != nil {
			payload["realtime"] = gin.H{
				"connections": hub.Connections(),
				"rooms":       len(hub.Snapshot()),
			}
		}

		code := http.StatusOK
		if status != "ok" {
			code = http.StatusServiceUnavailable
		}
		response.Success(c, code, payload)
	}
}
