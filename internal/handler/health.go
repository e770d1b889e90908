package handler

import (
	"context"
	"net/http"
	"time"

	"caribepos/internal/infra"
	"caribepos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity, reports the DGII circuit breaker state and
// DLQ depths; never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client, dgii *infra.DGIIClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		journalDLQ, _ := worker.DLQLength(ctx, rdb, worker.QueueJournal)
		emailDLQ, _ := worker.DLQLength(ctx, rdb, worker.QueueEmail)

		c.JSON(status, gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
			"dgii":  dgii.CBState().String(),
			"dlq": gin.H{
				"journal": journalDLQ,
				"email":   emailDLQ,
			},
		})
	}
}
