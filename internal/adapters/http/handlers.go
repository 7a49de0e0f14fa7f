package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/Board/internal/app"
)

// Admin surface. Read-only; handlers never mutate the registries.

func handleHealth(gw *app.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gw.Health())
	}
}

func handleRooms(gw *app.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gw.RoomViews())
	}
}
