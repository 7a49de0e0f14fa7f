package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Board/internal/adapters/board"
	"github.com/dkeye/Board/internal/app"
	"github.com/dkeye/Board/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, gw *app.Gateway) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("BoardSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/health", handleHealth(gw))
	r.GET("/rooms", handleRooms(gw))

	ctl := board.NewWSController(gw, cfg)
	api := r.Group("/api")
	api.GET("/ws/board", func(c *gin.Context) {
		ctl.HandleBoard(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
