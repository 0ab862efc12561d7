package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mbellot/parley/internal/adapters"
	"github.com/mbellot/parley/internal/config"
)

// SetupRouter wires HTTP routes (REST + WS).
//   - registration and login are public
//   - everything else requires a bearer token
//   - the websocket upgrade lives at /ws and checks the token itself, since
//     browser clients cannot set headers on the upgrade request
func SetupRouter(ctx context.Context, cfg *config.Config, h *Handlers, ws *adapters.WSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/users", h.Register)
	api.POST("/login", h.Login)

	authed := api.Group("")
	authed.Use(BearerMiddleware(h.Issuer))
	authed.GET("/users", h.ListUsers)
	authed.GET("/users/:id", h.GetUser)
	authed.POST("/rooms", h.CreateRoom)
	authed.GET("/rooms", h.ListRooms)
	authed.GET("/rooms/:id", h.GetRoom)
	authed.POST("/rooms/:id/participants", h.AddParticipant)
	authed.DELETE("/rooms/:id/participants/:userId", h.RemoveParticipant)
	authed.GET("/rooms/:id/messages", h.ListMessages)

	r.GET("/ws", func(c *gin.Context) {
		ws.HandleWS(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
