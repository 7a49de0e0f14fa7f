package board

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Board/internal/app"
	"github.com/dkeye/Board/internal/config"
	"github.com/dkeye/Board/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type WSController struct {
	Gateway *app.Gateway
	Cfg     *config.Config

	limiter *EventRateLimiter
}

func NewWSController(gw *app.Gateway, cfg *config.Config) *WSController {
	return &WSController{
		Gateway: gw,
		Cfg:     cfg,
		limiter: NewEventRateLimiter(cfg.EventRate, cfg.EventWindow),
	}
}

type WsBoardConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsBoardConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsBoardConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (ctl *WSController) upgrader() websocket.Upgrader {
	allowed := ctl.Cfg.AllowedOrigins
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, a := range allowed {
				if a == origin {
					return true
				}
			}
			return false
		},
	}
}

// HandleBoard upgrades the request and starts the connection's pumps.
// Each upgrade mints a fresh connection id: two tabs of the same browser
// are two connections, even though they share a client token.
func (ctl *WSController) HandleBoard(ctx context.Context, c *gin.Context) {
	cid := core.ConnID(uuid.NewString())
	log.Info().Str("module", "board").Str("cid", string(cid)).Str("client_token", c.GetString("client_token")).Msg("new WS connection")

	up := ctl.upgrader()
	ws, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "board").Msg("ws upgrade")
		return
	}

	conn := &WsBoardConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	ctl.Gateway.Connect(cid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, cid, conn)
}
