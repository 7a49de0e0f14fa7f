package board

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *WSController) writePump(ctx context.Context, c *WsBoardConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "board").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "board").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "board").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "board").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "board").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *WSController) readPump(ctx context.Context, cancel context.CancelFunc, cid core.ConnID, c *WsBoardConn) {
	defer func() {
		log.Info().Str("module", "board").Str("cid", string(cid)).Msg("readPump closing")
		cancel()
		ctl.Gateway.Disconnect(cid)
		ctl.limiter.Forget(cid)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	readWait := ctl.Cfg.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "board").Str("cid", string(cid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "board").Str("cid", string(cid)).Msg("readPump read error")
				}
				return
			}
			ctl.handleEvent(cid, data)
		}
	}
}

// handleEvent dispatches one inbound event. Events in unknown shapes or
// disallowed states are dropped with a diagnostic; the connection lives on.
func (ctl *WSController) handleEvent(cid core.ConnID, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "board").Str("cid", string(cid)).Msg("bad json")
		return
	}

	switch env.Type {
	case "user_join":
		ctl.handleUserJoin(cid, data)
	case "join_board":
		ctl.handleJoinBoard(cid, data)
	case "leave_board":
		ctl.handleLeaveBoard(cid, data)
	case "realtime_event":
		ctl.handleRealtimeEvent(cid, data)
	default:
		log.Warn().Str("module", "board").Str("type", env.Type).Msg("unknown event")
	}
}

func (ctl *WSController) handleUserJoin(cid core.ConnID, data []byte) {
	var p struct {
		UserID    string `json:"userId"`
		UserName  string `json:"userName"`
		UserColor string `json:"userColor"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "board").Msg("bad user_join payload")
		return
	}
	ctl.Gateway.Identify(cid, p.UserID, p.UserName, p.UserColor)
}

func (ctl *WSController) handleJoinBoard(cid core.ConnID, data []byte) {
	var p struct {
		BoardID string `json:"boardId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "board").Msg("bad join_board payload")
		return
	}
	ctl.Gateway.Join(cid, domain.RoomID(p.BoardID))
}

func (ctl *WSController) handleLeaveBoard(cid core.ConnID, data []byte) {
	var p struct {
		BoardID string `json:"boardId"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "board").Msg("bad leave_board payload")
		return
	}
	ctl.Gateway.Leave(cid, domain.RoomID(p.BoardID))
}

func (ctl *WSController) handleRealtimeEvent(cid core.ConnID, data []byte) {
	var event map[string]any
	if err := json.Unmarshal(data, &event); err != nil {
		log.Warn().Err(err).Str("module", "board").Msg("bad realtime_event payload")
		return
	}
	if !ctl.limiter.Allow(cid) {
		log.Warn().Str("module", "board").Str("cid", string(cid)).Msg("event rate limit exceeded, dropped")
		return
	}
	ctl.Gateway.Relay(cid, event)
}
