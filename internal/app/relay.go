package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
)

// Notifier shapes outbound envelopes and fans them out to room members.
// Delivery is fire-and-forget per recipient: a failed or slow recipient
// loses its own frame and nothing else.
type Notifier struct {
	Registry *Registry
	Rooms    *Rooms
}

func (n *Notifier) NotifyJoined(rid domain.RoomID, joined core.ConnID, user *domain.User) {
	env := struct {
		Type string      `json:"type"`
		User domain.User `json:"user"`
	}{
		Type: "user_joined",
		User: *user,
	}
	n.fanout(rid, joined, env)
}

func (n *Notifier) NotifyLeft(rid domain.RoomID, uid domain.UserID) {
	env := struct {
		Type   string        `json:"type"`
		UserID domain.UserID `json:"userId"`
	}{
		Type:   "user_left",
		UserID: uid,
	}
	n.fanout(rid, "", env)
}

// Relay forwards the sender's event to every other member of the room.
// The sender's id is stamped server-side; a client-supplied userId field
// is overwritten. Payload fields are otherwise passed through untouched.
func (n *Notifier) Relay(rid domain.RoomID, sender core.ConnID, uid domain.UserID, event map[string]any) {
	event["userId"] = uid
	n.fanout(rid, sender, event)
}

func (n *Notifier) fanout(rid domain.RoomID, except core.ConnID, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("marshal envelope")
		return
	}
	for _, cid := range n.Rooms.Members(rid) {
		if cid == except {
			continue
		}
		conn, ok := n.Registry.Conn(cid)
		if !ok {
			// Recipient disconnected mid-fanout; delivery becomes a no-op.
			continue
		}
		if err := conn.TrySend(core.Frame(data)); err != nil {
			log.Warn().Err(err).Str("module", "app.relay").Str("cid", string(cid)).Msg("dropped frame for recipient")
		}
	}
}
