package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
)

// Gateway is the single writer of both registries. Each membership
// mutation (join, leave, disconnect) runs as one critical section, so a
// connection is never observable in two rooms or half-switched.
type Gateway struct {
	mu       sync.Mutex
	Registry *Registry
	Rooms    *Rooms
	Notifier *Notifier
}

func NewGateway(reg *Registry, rooms *Rooms) *Gateway {
	return &Gateway{
		Registry: reg,
		Rooms:    rooms,
		Notifier: &Notifier{Registry: reg, Rooms: rooms},
	}
}

// Connect binds a fresh transport connection, unidentified and roomless.
func (g *Gateway) Connect(cid core.ConnID, conn core.SignalConnection) {
	g.Registry.Bind(cid, conn)
}

// Identify stores or overwrites the connection's claimed identity.
// Nothing is verified; the claim is taken at face value.
func (g *Gateway) Identify(cid core.ConnID, id, name, color string) {
	user, err := domain.NewUser(id, name, color)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.gateway").Str("cid", string(cid)).Msg("invalid identify dropped")
		return
	}
	if !g.Registry.UpsertIdentity(cid, user) {
		log.Warn().Str("module", "app.gateway").Str("cid", string(cid)).Msg("identify on terminated connection")
	}
}

// Join moves the connection into rid. A join before identify is dropped.
// If the connection is already in another room it is removed from it and
// the old peers notified, before the new peers see the join.
func (g *Gateway) Join(cid core.ConnID, rid domain.RoomID) {
	if rid == "" {
		log.Warn().Str("module", "app.gateway").Str("cid", string(cid)).Msg("join with empty board id dropped")
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	user, ok := g.Registry.Identity(cid)
	if !ok {
		log.Warn().Str("module", "app.gateway").Str("cid", string(cid)).Msg("join before identify dropped")
		return
	}
	if cur, ok := g.Registry.RoomOf(cid); ok {
		if cur == rid {
			return
		}
		g.removeFromRoom(cid, cur, user.ID)
	}
	g.Rooms.AddMember(rid, cid)
	g.Registry.UpdateRoom(cid, rid)
	log.Info().Str("module", "app.gateway").Str("cid", string(cid)).Str("room", string(rid)).Msg("joined room")
	g.Notifier.NotifyJoined(rid, cid, user)
}

// Leave removes the connection from rid. Valid only for the room the
// connection is actually in; anything else is dropped with a diagnostic.
func (g *Gateway) Leave(cid core.ConnID, rid domain.RoomID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur, ok := g.Registry.RoomOf(cid)
	if !ok || cur != rid {
		log.Warn().Str("module", "app.gateway").Str("cid", string(cid)).Str("room", string(rid)).Msg("leave of non-current room dropped")
		return
	}
	user, ok := g.Registry.Identity(cid)
	if !ok {
		// Room membership without identity breaks an internal invariant.
		log.Error().Str("module", "app.gateway").Str("cid", string(cid)).Msg("room member without identity")
		return
	}
	g.removeFromRoom(cid, rid, user.ID)
	log.Info().Str("module", "app.gateway").Str("cid", string(cid)).Str("room", string(rid)).Msg("left room")
}

// Relay fans the sender's event out to the rest of its room. Without a
// current room the event is silently dropped.
func (g *Gateway) Relay(cid core.ConnID, event map[string]any) {
	rid, ok := g.Registry.RoomOf(cid)
	if !ok {
		log.Warn().Str("module", "app.gateway").Str("cid", string(cid)).Msg("relay without room dropped")
		return
	}
	user, ok := g.Registry.Identity(cid)
	if !ok {
		log.Error().Str("module", "app.gateway").Str("cid", string(cid)).Msg("room member without identity")
		return
	}
	g.Notifier.Relay(rid, cid, user.ID, event)
}

// Disconnect is the implicit leave plus identity destruction. Safe to
// call from any state and idempotent for the same connection.
func (g *Gateway) Disconnect(cid core.ConnID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rid, ok := g.Registry.RoomOf(cid); ok {
		uid := domain.UserID("")
		if user, ok := g.Registry.Identity(cid); ok {
			uid = user.ID
		}
		g.removeFromRoom(cid, rid, uid)
	}
	if g.Registry.Unbind(cid) {
		log.Info().Str("module", "app.gateway").Str("cid", string(cid)).Msg("disconnected")
	}
}

// removeFromRoom drops membership, clears the identity's room pointer
// and notifies the remaining peers. Callers hold g.mu.
func (g *Gateway) removeFromRoom(cid core.ConnID, rid domain.RoomID, uid domain.UserID) {
	empty := g.Rooms.RemoveMember(rid, cid)
	g.Registry.ClearRoom(cid)
	if !empty && uid != "" {
		g.Notifier.NotifyLeft(rid, uid)
	}
}
