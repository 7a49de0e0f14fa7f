package app

import (
	"time"

	"github.com/dkeye/Board/internal/domain"
)

// Health is the operator-facing snapshot served by GET /health.
type Health struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Connections int       `json:"connections"`
	Rooms       int       `json:"rooms"`
	Users       int       `json:"users"`
}

type RoomUser struct {
	ID   domain.UserID `json:"id"`
	Name string        `json:"name"`
}

// RoomView is one entry of GET /rooms.
type RoomView struct {
	BoardID   domain.RoomID `json:"boardId"`
	UserCount int           `json:"userCount"`
	Users     []RoomUser    `json:"users"`
}

// Health reads both registries without mutating them. Counts are each
// consistent with some point in time; they are not a cross-registry
// transaction.
func (g *Gateway) Health() Health {
	return Health{
		Status:      "ok",
		Timestamp:   time.Now().UTC(),
		Connections: g.Registry.ConnCount(),
		Rooms:       g.Rooms.RoomCount(),
		Users:       g.Registry.IdentityCount(),
	}
}

// RoomViews lists every active room with its identified members.
func (g *Gateway) RoomViews() []RoomView {
	snap := g.Rooms.Snapshot()
	out := make([]RoomView, 0, len(snap))
	for rid, cids := range snap {
		view := RoomView{BoardID: rid, UserCount: len(cids), Users: make([]RoomUser, 0, len(cids))}
		for _, cid := range cids {
			if user, ok := g.Registry.Identity(cid); ok {
				view.Users = append(view.Users, RoomUser{ID: user.ID, Name: user.Name})
			}
		}
		out = append(out, view)
	}
	return out
}
