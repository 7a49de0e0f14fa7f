package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
)

type connEntry struct {
	User   *domain.User
	RoomID domain.RoomID
	Conn   core.SignalConnection
}

// Registry is the identity store: one entry per live connection, holding
// the claimed identity, the current room (if any) and the send endpoint.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnID]*connEntry)}
}

// Bind registers a fresh connection with no identity and no room.
func (r *Registry) Bind(cid core.ConnID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[cid] = &connEntry{Conn: conn}
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("bound connection")
}

// Unbind removes the connection entry entirely. Reports whether the
// entry still existed, so disconnect stays idempotent upstream.
func (r *Registry) Unbind(cid core.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[cid]; !ok {
		return false
	}
	delete(r.conns, cid)
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Msg("unbound connection")
	return true
}

// UpsertIdentity stores or overwrites the connection's claimed identity.
// Returns false if the connection is not bound (already terminated).
func (r *Registry) UpsertIdentity(cid core.ConnID, u *domain.User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return false
	}
	e.User = u
	log.Info().Str("module", "app.registry").Str("cid", string(cid)).Str("user", string(u.ID)).Msg("identity upserted")
	return true
}

func (r *Registry) Identity(cid core.ConnID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok || e.User == nil {
		return nil, false
	}
	return e.User, true
}

func (r *Registry) Conn(cid core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok {
		return nil, false
	}
	return e.Conn, true
}

// RoomOf returns the connection's current room, if it has one.
func (r *Registry) RoomOf(cid core.ConnID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[cid]
	if !ok || e.RoomID == "" {
		return "", false
	}
	return e.RoomID, true
}

func (r *Registry) UpdateRoom(cid core.ConnID, rid domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[cid]
	if !ok {
		return false
	}
	e.RoomID = rid
	return true
}

func (r *Registry) ClearRoom(cid core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[cid]; ok {
		e.RoomID = ""
	}
}

// ConnCount is the number of live connections, identified or not.
func (r *Registry) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// IdentityCount is the number of connections that completed identify.
func (r *Registry) IdentityCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.conns {
		if e.User != nil {
			n++
		}
	}
	return n
}
