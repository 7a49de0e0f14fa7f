package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Board/internal/core"
	"github.com/dkeye/Board/internal/domain"
)

// Rooms maps a room id to its member set. Rooms are created on first
// join and deleted inside the same critical section that empties them,
// so a present-but-empty room is never observable.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[core.ConnID]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[domain.RoomID]map[core.ConnID]struct{})}
}

// AddMember adds cid to the room, creating the room if absent.
func (rs *Rooms) AddMember(rid domain.RoomID, cid core.ConnID) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	members, ok := rs.rooms[rid]
	if !ok {
		members = make(map[core.ConnID]struct{})
		rs.rooms[rid] = members
		log.Info().Str("module", "app.rooms").Str("room", string(rid)).Msg("room created")
	}
	members[cid] = struct{}{}
}

// RemoveMember removes cid from the room and reports whether the room
// became empty. An empty room is deleted in the same call.
func (rs *Rooms) RemoveMember(rid domain.RoomID, cid core.ConnID) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	members, ok := rs.rooms[rid]
	if !ok {
		log.Error().Str("module", "app.rooms").Str("room", string(rid)).Str("cid", string(cid)).Msg("remove from unknown room")
		return false
	}
	delete(members, cid)
	if len(members) > 0 {
		return false
	}
	delete(rs.rooms, rid)
	log.Info().Str("module", "app.rooms").Str("room", string(rid)).Msg("room deleted")
	return true
}

func (rs *Rooms) Exists(rid domain.RoomID) bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	_, ok := rs.rooms[rid]
	return ok
}

// Members returns a copy of the room's member set.
func (rs *Rooms) Members(rid domain.RoomID) []core.ConnID {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	members, ok := rs.rooms[rid]
	if !ok {
		return nil
	}
	out := make([]core.ConnID, 0, len(members))
	for cid := range members {
		out = append(out, cid)
	}
	return out
}

func (rs *Rooms) RoomCount() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rooms)
}

func (rs *Rooms) MemberCount(rid domain.RoomID) int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.rooms[rid])
}

// Snapshot copies the whole registry under one read lock, so no single
// room's member set can be torn by a concurrent mutation.
func (rs *Rooms) Snapshot() map[domain.RoomID][]core.ConnID {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make(map[domain.RoomID][]core.ConnID, len(rs.rooms))
	for rid, members := range rs.rooms {
		cids := make([]core.ConnID, 0, len(members))
		for cid := range members {
			cids = append(cids, cid)
		}
		out[rid] = cids
	}
	return out
}
