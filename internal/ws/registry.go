package ws

import (
	"sort"
	"sync"
)

// Registry maps authenticated user ids to their open connections.
type Registry struct {
	mu     sync.RWMutex
	users  map[int]map[*Conn]struct{}
	owners map[*Conn]int
}

func NewRegistry() *Registry {
	return &Registry{
		users:  make(map[int]map[*Conn]struct{}),
		owners: make(map[*Conn]int),
	}
}

// Register binds conn to userID. When conn was bound to a different user it is
// moved, and prevOffline reports whether that user has no connections left.
func (r *Registry) Register(userID int, conn *Conn) (prev int, prevOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.owners[conn]; ok {
		if owner == userID {
			return 0, false
		}
		prev = owner
		prevOffline = r.removeLocked(owner, conn)
	}

	conns, ok := r.users[userID]
	if !ok {
		conns = make(map[*Conn]struct{})
		r.users[userID] = conns
	}
	conns[conn] = struct{}{}
	r.owners[conn] = userID
	conn.setUserID(userID)
	return prev, prevOffline
}

// Unregister removes conn from its user's set. offline is true only for the
// call that empties the set.
func (r *Registry) Unregister(conn *Conn) (userID int, offline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.owners[conn]
	if !ok {
		return 0, false
	}
	return owner, r.removeLocked(owner, conn)
}

func (r *Registry) removeLocked(userID int, conn *Conn) bool {
	delete(r.owners, conn)
	conns, ok := r.users[userID]
	if !ok {
		return false
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(r.users, userID)
		return true
	}
	return false
}

func (r *Registry) IsOnline(userID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

// OnlineUsers returns the ids of users with at least one connection, ascending.
func (r *Registry) OnlineUsers() []int {
	r.mu.RLock()
	ids := make([]int, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Ints(ids)
	return ids
}

func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *Registry) Connections(userID int) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Conn, 0, len(r.users[userID]))
	for conn := range r.users[userID] {
		conns = append(conns, conn)
	}
	return conns
}

func (r *Registry) UserOf(conn *Conn) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.owners[conn]
	return userID, ok
}
