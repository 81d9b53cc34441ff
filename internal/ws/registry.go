package ws

// Registry tracks, for each room, the set of clients currently
// subscribed. It carries no lock of its own: every mutation and every
// snapshot happens on the Hub goroutine, which is the single
// synchronization boundary for subscription state.
type Registry struct {
	rooms    map[string]map[*Client]struct{}
	byClient map[*Client]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]map[*Client]struct{}),
		byClient: make(map[*Client]string),
	}
}

// Join subscribes client to room. A client holds at most one
// subscription at a time: joining a new room leaves the prior one
// first. Idempotent when the client is already a member of room.
func (r *Registry) Join(client *Client, room string) {
	if current, ok := r.byClient[client]; ok {
		if current == room {
			return
		}
		r.remove(client, current)
	}

	set, ok := r.rooms[room]
	if !ok {
		set = make(map[*Client]struct{})
		r.rooms[room] = set
	}
	set[client] = struct{}{}
	r.byClient[client] = room
}

// Leave removes the client's subscription, if any. Safe to call for a
// client with no subscription.
func (r *Registry) Leave(client *Client) {
	room, ok := r.byClient[client]
	if !ok {
		return
	}
	delete(r.byClient, client)
	r.remove(client, room)
}

func (r *Registry) remove(client *Client, room string) {
	set := r.rooms[room]
	delete(set, client)
	if len(set) == 0 {
		// Empty rooms are evicted to bound memory. Joining an evicted
		// room recreates the entry, so eviction is never observable.
		delete(r.rooms, room)
	}
}

// Room returns the client's current subscription.
func (r *Registry) Room(client *Client) (string, bool) {
	room, ok := r.byClient[client]
	return room, ok
}

// Subscribers returns a point-in-time snapshot of room's members.
func (r *Registry) Subscribers(room string) []*Client {
	set := r.rooms[room]
	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	return clients
}
