package groups

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/StackLine-App/pokerbase/internal/app/domain/group"
	"github.com/StackLine-App/pokerbase/internal/app/metrics"
	"github.com/StackLine-App/pokerbase/pkg/logger"
)

// subscriber pairs a connection with a write lock. gorilla/websocket allows
// at most one concurrent writer per connection, and broadcasts arrive from
// whichever request goroutine posted the message.
type subscriber struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (s *subscriber) writeJSON(v any) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.conn.WriteJSON(v)
}

// Hub fans group chat messages out to live websocket subscribers. Persistence
// is the service's job; the hub only handles delivery to connected clients.
type Hub struct {
	log *logger.Logger

	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]*subscriber
}

// NewHub constructs an empty hub.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewDefault("group-hub")
	}
	return &Hub{
		log:   log,
		conns: make(map[string]map[*websocket.Conn]*subscriber),
	}
}

// Subscribe registers a connection for a group's messages. The returned
// function removes the subscription; it does not close the connection.
func (h *Hub) Subscribe(groupID string, conn *websocket.Conn) func() {
	h.mu.Lock()
	if h.conns[groupID] == nil {
		h.conns[groupID] = make(map[*websocket.Conn]*subscriber)
	}
	h.conns[groupID][conn] = &subscriber{conn: conn}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		if subs, ok := h.conns[groupID]; ok {
			delete(subs, conn)
			if len(subs) == 0 {
				delete(h.conns, groupID)
			}
		}
		h.mu.Unlock()
	}
}

// Broadcast writes the message to every live subscriber of its group.
// Connections that fail to accept the write are dropped from the hub.
func (h *Hub) Broadcast(m group.Message) {
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.conns[m.GroupID]))
	for _, sub := range h.conns[m.GroupID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	for _, sub := range subs {
		if err := sub.writeJSON(m); err != nil {
			h.log.WithError(err).WithField("group_id", m.GroupID).Warn("dropping dead subscriber")
			h.drop(m.GroupID, sub.conn)
		}
	}
	metrics.RecordBroadcast()
}

// SubscriberCount reports live subscriptions for a group.
func (h *Hub) SubscriberCount(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[groupID])
}

func (h *Hub) drop(groupID string, conn *websocket.Conn) {
	h.mu.Lock()
	if subs, ok := h.conns[groupID]; ok {
		delete(subs, conn)
		if len(subs) == 0 {
			delete(h.conns, groupID)
		}
	}
	h.mu.Unlock()
	_ = conn.Close()
}
