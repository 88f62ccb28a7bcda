package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Connection is one dashboard subscription
type Connection struct {
	ClinicianID string
	Send        chan []byte
}

// NewConnection creates a connection with a buffered send queue
func NewConnection(clinicianID string) *Connection {
	return &Connection{
		ClinicianID: clinicianID,
		Send:        make(chan []byte, 256),
	}
}

type broadcastMessage struct {
	clinicianID string
	data        []byte
}

// Hub fans screening notifications out to each clinician's open dashboards
type Hub struct {
	conns map[string]map[*Connection]struct{} // clinicianID -> connections
	mu    sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastMessage
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub and starts its run loop
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastMessage, 256),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		logger:     logger.Named("ws"),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.ClinicianID] == nil {
				h.conns[conn.ClinicianID] = make(map[*Connection]struct{})
			}
			h.conns[conn.ClinicianID][conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("dashboard connected", zap.String("clinicianId", conn.ClinicianID))

		case conn := <-h.unregister:
			h.remove(conn)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.conns[msg.clinicianID] {
				select {
				case conn.Send <- msg.data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for id, set := range h.conns {
				for conn := range set {
					close(conn.Send)
				}
				delete(h.conns, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[conn.ClinicianID]
	if !ok {
		return
	}
	if _, ok := set[conn]; !ok {
		return
	}
	delete(set, conn)
	close(conn.Send)
	if len(set) == 0 {
		delete(h.conns, conn.ClinicianID)
	}
	h.logger.Debug("dashboard disconnected", zap.String("clinicianId", conn.ClinicianID))
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Notify sends a message to every dashboard of a clinician (implements service.Broadcaster)
func (h *Hub) Notify(clinicianID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal ws payload", zap.String("type", msgType), zap.Error(err))
		return
	}
	envelope, err := json.Marshal(&Message{Type: MessageType(msgType), Payload: data})
	if err != nil {
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{clinicianID: clinicianID, data: envelope}:
	case <-h.done:
	}
}

// ConnectionCount returns the number of open dashboards for a clinician
func (h *Hub) ConnectionCount(clinicianID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[clinicianID])
}

// Close stops the run loop and closes every connection's send queue
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		<-h.stopped
	})
}
