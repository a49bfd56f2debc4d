package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservation/models"
)

// Event types
const (
	EventReservationCreated   = "reservation_created"
	EventReservationUpdated   = "reservation_updated"
	EventReservationCancelled = "reservation_cancelled"
	EventTableCreate          = "table_create"
	EventTableUpdate          = "table_update"
	EventTableDelete          = "table_delete"
	EventQueueSnapshot        = "queue_snapshot"
)

const writeTimeout = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Subscriber identifies the authenticated user behind a connection.
type Subscriber struct {
	UserID uint
	Roles  models.Role
}

// sendBuffer is how many messages may queue for one client before it is
// considered stalled and dropped.
const sendBuffer = 32

type client struct {
	conn *websocket.Conn
	sub  Subscriber
	send chan []byte
}

// Hub fans messages out to every connected websocket client. Each client
// has its own writer goroutine, so Broadcast never waits on a socket. A nil
// *Hub accepts broadcasts and drops them.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex

	Logger *logrus.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		Logger:  logrus.StandardLogger(),
	}
}

func (h *Hub) Register(conn *websocket.Conn, sub Subscriber) {
	c := &client{conn: conn, sub: sub, send: make(chan []byte, sendBuffer)}
	h.mutex.Lock()
	h.clients[conn] = c
	h.mutex.Unlock()
	go h.writeLoop(c)
}

// Unregister drops conn and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.remove(conn)
}

// remove must be called with the mutex held.
func (h *Hub) remove(conn *websocket.Conn) {
	c, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	close(c.send)
	conn.Close()
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log().WithError(err).WithField("user_id", c.sub.UserID).Warn("dropping live client")
			h.Unregister(c.conn)
			return
		}
	}
}

func (h *Hub) Count() int {
	if h == nil {
		return 0
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) ReservationCreated(r models.Reservation) {
	h.Broadcast(Message{Event: EventReservationCreated, Data: r})
}

func (h *Hub) ReservationUpdated(r models.Reservation) {
	h.Broadcast(Message{Event: EventReservationUpdated, Data: r})
}

func (h *Hub) ReservationCancelled(r models.Reservation) {
	h.Broadcast(Message{Event: EventReservationCancelled, Data: r})
}

func (h *Hub) TableCreated(t models.Table) {
	h.Broadcast(Message{Event: EventTableCreate, Data: t})
}

func (h *Hub) TableUpdated(t models.Table) {
	h.Broadcast(Message{Event: EventTableUpdate, Data: t})
}

func (h *Hub) TableDeleted(t models.Table) {
	h.Broadcast(Message{Event: EventTableDelete, Data: t})
}

func (h *Hub) QueueSnapshot(queue []models.Reservation) {
	h.Broadcast(Message{Event: EventQueueSnapshot, Data: queue})
}

// Broadcast queues msg for every client. Clients whose queue is full are
// dropped.
func (h *Hub) Broadcast(msg Message) {
	if h == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log().WithError(err).WithField("event", msg.Event).Error("marshal live message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log().WithField("user_id", c.sub.UserID).Warn("live client stalled, dropping")
			h.remove(conn)
		}
	}
	h.log().WithFields(logrus.Fields{"event": msg.Event, "clients": len(h.clients)}).Debug("broadcast")
}

func (h *Hub) log() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}
