// Package live pushes tenant-scoped snapshots to dashboard clients over
// websockets, standing in for live-query listeners.
package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xbirks/alergenu-sub000/utils"
)

// Event types
const (
	EventCategoriesSnapshot = "categories_snapshot"
	EventMenuItemsSnapshot  = "menu_items_snapshot"
	EventReviewSnapshot     = "review_snapshot"
	EventDailyMenuSnapshot  = "daily_menu_snapshot"
	EventRestaurantUpdate   = "restaurant_update"
	EventSubscriptionUpdate = "subscription_update"
)

// AdminChannel receives events broadcast to the admin panel.
const AdminChannel = "*admin"

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

const defaultWriteTimeout = 5 * time.Second

// Hub maps each connection to the restaurant it listens to. Writes happen
// under the mutex so a connection never has two concurrent writers; each
// write carries a deadline so a stalled client is dropped instead of
// holding the mutex.
type Hub struct {
	WriteTimeout time.Duration

	clients map[*websocket.Conn]string
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		WriteTimeout: defaultWriteTimeout,
		clients:      make(map[*websocket.Conn]string),
	}
}

func (h *Hub) Register(conn *websocket.Conn, channel string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = channel
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// Count returns the number of connections on a channel.
func (h *Hub) Count(channel string) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	n := 0
	for _, ch := range h.clients {
		if ch == channel {
			n++
		}
	}
	return n
}

// Publish sends an event to every client of one restaurant.
func (h *Hub) Publish(restaurantID, event string, data interface{}) {
	h.broadcast(restaurantID, Message{Event: event, Data: data})
}

// PublishAdmin sends an event to the admin panel clients.
func (h *Hub) PublishAdmin(event string, data interface{}) {
	h.broadcast(AdminChannel, Message{Event: event, Data: data})
}

// Send writes one message to a single connection.
func (h *Hub) Send(conn *websocket.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.write(conn, data)
}

func (h *Hub) write(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(h.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) broadcast(channel string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling live message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, ch := range h.clients {
		if ch != channel {
			continue
		}
		if err := h.write(conn, data); err != nil {
			utils.ErrorLogger.Printf("Error sending %s to client: %v", msg.Event, err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
