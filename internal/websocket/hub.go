package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe      MessageType = "subscribe"
	MessageTypeUnsubscribe    MessageType = "unsubscribe"
	MessageTypeNewMessage     MessageType = "new_message"
	MessageTypeMessageUpdated MessageType = "message_updated"
	MessageTypeError          MessageType = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type     MessageType `json:"type"`
	Identity string      `json:"identity,omitempty"`
	Message  interface{} `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// NewMessagePayload is the payload of a new-mail notification. It references
// the recipient's own copy of the message.
type NewMessagePayload struct {
	MessageID   uint      `json:"message_id"`
	Sender      string    `json:"sender"`
	Subject     string    `json:"subject"`
	SentAt      time.Time `json:"sent_at"`
	SpamVerdict string    `json:"spam_verdict"`
}

// MessageUpdatedPayload is the payload of a mutation notification. Only the
// changed fields are set.
type MessageUpdatedPayload struct {
	MessageID uint      `json:"message_id"`
	IsRead    *bool     `json:"is_read,omitempty"`
	IsStarred *bool     `json:"is_starred,omitempty"`
	Folder    *string   `json:"folder,omitempty"`
	Labels    *[]string `json:"labels,omitempty"`
}

// Hub maintains the set of active clients and broadcasts events to every
// connected session of an identity. Delivery is best-effort: there is no
// replay, and a disconnected subscriber misses events until it reconciles
// through the list surface.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Identity subscriptions: identity (email address) -> set of clients
	subscriptions map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Subscribe to an identity
	subscribe chan *subscriptionRequest

	// Unsubscribe from an identity
	unsubscribeIdentity chan *subscriptionRequest

	// Broadcast to subscribers of an identity
	broadcast chan *broadcastMessage

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	logger *slog.Logger
}

type subscriptionRequest struct {
	client   *Client
	identity string
}

type broadcastMessage struct {
	identity string
	message  []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:             make(map[*Client]bool),
		subscriptions:       make(map[string]map[*Client]bool),
		register:            make(chan *Client),
		unregister:          make(chan *Client),
		subscribe:           make(chan *subscriptionRequest),
		unsubscribeIdentity: make(chan *subscriptionRequest),
		broadcast:           make(chan *broadcastMessage, 256),
		logger:              logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered", slog.String("identity", client.identity))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				// Remove from all subscriptions
				for identity, subscribers := range h.subscriptions {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						delete(h.subscriptions, identity)
					}
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered", slog.String("identity", client.identity))
			}

		case req := <-h.subscribe:
			h.mu.Lock()
			if h.subscriptions[req.identity] == nil {
				h.subscriptions[req.identity] = make(map[*Client]bool)
			}
			h.subscriptions[req.identity][req.client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client subscribed", slog.String("identity", req.identity))
			}

		case req := <-h.unsubscribeIdentity:
			h.mu.Lock()
			if subscribers, ok := h.subscriptions[req.identity]; ok {
				delete(subscribers, req.client)
				if len(subscribers) == 0 {
					delete(h.subscriptions, req.identity)
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unsubscribed", slog.String("identity", req.identity))
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			subscribers := h.subscriptions[msg.identity]
			for client := range subscribers {
				select {
				case client.send <- msg.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe subscribes a client to an identity's events
func (h *Hub) Subscribe(client *Client, identity string) {
	h.subscribe <- &subscriptionRequest{client: client, identity: identity}
}

// Unsubscribe unsubscribes a client from an identity's events
func (h *Hub) Unsubscribe(client *Client, identity string) {
	h.unsubscribeIdentity <- &subscriptionRequest{client: client, identity: identity}
}

// SubscriberCount returns the number of active subscribers for an identity.
func (h *Hub) SubscriberCount(identity string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscriptions[identity])
}

// NotifyNewMessage broadcasts a new-mail notification to every connected
// session of the identity. Never blocks: the broadcast channel is buffered
// and full client buffers are skipped.
func (h *Hub) NotifyNewMessage(identity string, payload *NewMessagePayload) {
	h.emit(identity, WSMessage{
		Type:     MessageTypeNewMessage,
		Identity: identity,
		Message:  payload,
	})
}

// NotifyMessageUpdated broadcasts a mutation notification to every connected
// session of the identity.
func (h *Hub) NotifyMessageUpdated(identity string, payload *MessageUpdatedPayload) {
	h.emit(identity, WSMessage{
		Type:     MessageTypeMessageUpdated,
		Identity: identity,
		Message:  payload,
	})
}

func (h *Hub) emit(identity string, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal broadcast message", slog.Any("error", err))
		}
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{identity: identity, message: data}:
	default:
		if h.logger != nil {
			h.logger.Warn("broadcast channel full, dropping notification",
				slog.String("identity", identity))
		}
	}
}
