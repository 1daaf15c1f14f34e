package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Hub struct {
	id      string
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	SessionID string
	Send      chan []byte
}

// envelope wraps payloads relayed through redis so the publishing hub can
// skip its own messages; local clients already got them from Broadcast.
type envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ready := make(chan struct{})
		go h.subscribeRedis(ready)
		<-ready
	}
	return h
}

func (h *Hub) Register(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*Client]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessionClients, ok := h.clients[client.SessionID]; ok {
		delete(sessionClients, client)
		if len(sessionClients) == 0 {
			delete(h.clients, client.SessionID)
		}
	}
	close(client.Send)
}

// Broadcast delivers a JSON payload to local subscribers of the session and
// relays it to other hubs through redis.
func (h *Hub) Broadcast(sessionID string, payload []byte) {
	h.deliver(sessionID, payload)

	if h.redis == nil {
		return
	}
	msg, err := json.Marshal(envelope{Origin: h.id, Payload: payload})
	if err != nil {
		log.Printf("stream envelope encode error: %v", err)
		return
	}
	if err := h.redis.Publish(context.Background(), redisChannel(sessionID), msg).Err(); err != nil {
		log.Printf("redis publish error: %v", err)
	}
}

// Subscribers returns how many local clients follow a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) deliver(sessionID string, payload []byte) {
	// send while holding the read lock so Unregister cannot close a channel mid-send
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ready chan<- struct{}) {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, redisChannel("*"))
	defer pubsub.Close()

	// wait for the subscription confirmation so early broadcasts are not missed
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("redis subscribe error: %v", err)
		close(ready)
		return
	}
	close(ready)

	for msg := range pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			log.Printf("stream envelope decode error: %v", err)
			continue
		}
		if env.Origin == h.id {
			continue
		}
		h.deliver(sessionIDFromChannel(msg.Channel), env.Payload)
	}
}

func redisChannel(sessionID string) string {
	return "tracking:" + sessionID + ":broadcast"
}

func sessionIDFromChannel(ch string) string {
	// tracking:{session}:broadcast
	const prefix = "tracking:"
	const suffix = ":broadcast"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
