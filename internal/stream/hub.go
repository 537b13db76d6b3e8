package stream

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"

	"velocity/internal/workout"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// LiveKey receives every snapshot regardless of session.
const LiveKey = "live"

type Hub struct {
	redis   *redis.Client
	origin  string
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	cancel  context.CancelFunc
	done    chan struct{}
}

type Client struct {
	Key  string
	Send chan []byte
}

// envelope lets a hub skip its own messages when they come back from redis.
type envelope struct {
	Origin  string `json:"origin"`
	Payload []byte `json:"payload"`
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		origin:  uuid.NewString(),
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		h.done = make(chan struct{})
		ready := make(chan struct{})
		go h.subscribeRedis(ctx, ready)
		<-ready
	}
	return h
}

func (h *Hub) Register(key string) *Client {
	client := &Client{
		Key:  key,
		Send: make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[key] == nil {
		h.clients[key] = map[*Client]struct{}{}
	}
	h.clients[key][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.Key]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.Key)
	}
	close(client.Send)
}

// Broadcast sends payload to local clients of key and, with redis configured,
// to the clients of every other hub.
func (h *Hub) Broadcast(key string, payload []byte) {
	h.deliver(key, payload)

	if h.redis != nil {
		msg, err := json.Marshal(envelope{Origin: h.origin, Payload: payload})
		if err != nil {
			return
		}
		if err := h.redis.Publish(context.Background(), redisChannel(key), msg).Err(); err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

// Publish implements workout.Publisher.
func (h *Hub) Publish(snapshot workout.Snapshot) {
	payload, err := json.Marshal(struct {
		Type string `json:"type"`
		workout.Snapshot
	}{Type: "snapshot", Snapshot: snapshot})
	if err != nil {
		log.Printf("encode snapshot: %v", err)
		return
	}
	h.Broadcast(LiveKey, payload)
	if snapshot.ID != "" {
		h.Broadcast(snapshot.ID, payload)
	}
}

func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
		<-h.done
	}
}

func (h *Hub) deliver(key string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[key] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context, ready chan<- struct{}) {
	defer close(h.done)
	pubsub := h.redis.PSubscribe(ctx, redisChannel("*"))
	defer pubsub.Close()

	// wait for the subscription so broadcasts right after NewHub are not lost
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Printf("redis subscribe error: %v", err)
	}
	close(ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil || env.Origin == h.origin {
				continue
			}
			h.deliver(keyFromChannel(msg.Channel), env.Payload)
		}
	}
}

func redisChannel(key string) string {
	return "velocity:" + key + ":dashboard"
}

func keyFromChannel(ch string) string {
	// velocity:{key}:dashboard
	const prefix = "velocity:"
	const suffix = ":dashboard"
	if len(ch) <= len(prefix)+len(suffix) || !strings.HasPrefix(ch, prefix) || !strings.HasSuffix(ch, suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
