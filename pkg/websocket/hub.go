package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"mechongo/pkg/logger"
)

var ErrHubStopped = errors.New("websocket hub stopped")

type topicMessage struct {
	topic string
	data  []byte
}

// Hub is the topic registry. Registration, removal and fan-out all run on
// the Run loop, so a topic's subscriber set is only mutated there.
type Hub struct {
	topics     map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan topicMessage
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		topics:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan topicMessage, 256),
		done:       make(chan struct{}),
		logger:     log,
	}
}

// Run processes hub events until ctx is cancelled, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for topic, clients := range h.topics {
		for client := range clients {
			client.close()
		}
		delete(h.topics, topic)
	}
}

func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues data for every subscriber of topic.
func (h *Hub) Publish(ctx context.Context, topic string, data []byte) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	select {
	case h.broadcast <- topicMessage{topic: topic, data: data}:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Broadcast JSON-encodes payload and publishes it to topic on this
// instance only.
func (h *Hub) Broadcast(ctx context.Context, topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.Publish(ctx, topic, data)
}

// Subscribers returns the number of clients joined to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	clients, ok := h.topics[client.topic]
	if !ok {
		clients = make(map[*Client]struct{})
		h.topics[client.topic] = clients
	}
	clients[client] = struct{}{}

	h.logger.WithFields(map[string]interface{}{
		"topic":       client.topic,
		"subscribers": len(clients),
	}).Debug("Client joined topic")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.removeLocked(client)
}

func (h *Hub) fanOut(message topicMessage) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.topics[message.topic] {
		select {
		case client.send <- message.data:
		default:
			h.logger.WithField("topic", message.topic).Warn("Dropping slow websocket client")
			h.removeLocked(client)
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.topics[client.topic]
	if !ok {
		return
	}
	if _, member := clients[client]; !member {
		return
	}

	delete(clients, client)
	if len(clients) == 0 {
		delete(h.topics, client.topic)
	}
	client.close()

	h.logger.WithField("topic", client.topic).Debug("Client left topic")
}
