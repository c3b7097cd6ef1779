// Package live fans out incident and action updates to connected viewers.
package live

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Wikid82/sentinel/internal/logger"
	"github.com/Wikid82/sentinel/internal/metrics"
)

// Topics served by the hub.
const (
	TopicIncidents = "incidents"
	TopicActions   = "actions"
)

// DefaultQueueSize is the per-subscriber message buffer.
const DefaultQueueSize = 64

// Conn is the write side of a viewer connection.
type Conn interface {
	WriteMessage(data []byte) error
	Close() error
}

// Subscriber is one viewer attached to a topic. Messages are written by a
// dedicated goroutine so a slow viewer never blocks the publisher.
type Subscriber struct {
	topic string
	conn  Conn
	send  chan []byte
	done  chan struct{}
	once  sync.Once
}

// Topic returns the topic the subscriber is attached to.
func (s *Subscriber) Topic() string { return s.topic }

// Done is closed once the subscriber has been removed from the hub.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Hub keeps the subscriber registry per topic.
type Hub struct {
	mu        sync.RWMutex
	topics    map[string]map[*Subscriber]struct{}
	queueSize int
}

// NewHub returns a hub with both topics registered. queueSize <= 0 uses DefaultQueueSize.
func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		topics: map[string]map[*Subscriber]struct{}{
			TopicIncidents: {},
			TopicActions:   {},
		},
		queueSize: queueSize,
	}
}

// Subscribe attaches conn to topic and starts its writer.
func (h *Hub) Subscribe(topic string, conn Conn) (*Subscriber, error) {
	sub := &Subscriber{
		topic: topic,
		conn:  conn,
		send:  make(chan []byte, h.queueSize),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	set, ok := h.topics[topic]
	if !ok {
		h.mu.Unlock()
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
	set[sub] = struct{}{}
	n := len(set)
	h.mu.Unlock()

	metrics.SetSubscribers(topic, n)
	logger.Component("live").WithFields(map[string]interface{}{"topic": topic, "subscribers": n}).Debug("subscriber attached")

	go h.writeLoop(sub)
	return sub, nil
}

// Unsubscribe removes sub and closes its connection. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	sub.once.Do(func() {
		h.mu.Lock()
		set := h.topics[sub.topic]
		delete(set, sub)
		n := len(set)
		h.mu.Unlock()

		close(sub.done)
		_ = sub.conn.Close()
		metrics.SetSubscribers(sub.topic, n)
		logger.Component("live").WithFields(map[string]interface{}{"topic": sub.topic, "subscribers": n}).Debug("subscriber removed")
	})
}

// Count returns the number of subscribers on topic.
func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish marshals v once and queues it for every current subscriber of topic.
// A subscriber whose queue is full misses this message.
func (h *Hub) Publish(topic string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Component("live").WithError(err).WithField("topic", topic).Error("failed to marshal live update")
		return
	}

	h.mu.RLock()
	subs := make([]*Subscriber, 0, len(h.topics[topic]))
	for sub := range h.topics[topic] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.send <- data:
		default:
			metrics.IncDropped(topic)
			logger.Component("live").WithField("topic", topic).Warn("subscriber queue full, dropping update")
		}
	}
}

// Close removes every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	var subs []*Subscriber
	for _, set := range h.topics {
		for sub := range set {
			subs = append(subs, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		h.Unsubscribe(sub)
	}
}

func (h *Hub) writeLoop(sub *Subscriber) {
	for {
		select {
		case <-sub.done:
			return
		case msg := <-sub.send:
			if err := sub.conn.WriteMessage(msg); err != nil {
				logger.Component("live").WithError(err).WithField("topic", sub.topic).Info("live update write failed, dropping subscriber")
				h.Unsubscribe(sub)
				return
			}
		}
	}
}
