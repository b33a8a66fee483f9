// Package live pushes tutoring state changes to a user's open browser tabs.
package live

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sambhav874/tuition-teacher/internal/tutor"
)

const sendBuffer = 32

// Subscription is one connection's event feed.
type Subscription struct {
	ID     string
	UserID string
	// C receives encoded events. It is closed when the subscription ends.
	C      chan []byte
	closed chan struct{}
	once   sync.Once
}

// Closed is closed when the hub drops the subscription.
func (s *Subscription) Closed() <-chan struct{} {
	return s.closed
}

func (s *Subscription) close() {
	s.once.Do(func() {
		close(s.closed)
		close(s.C)
	})
}

// Hub tracks live subscriptions per user. Multiple tabs per user are allowed.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[string]*Subscription
	seq    atomic.Int64
	logger *slog.Logger
}

// NewHub creates a new hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		active: make(map[string]map[string]*Subscription),
		logger: logger,
	}
}

// Subscribe registers a new subscription for userID.
func (h *Hub) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		ID:     "conn-" + strconv.FormatInt(h.seq.Add(1), 10),
		UserID: userID,
		C:      make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.active[userID]; !ok {
		h.active[userID] = make(map[string]*Subscription)
	}
	h.active[userID][sub.ID] = sub
	h.logger.Info("Live subscription registered", "user_id", userID, "conn_id", sub.ID)
	return sub
}

// Unsubscribe removes sub. It is safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscription) {
	if subs, ok := h.active[sub.UserID]; ok {
		if current, exists := subs[sub.ID]; exists && current == sub {
			delete(subs, sub.ID)
			if len(subs) == 0 {
				delete(h.active, sub.UserID)
			}
			h.logger.Info("Live subscription unregistered", "user_id", sub.UserID, "conn_id", sub.ID)
		}
	}
	sub.close()
}

// Count returns the number of subscriptions for userID.
func (h *Hub) Count(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active[userID])
}

// Publish sends event to every subscription of userID. Subscribers that
// cannot keep up are dropped and must reconnect.
func (h *Hub) Publish(userID string, event tutor.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("failed to encode live event", "error", err, "type", event.Type)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.active[userID] {
		select {
		case sub.C <- payload:
		default:
			h.logger.Warn("Live subscriber too slow, dropping", "user_id", userID, "conn_id", sub.ID)
			h.removeLocked(sub)
		}
	}
}

// CloseUser ends every subscription for userID.
func (h *Hub) CloseUser(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.active[userID] {
		h.removeLocked(sub)
	}
}

// Close ends all subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, subs := range h.active {
		for _, sub := range subs {
			h.removeLocked(sub)
		}
	}
}

var _ tutor.Publisher = (*Hub)(nil)
