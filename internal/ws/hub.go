package ws

import (
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/modide/internal/domain/session"
	"github.com/GriffinCanCode/modide/internal/infrastructure/monitoring"
)

// subscriberBuffer is the number of events queued per connection before new ones are dropped
const subscriberBuffer = 64

type subscriber struct {
	events chan session.Event
}

// Hub fans session events out to the websocket connections watching that session.
// It implements session.Notifier.
type Hub struct {
	logger  *zap.Logger
	metrics *monitoring.Metrics

	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

// NewHub creates an empty hub. metrics may be nil.
func NewHub(logger *zap.Logger, metrics *monitoring.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		metrics: metrics,
		subs:    make(map[string]map[*subscriber]struct{}),
	}
}

// Publish delivers e to every subscriber of its session without blocking.
// A subscriber whose queue is full misses the event.
func (h *Hub) Publish(e session.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[e.SessionID] {
		select {
		case sub.events <- e:
		default:
			h.logger.Warn("dropping event for slow subscriber",
				zap.String("session_id", e.SessionID),
				zap.String("type", e.Type),
			)
		}
	}
}

// Subscribe registers a queue for sid. Call the returned func to unsubscribe.
func (h *Hub) Subscribe(sid string) (<-chan session.Event, func()) {
	sub := &subscriber{events: make(chan session.Event, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[sid] == nil {
		h.subs[sid] = make(map[*subscriber]struct{})
	}
	h.subs[sid][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.events, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sid], sub)
			if len(h.subs[sid]) == 0 {
				delete(h.subs, sid)
			}
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of subscribers watching sid
func (h *Hub) Subscribers(sid string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sid])
}
