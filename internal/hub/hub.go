// Package hub implements the per-thermostat live notification channel:
// best-effort fan-out of telemetry and setpoint events to connected clients.
package hub

import "sync"

// Event kinds pushed to subscribers.
const (
	EventTelemetry = "telemetry"
	EventSetpoint  = "setpoint"
)

// Event is one message pushed to the subscribers of a thermostat.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Subscriber receives events for one thermostat. Send may be called from any
// publishing goroutine; a non-nil error drops the subscriber from the set.
type Subscriber interface {
	ID() string
	Send(ev Event) error
}

// Hub owns the per-thermostat subscriber sets. Delivery is at-most-once and
// fire-and-forget: a subscriber whose Send fails is silently removed, and the
// failure never reaches the publisher. There is no replay for late joiners.
type Hub struct {
	mu   sync.Mutex
	subs map[int]map[string]Subscriber
}

func New() *Hub {
	return &Hub{subs: make(map[int]map[string]Subscriber)}
}

// Subscribe registers sub for events of the given thermostat.
func (h *Hub) Subscribe(thermostatID int, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[thermostatID]
	if set == nil {
		set = make(map[string]Subscriber)
		h.subs[thermostatID] = set
	}
	set[sub.ID()] = sub
}

// Unsubscribe removes sub. Removing an unknown subscriber is a no-op.
func (h *Hub) Unsubscribe(thermostatID int, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(thermostatID, sub.ID())
}

func (h *Hub) removeLocked(thermostatID int, id string) {
	set := h.subs[thermostatID]
	delete(set, id)
	if len(set) == 0 {
		delete(h.subs, thermostatID)
	}
}

// Publish delivers ev to every current subscriber of the thermostat, in the
// order Publish was invoked per channel. The subscriber set is snapshotted
// before delivery so concurrent joins and leaves never corrupt the loop.
func (h *Hub) Publish(thermostatID int, ev Event) {
	h.mu.Lock()
	snapshot := make([]Subscriber, 0, len(h.subs[thermostatID]))
	for _, s := range h.subs[thermostatID] {
		snapshot = append(snapshot, s)
	}
	h.mu.Unlock()

	for _, s := range snapshot {
		if err := s.Send(ev); err != nil {
			h.mu.Lock()
			h.removeLocked(thermostatID, s.ID())
			h.mu.Unlock()
		}
	}
}

// SubscriberCount reports how many clients are attached to a thermostat.
func (h *Hub) SubscriberCount(thermostatID int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[thermostatID])
}
