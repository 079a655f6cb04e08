package drivershim

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxQueuedEvents bounds the event queue; the host frame loop is expected to
// drain it every frame, so hitting the cap means the pump stalled.
const maxQueuedEvents = 256

// EventHandler processes an event as it is drained from the queue.
type EventHandler interface {
	Handle(ev Event)
}

// EventHandlerFunc is a function-based EventHandler.
type EventHandlerFunc func(ev Event)

func (f EventHandlerFunc) Handle(ev Event) { f(ev) }

// EventQueue is the host's per-frame event queue. Producers post events from
// any thread; the frame loop drains them with PollNext, which also dispatches
// any handlers registered for the event type.
type EventQueue struct {
	mu     sync.Mutex
	events []Event

	handlersMu sync.RWMutex
	handlers   map[string][]EventHandler

	logger Logger
}

// NewEventQueue creates an empty event queue.
func NewEventQueue(logger Logger) *EventQueue {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &EventQueue{
		handlers: make(map[string][]EventHandler),
		logger:   logger,
	}
}

// RegisterHandler registers a handler for a specific event type.
// Use "*" as eventType to handle all event types.
func (q *EventQueue) RegisterHandler(eventType string, handler EventHandler) {
	q.handlersMu.Lock()
	defer q.handlersMu.Unlock()
	q.handlers[eventType] = append(q.handlers[eventType], handler)
}

// RegisterHandlerFunc registers a simple function handler for an event type.
func (q *EventQueue) RegisterHandlerFunc(eventType string, fn EventHandlerFunc) {
	q.RegisterHandler(eventType, fn)
}

// Post enqueues an event, stamping its timestamp and, if absent, a
// correlation ID.
func (q *EventQueue) Post(ev Event) {
	if ev.TSUnixMs == 0 {
		ev.TSUnixMs = time.Now().UnixMilli()
	}
	if ev.CorrelationID == "" {
		ev.CorrelationID = uuid.New().String()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) >= maxQueuedEvents {
		dropped := q.events[0]
		q.events = q.events[1:]
		q.logger.Warn("event queue full, dropping oldest", "type", dropped.Type)
	}
	q.events = append(q.events, ev)
}

// PollNext pops the oldest queued event, dispatching registered handlers
// before returning it. The second result is false when the queue is empty.
func (q *EventQueue) PollNext() (Event, bool) {
	q.mu.Lock()
	if len(q.events) == 0 {
		q.mu.Unlock()
		return Event{}, false
	}
	ev := q.events[0]
	q.events = q.events[1:]
	q.mu.Unlock()

	q.dispatch(ev)
	return ev, true
}

// Pending reports the number of undrained events.
func (q *EventQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

func (q *EventQueue) dispatch(ev Event) {
	q.handlersMu.RLock()
	handlers := q.handlers[ev.Type]
	wildcard := q.handlers["*"]
	q.handlersMu.RUnlock()

	for _, h := range handlers {
		h.Handle(ev)
	}
	for _, h := range wildcard {
		h.Handle(ev)
	}
}
