package bus

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNilHandler = errors.New("nil event handler")

type event struct {
	typ    string
	source string
	at     time.Time
	data   any
}

func (e event) Type() string         { return e.typ }
func (e event) Source() string       { return e.source }
func (e event) Timestamp() time.Time { return e.at }
func (e event) Data() any            { return e.data }

// NewEvent stamps data with the current time.
func NewEvent(typ, src string, data any) Event {
	return event{typ: typ, source: src, at: time.Now(), data: data}
}

type subscription struct {
	id      string
	typ     string
	handler EventHandler
	bus     *inMemoryBus

	mu     sync.Mutex
	active bool
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.typ }

func (s *subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *subscription) Cancel() error {
	s.mu.Lock()
	was := s.active
	s.active = false
	s.mu.Unlock()
	if was {
		s.bus.remove(s)
	}
	return nil
}

// inMemoryBus keeps subscribers per type in subscription order, so delivery
// order never depends on map iteration.
type inMemoryBus struct {
	mu        sync.RWMutex
	subs      map[string][]*subscription
	observers []EventBusObserver
	metrics   EventBusMetrics
}

func New() EventBus {
	return &inMemoryBus{subs: make(map[string][]*subscription)}
}

func (b *inMemoryBus) Publish(e Event) error {
	start := time.Now()
	typ := e.Type()

	b.mu.RLock()
	subs := slices.Clone(b.subs[typ])
	observers := slices.Clone(b.observers)
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(typ, e)
	}

	var all error
	delivered := 0
	for _, s := range subs {
		// a handler earlier in this delivery may have cancelled s
		if !s.IsActive() {
			continue
		}
		delivered++
		if err := s.handler(e); err != nil {
			all = errors.Join(all, err)
		}
	}

	b.mu.Lock()
	b.metrics.Published++
	b.metrics.DeliveredHandlers += uint64(delivered)
	if all != nil {
		b.metrics.Errors++
	}
	b.mu.Unlock()

	if len(observers) > 0 {
		took := time.Since(start).Microseconds()
		for _, obs := range observers {
			obs.OnDelivered(typ, delivered, all, took)
		}
	}
	return all
}

func (b *inMemoryBus) PublishBatch(events ...Event) error {
	var all error
	for _, e := range events {
		all = errors.Join(all, b.Publish(e))
	}
	return all
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	s := &subscription{
		id:      uuid.NewString(),
		typ:     eventType,
		handler: handler,
		bus:     b,
		active:  true,
	}
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], s)
	b.metrics.SubscribersActive++
	b.mu.Unlock()
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[s.typ]
	if i := slices.Index(list, s); i >= 0 {
		b.subs[s.typ] = slices.Delete(list, i, i+1)
		b.metrics.SubscribersActive--
	}
	if len(b.subs[s.typ]) == 0 {
		delete(b.subs, s.typ)
	}
}

func (b *inMemoryBus) AddObserver(obs EventBusObserver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !slices.Contains(b.observers, obs) {
		b.observers = append(b.observers, obs)
	}
}

func (b *inMemoryBus) RemoveObserver(obs EventBusObserver) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := slices.Index(b.observers, obs); i >= 0 {
		b.observers = slices.Delete(b.observers, i, i+1)
	}
}

func (b *inMemoryBus) GetMetrics() EventBusMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}
