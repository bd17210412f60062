package event

import (
	"reflect"
	"sync"
)

// Bus queues events in emission order. The game loop drains it once per
// tick; handlers run during Drain, never during Emit.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	queue    []any
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event. A nil bus discards it.
func Emit[T any](b *Bus, event T) {
	if b == nil {
		return
	}
	b.queue = append(b.queue, event)
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// Drain delivers every queued event to its handlers in emission order and
// returns the events. Events emitted by handlers are delivered in the same
// drain, after the ones already queued.
func (b *Bus) Drain() []any {
	var out []any
	for len(b.queue) > 0 {
		batch := b.queue
		b.queue = nil
		for _, ev := range batch {
			for _, h := range b.handlers[reflect.TypeOf(ev)] {
				callHandler(h, ev)
			}
		}
		out = append(out, batch...)
	}
	return out
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
