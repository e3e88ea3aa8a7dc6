package app

import (
	"log/slog"
	"sync"

	"live-quiz-service/internal/domain"
)

// DefaultBuffer is the per-subscriber queue length: enough for a couple of
// pending events.
const DefaultBuffer = 2

// Broker fans out one kind of event per quiz. Channels are created on first use
// and torn down by Retire.
type Broker[T any] struct {
	kind   domain.EventKind
	buffer int
	logger *slog.Logger

	mu       sync.RWMutex
	channels map[string]*multicast[T]
}

// multicast is the set of subscribers attached to one (quiz, kind) channel.
type multicast[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	closed bool
}

// Subscription is one subscriber's view of a channel.
type Subscription[T any] struct {
	ch     chan T
	parent *multicast[T]
}

// NewBroker creates a broker for events of the given kind.
func NewBroker[T any](kind domain.EventKind, buffer int, logger *slog.Logger) *Broker[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker[T]{
		kind:     kind,
		buffer:   buffer,
		logger:   logger.With("kind", string(kind)),
		channels: make(map[string]*multicast[T]),
	}
}

// Subscribe attaches to the quiz's channel, creating it if needed. Only events
// published after this call are delivered.
func (b *Broker[T]) Subscribe(quizID string) *Subscription[T] {
	b.mu.RLock()
	if m, ok := b.channels[quizID]; ok {
		sub := m.attach(b.buffer)
		b.mu.RUnlock()
		return sub
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.channels[quizID]
	if !ok {
		m = &multicast[T]{subs: make(map[*Subscription[T]]struct{})}
		b.channels[quizID] = m
		b.logger.Debug("channel created", "quiz_id", quizID)
	}
	return m.attach(b.buffer)
}

// Publish delivers payload to the current subscribers without blocking and
// returns how many received it. With no channel the call is a no-op. A
// subscriber whose queue is full loses its oldest pending event.
func (b *Broker[T]) Publish(quizID string, payload T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	m, ok := b.channels[quizID]
	if !ok {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0
	}

	delivered := 0
	for sub := range m.subs {
		select {
		case sub.ch <- payload:
			delivered++
			continue
		default:
		}
		// Only this goroutine sends while m.mu is held, so after discarding
		// one event there is room unless the reader drained it first.
		select {
		case <-sub.ch:
			b.logger.Warn("slow subscriber dropped an event", "quiz_id", quizID)
		default:
		}
		select {
		case sub.ch <- payload:
			delivered++
		default:
		}
	}
	return delivered
}

// Retire removes the quiz's channel and ends every attached subscription.
// A later Subscribe starts an unrelated channel.
func (b *Broker[T]) Retire(quizID string) {
	b.mu.Lock()
	m, ok := b.channels[quizID]
	delete(b.channels, quizID)
	b.mu.Unlock()

	if !ok {
		return
	}
	n := m.close()
	b.logger.Debug("channel retired", "quiz_id", quizID, "subscribers", n)
}

// Subscribers counts the subscriptions currently attached for the quiz.
func (b *Broker[T]) Subscribers(quizID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	m, ok := b.channels[quizID]
	if !ok {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *multicast[T]) attach(buffer int) *Subscription[T] {
	sub := &Subscription[T]{ch: make(chan T, buffer), parent: m}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		close(sub.ch)
		return sub
	}
	m.subs[sub] = struct{}{}
	return sub
}

func (m *multicast[T]) close() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	n := len(m.subs)
	for sub := range m.subs {
		close(sub.ch)
	}
	clear(m.subs)
	return n
}

// Closed returns a subscription whose stream has already ended.
func Closed[T any]() *Subscription[T] {
	ch := make(chan T)
	close(ch)
	return &Subscription[T]{ch: ch}
}

// C is the event stream. It is closed when the channel is retired or the
// subscription is closed.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close detaches the subscriber. It is safe to call more than once and after
// the channel was retired; other subscribers are unaffected.
func (s *Subscription[T]) Close() {
	m := s.parent
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[s]; ok {
		delete(m.subs, s)
		close(s.ch)
	}
}
