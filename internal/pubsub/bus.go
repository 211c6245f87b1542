// Package pubsub is an in-process, topic keyed broadcast bus. Subscribers
// only see payloads published after they subscribed, in publish order.
package pubsub

import (
	"context"
	"sync"
)

// DefaultBuffer is the per-subscriber queue length used when none is given.
const DefaultBuffer = 16

// Observer receives delivery statistics, typically a metrics recorder.
type Observer interface {
	Published(stream string, delivered int)
	Dropped(stream string)
	SubscribersChanged(stream string, delta int)
}

// Bus fans out payloads of type T to the subscribers of a topic.
type Bus[T any] struct {
	name     string
	buffer   int
	observer Observer

	mu     sync.Mutex
	topics map[string]map[*Subscription[T]]struct{}
}

// Option configures a Bus.
type Option func(*options)

type options struct {
	buffer   int
	observer Observer
}

// WithBuffer sets how many undelivered payloads a subscriber may hold before
// the oldest one is dropped.
func WithBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// WithObserver attaches delivery statistics.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// New creates a bus. name labels the stream in observer callbacks.
func New[T any](name string, opts ...Option) *Bus[T] {
	o := options{buffer: DefaultBuffer}
	for _, opt := range opts {
		opt(&o)
	}
	return &Bus[T]{
		name:     name,
		buffer:   o.buffer,
		observer: o.observer,
		topics:   make(map[string]map[*Subscription[T]]struct{}),
	}
}

// Subscription is one consumer of a topic.
type Subscription[T any] struct {
	bus   *Bus[T]
	topic string
	ch    chan T
	done  chan struct{}
	once  sync.Once
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close ends the subscription and releases its slot. Safe to call twice.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		close(s.done)
		s.bus.remove(s)
	})
}

// Subscribe registers a consumer on topic. The subscription is closed when ctx
// is done or Close is called, whichever happens first.
func (b *Bus[T]) Subscribe(ctx context.Context, topic string) *Subscription[T] {
	sub := &Subscription[T]{
		bus:   b,
		topic: topic,
		ch:    make(chan T, b.buffer),
		done:  make(chan struct{}),
	}

	b.mu.Lock()
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*Subscription[T]]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	b.mu.Unlock()

	if b.observer != nil {
		b.observer.SubscribersChanged(b.name, 1)
	}
	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				sub.Close()
			case <-sub.done:
			}
		}()
	}
	return sub
}

// Publish delivers payload to every current subscriber of topic and returns
// how many were reached. It never blocks: a subscriber whose queue is full
// loses its oldest pending payload.
func (b *Bus[T]) Publish(topic string, payload T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[topic]
	for sub := range subs {
		select {
		case sub.ch <- payload:
		default:
			select {
			case <-sub.ch:
				if b.observer != nil {
					b.observer.Dropped(b.name)
				}
			default:
			}
			sub.ch <- payload
		}
	}
	if b.observer != nil {
		b.observer.Published(b.name, len(subs))
	}
	return len(subs)
}

// Subscribers reports the live subscriber count of topic.
func (b *Bus[T]) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

func (b *Bus[T]) remove(sub *Subscription[T]) {
	b.mu.Lock()
	subs, ok := b.topics[sub.topic]
	if !ok {
		b.mu.Unlock()
		return
	}
	if _, ok := subs[sub]; !ok {
		b.mu.Unlock()
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(b.topics, sub.topic)
	}
	close(sub.ch)
	b.mu.Unlock()

	if b.observer != nil {
		b.observer.SubscribersChanged(b.name, -1)
	}
}
