package realtime

import (
	"context"
	"sync"

	"github.com/votemamu/web/internal/logging"
)

// Bus is an in-process channel broker.  Events go through the same wire
// encoding as the AMQP transport and are delivered synchronously on the
// publisher's goroutine.  A handler must not close its own subscription.
type Bus struct {
	log logging.Logger

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]*busSub
}

type busSub struct {
	mu     sync.Mutex
	h      Handlers
	closed bool
}

func NewBus(log logging.Logger) *Bus {
	return &Bus{log: logging.OrNoOp(log), subs: map[string]map[int]*busSub{}}
}

func (b *Bus) Subscribe(ctx context.Context, channel string, h Handlers) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &busSub{h: h}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[channel] == nil {
		b.subs[channel] = map[int]*busSub{}
	}
	b.subs[channel][id] = sub
	b.mu.Unlock()

	s := newSubscription(func() {
		b.mu.Lock()
		delete(b.subs[channel], id)
		b.mu.Unlock()
		// wait for an in-flight delivery, then refuse new ones
		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()
	})
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.Done():
		}
	}()
	return s, nil
}

func (b *Bus) Publish(_ context.Context, channel string, ev Event) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}
	b.mu.Lock()
	subs := make([]*busSub, 0, len(b.subs[channel]))
	for _, s := range b.subs[channel] {
		subs = append(subs, s)
	}
	b.mu.Unlock()
	for _, s := range subs {
		s.mu.Lock()
		if !s.closed {
			dispatch(body, s.h, b.log)
		}
		s.mu.Unlock()
	}
	return nil
}

// Subscribers returns how many subscriptions are attached to channel.
func (b *Bus) Subscribers(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}
