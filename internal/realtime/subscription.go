package realtime

import (
	"context"
	"sync"

	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

// Handlers receive decoded events.  Nil handlers ignore their kind.
type Handlers struct {
	OnMessage func(model.Message)
	OnStatus  func(StatusUpdate)
}

// Subscriber attaches handlers to a channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, h Handlers) (*Subscription, error)
}

// Publisher sends events to a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, ev Event) error
}

// Subscription is a live attachment to a channel.  Close detaches it; it is
// safe to call more than once and from any goroutine, so callers can simply
// defer it.
type Subscription struct {
	once    sync.Once
	release func()
	done    chan struct{}
}

func newSubscription(release func()) *Subscription {
	return &Subscription{release: release, done: make(chan struct{})}
}

// Close releases the subscription.  No handler runs after Close returns.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
		close(s.done)
	})
	return nil
}

// Done is closed once the subscription has been released.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// dispatch decodes body and hands it to the matching handler.  Undecodable
// events are logged and dropped.
func dispatch(body []byte, h Handlers, log logging.Logger) {
	ev, err := Decode(body)
	if err != nil {
		log.Warn("realtime: dropping event", "error", err)
		return
	}
	deliver(ev, h)
}

func deliver(ev Event, h Handlers) {
	switch ev.Kind {
	case KindMessage:
		if h.OnMessage != nil {
			h.OnMessage(*ev.Message)
		}
	case KindStatus:
		if h.OnStatus != nil {
			h.OnStatus(*ev.Status)
		}
	}
}
