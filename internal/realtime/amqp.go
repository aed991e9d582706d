package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/votemamu/web/internal/logging"
)

// AMQP maps each channel onto a fanout exchange of the same name.  Every
// subscriber binds its own exclusive auto-delete queue, so all of them see
// every event and nothing piles up for a subscriber that went away.
type AMQP struct {
	url        string
	log        logging.Logger
	maxBackoff time.Duration
}

// NewAMQP returns a transport for the broker at url.
func NewAMQP(url string, log logging.Logger) *AMQP {
	return &AMQP{url: url, log: logging.OrNoOp(log), maxBackoff: 30 * time.Second}
}

// Subscribe starts consuming channel in the background and returns at once.
// A lost broker connection is redialled with exponential backoff until the
// subscription is closed or ctx ends.
func (a *AMQP) Subscribe(ctx context.Context, channel string, h Handlers) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	sub := newSubscription(func() {
		cancel()
		<-stopped
	})
	go func() {
		defer close(stopped)
		a.run(ctx, channel, h)
	}()
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.Done():
		}
	}()
	return sub, nil
}

func (a *AMQP) run(ctx context.Context, channel string, h Handlers) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(a.url)
		if err != nil {
			a.log.Warn("realtime: dial failed", "channel", channel, "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < a.maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = a.consume(ctx, conn, channel, h)
		_ = conn.Close()
		if err == nil || ctx.Err() != nil {
			return
		}
		a.log.Warn("realtime: consume loop ended, reconnecting", "channel", channel, "error", err)
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func (a *AMQP) consume(ctx context.Context, conn *amqp.Connection, channel string, h Handlers) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, channel); err != nil {
		return err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", channel, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	a.log.Info("realtime: subscribed", "channel", channel, "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			dispatch(d.Body, h, a.log)
		}
	}
}

// Publish sends ev to channel over a short-lived connection.  Errors are
// logged and returned; callers may ignore them.
func (a *AMQP) Publish(ctx context.Context, channel string, ev Event) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}
	conn, err := amqp.Dial(a.url)
	if err != nil {
		a.log.Error("realtime: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		a.log.Error("realtime: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, channel); err != nil {
		a.log.Error("realtime: exchange declare failed", "error", err)
		return err
	}
	pub := amqp.Publishing{
		ContentType: "application/json",
		Type:        ev.Kind,
		Timestamp:   time.Now().UTC(),
		Body:        body,
	}
	if err := ch.PublishWithContext(ctx, channel, "", false, false, pub); err != nil {
		a.log.Error("realtime: publish failed", "channel", channel, "error", err)
		return err
	}
	return nil
}

func declare(ch *amqp.Channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
