// Package service publishes booking events to RabbitMQ.  Publishing is best
// effort: errors are returned for the caller to log, and the request that
// produced the event never fails because of them.
package service

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/train-seat-booking/internal/config"
    "github.com/iliyamo/train-seat-booking/internal/queue"
)

// Publisher sends BookingEvents to the queue matching their Type.  A
// connection is dialled per publish; booking volume is low enough that a
// pooled connection is not worth its reconnect logic.
type Publisher struct {
    cfg config.QueueConfig
    log *slog.Logger
}

func NewPublisher(cfg config.QueueConfig, log *slog.Logger) *Publisher {
    return &Publisher{cfg: cfg, log: log}
}

// QueueFor returns the queue name events of type t are routed to.
func (p *Publisher) QueueFor(t string) (string, error) {
    switch t {
    case queue.EventBookingConfirmed:
        return p.cfg.ConfirmedQueue, nil
    case queue.EventBookingCancelled:
        return p.cfg.CancelledQueue, nil
    }
    return "", fmt.Errorf("unknown event type %q", t)
}

// Publish marshals ev and publishes it as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev queue.BookingEvent) error {
    name, err := p.QueueFor(ev.Type)
    if err != nil {
        return err
    }
    if ev.At.IsZero() {
        ev.At = time.Now().UTC()
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    timeout, err := dialBudget(ctx)
    if err != nil {
        return err
    }
    conn, err := amqp.DialConfig(p.cfg.URL, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
        return fmt.Errorf("rabbitmq declare %s: %w", name, err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    ev.At,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", name, false, false, pub); err != nil {
        return fmt.Errorf("rabbitmq publish %s: %w", name, err)
    }
    p.log.Debug("booking event published", slog.String("queue", name), slog.String("type", ev.Type))
    return nil
}

// dialTimeout bounds the broker dial when ctx carries no deadline.
const dialTimeout = 3 * time.Second

// dialBudget returns how long a dial may take without outliving ctx.
func dialBudget(ctx context.Context) (time.Duration, error) {
    if err := ctx.Err(); err != nil {
        return 0, err
    }
    deadline, ok := ctx.Deadline()
    if !ok {
        return dialTimeout, nil
    }
    left := time.Until(deadline)
    if left <= 0 {
        return 0, context.DeadlineExceeded
    }
    return left, nil
}
