package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/train-seat-booking/internal/config"
	"github.com/iliyamo/train-seat-booking/internal/logger"
)

// Consumer reads booking events from both queues and appends one line per
// event to <LogDir>/booking.log.
type Consumer struct {
	cfg config.QueueConfig
	log *logger.Logger
}

func NewConsumer(cfg config.QueueConfig, log *logger.Logger) *Consumer {
	return &Consumer{cfg: cfg, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Broken
// connections are retried with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.cfg.URL)
		if err != nil {
			c.log.Warn("booking consumer: dial failed", slog.String("error", err.Error()), slog.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("booking consumer: consume loop ended, reconnecting", slog.String("error", err.Error()))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("booking consumer: set QoS failed", slog.String("error", err.Error()))
	}

	var streams []<-chan amqp.Delivery
	for _, q := range []string{c.cfg.ConfirmedQueue, c.cfg.CancelledQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		streams = append(streams, msgs)
	}

	confirmed, cancelled := streams[0], streams[1]
	for {
		var (
			d  amqp.Delivery
			ok bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-confirmed:
		case d, ok = <-cancelled:
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := c.handle(d.Body); err != nil {
			c.log.Error("booking consumer: handle message failed", slog.String("error", err.Error()))
			_ = d.Nack(false, false) // drop rather than requeue into a tight loop
			continue
		}
		_ = d.Ack(false)
	}
}

func (c *Consumer) handle(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return AppendLog(c.cfg.LogDir, ev)
}

// AppendLog writes ev as one line to dir/booking.log, creating both if needed.
func AppendLog(dir string, ev BookingEvent) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human readable log line.
func FormatLine(ev BookingEvent) string {
	verb := "Booking confirmed"
	if ev.Type == EventBookingCancelled {
		verb = "Booking cancelled"
	}
	seats := make([]string, len(ev.Seats))
	for i, s := range ev.Seats {
		seats[i] = fmt.Sprint(s)
	}
	line := fmt.Sprintf("[%s] %s | ticket_id=%s | user_id=%d | seats=[%s]",
		ev.At.UTC().Format(time.RFC3339), verb, ev.TicketID, ev.UserID, strings.Join(seats, ","))
	if len(ev.RowLabels) > 0 {
		line += fmt.Sprintf(" | rows=[%s]", strings.Join(ev.RowLabels, ","))
	}
	if ev.Actor != "" {
		line += " | by=" + ev.Actor
	}
	return line + "\n"
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
