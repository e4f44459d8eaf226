package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AuditFile is the file name the consumer appends to inside its directory.
const AuditFile = "audit.log"

// Consumer listens to every event queue and appends one line per event to
// {Dir}/audit.log.
type Consumer struct {
	URL string
	Dir string
	Log *logrus.Entry
}

// Run connects, consumes and reconnects with exponential backoff until ctx
// is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
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
		c.Log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
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

type delivery struct {
	queue string
	amqp.Delivery
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.WithError(err).Warn("set QoS failed")
	}

	merged := make(chan delivery)
	for _, q := range []string{BehaviorRecordedQueue, MessageSentQueue} {
		if err := declare(ch, q); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		go func(q string, msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case merged <- delivery{queue: q, Delivery: d}:
				case <-ctx.Done():
					return
				}
			}
		}(q, msgs)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cerr := <-closed:
			if cerr == nil {
				return errors.New("connection closed")
			}
			return cerr
		case d := <-merged:
			if err := c.handle(d.queue, d.Body); err != nil {
				c.Log.WithError(err).WithField("queue", d.queue).Error("handle message failed")
				_ = d.Nack(false, false) // do not requeue poison messages
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(queue string, body []byte) error {
	line, err := FormatLine(queue, body)
	if err != nil {
		return err
	}
	return AppendLine(c.Dir, line)
}

// FormatLine renders an event body as a single human readable audit line.
func FormatLine(queue string, body []byte) (string, error) {
	switch queue {
	case BehaviorRecordedQueue:
		var ev BehaviorRecordedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		notified := make([]string, len(ev.NotifiedIDs))
		for i, id := range ev.NotifiedIDs {
			notified[i] = fmt.Sprint(id)
		}
		return fmt.Sprintf("[%s] Behavior recorded | behavior_id=%d | student=%q | teacher=%q | type=%s | category=%q | stage=%d | notified=[%s]\n",
			ev.RecordedAt, ev.BehaviorID, ev.StudentName, ev.TeacherName, ev.Type, ev.Category, ev.Stage, strings.Join(notified, ",")), nil
	case MessageSentQueue:
		var ev MessageSentEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Message sent | message_id=%d | from=%q (%d) | to=%d | preview=%q\n",
			ev.SentAt, ev.MessageID, ev.SenderName, ev.SenderID, ev.RecipientID, ev.Preview), nil
	default:
		return "", fmt.Errorf("unknown queue %q", queue)
	}
}

// AppendLine appends line to {dir}/audit.log, creating the directory first.
func AppendLine(dir, line string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, AuditFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
