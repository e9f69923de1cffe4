package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    "github.com/pkg/errors"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

// LogFileName is the file, inside the consumer's log directory, that
// receives one line per event.
const LogFileName = "seating.log"

// Consumer listens on the seating.events queue and appends every event
// to <dir>/seating.log.
type Consumer struct {
    url string
    dir string
    log logrus.FieldLogger

    mu sync.Mutex // serialises writes to the log file
}

// NewConsumer returns a Consumer.  An empty url selects DefaultURL and an
// empty dir selects "logs".
func NewConsumer(url, dir string, log logrus.FieldLogger) *Consumer {
    if url == "" {
        url = DefaultURL
    }
    if dir == "" {
        dir = "logs"
    }
    return &Consumer{url: url, dir: dir, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial
// failures back off exponentially up to 30s; a dropped connection is
// re-established after a short pause.  It returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.WithError(err).WithField("retry_in", backoff.String()).Warn("seating-consumer: dial failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.log.WithError(err).Warn("seating-consumer: consume loop ended, reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return errors.Wrap(err, "channel open")
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.WithError(err).Warn("seating-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
        return errors.Wrap(err, "queue declare")
    }
    msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
    if err != nil {
        return errors.Wrap(err, "queue consume")
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.HandleMessage(d.Body); err != nil {
                c.log.WithError(err).WithField("message_id", d.MessageId).Error("seating-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one delivery body and appends its log line.
func (c *Consumer) HandleMessage(body []byte) error {
    var ev SeatingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return errors.Wrap(err, "unmarshal")
    }
    if ev.Type == "" {
        return errors.New("event has no type")
    }

    c.mu.Lock()
    defer c.mu.Unlock()

    if err := os.MkdirAll(c.dir, 0o755); err != nil {
        return errors.Wrap(err, "mkdir logs")
    }
    f, err := os.OpenFile(filepath.Join(c.dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return errors.Wrap(err, "open log file")
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return errors.Wrap(err, "write log")
    }
    return nil
}

// FormatLine renders ev as a single newline-terminated log line.
func FormatLine(ev SeatingEvent) string {
    parts := make([]string, 0, len(ev.Placements))
    for _, p := range ev.Placements {
        if p.DeskNumber != nil && p.SeatNumber != nil {
            parts = append(parts, fmt.Sprintf("%d@%d-%d", p.PersonID, *p.DeskNumber, *p.SeatNumber))
        } else {
            parts = append(parts, fmt.Sprintf("%d@waiting", p.PersonID))
        }
    }
    return fmt.Sprintf("[%s] %s | id=%s | %s | placements=[%s]\n",
        ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.ID, ev.Summary, strings.Join(parts, ","))
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
