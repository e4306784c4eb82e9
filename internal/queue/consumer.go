package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/theta-web/internal/logger"
)

// Consumer listens to inquiry.received and appends one line per event to
// <dir>/inquiries.log.
type Consumer struct {
    url string
    dir string
    log logger.Logger
}

func NewConsumer(url, dir string, log logger.Logger) *Consumer {
    if dir == "" {
        dir = "logs"
    }
    if log == nil {
        log = logger.NewNop()
    }
    return &Consumer{url: url, dir: dir, log: log}
}

// Run connects, consumes and reconnects with backoff until ctx is done.
// Messages that cannot be handled are rejected without requeue so a bad
// payload cannot spin the loop.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("inquiry-consumer: failed to dial broker",
                logger.Error(err), logger.Duration("retry_in", backoff))
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
        c.log.Warn("inquiry-consumer: consume loop ended, reconnecting", logger.Error(err))
        if !sleep(ctx, 2*time.Second) {
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
        c.log.Warn("inquiry-consumer: set QoS failed", logger.Error(err))
    }
    if _, err := ch.QueueDeclare(InquiryReceivedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(InquiryReceivedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(d.Body); err != nil {
                c.log.Error("inquiry-consumer: handle message failed", logger.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and appends it to the log file.
func (c *Consumer) Handle(body []byte) error {
    var ev InquiryReceivedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.InquiryID == 0 {
        return errors.New("event without inquiry_id")
    }
    if err := os.MkdirAll(c.dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", c.dir, err)
    }
    f, err := os.OpenFile(filepath.Join(c.dir, "inquiries.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single human readable line.
func FormatLine(ev InquiryReceivedEvent) string {
    org := ev.OrganizationName
    if org == "" {
        org = "-"
    }
    return fmt.Sprintf("[%s] Inquiry received | inquiry_id=%d | type=%s | client=%s | org=%q | project=%s | name=%q | email=%s | documents=%d\n",
        ev.ReceivedAt, ev.InquiryID, ev.Type, ev.ClientType, org, ev.ProjectType, ev.Name, ev.Email, ev.Documents)
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
