package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/theta-web/internal/logger"
)

// Publisher sends domain events to RabbitMQ.  Each publish opens its own
// connection; inquiry volume is a handful per day.
type Publisher struct {
    url string
    log logger.Logger
}

// NewPublisher returns nil when url is empty, which disables publishing.
func NewPublisher(url string, log logger.Logger) *Publisher {
    if url == "" {
        return nil
    }
    if log == nil {
        log = logger.NewNop()
    }
    return &Publisher{url: url, log: log}
}

// PublishInquiryReceived publishes ev to the inquiry.received queue as a
// persistent message.  Errors are logged and returned so the caller can
// choose to ignore them.
func (p *Publisher) PublishInquiryReceived(ctx context.Context, ev InquiryReceivedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    if err := p.publish(ctx, InquiryReceivedQueue, body); err != nil {
        p.log.Warn("rabbitmq: publish failed",
            logger.String("queue", InquiryReceivedQueue), logger.Uint64("inquiry_id", ev.InquiryID), logger.Error(err))
        return err
    }
    return nil
}

func (p *Publisher) publish(ctx context.Context, queue string, body []byte) error {
    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
    if err != nil {
        return fmt.Errorf("dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    // default exchange, routing key = queue name
    if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}
