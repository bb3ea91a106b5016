package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"ragdash/internal/model"
)

// ActivityPublisher queues activity events for the persist worker.
type ActivityPublisher struct {
	conn      *amqp.Connection
	queueName string

	mu sync.Mutex
	ch *amqp.Channel
}

func NewActivityPublisher(conn *amqp.Connection, queueName string) *ActivityPublisher {
	return &ActivityPublisher{conn: conn, queueName: queueName}
}

// Record publishes the event as a persistent JSON message.
func (p *ActivityPublisher) Record(ctx context.Context, event model.ActivityEvent) error {
	payload, err := EncodeActivity(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	}); err != nil {
		_ = ch.Close()
		p.ch = nil
		return fmt.Errorf("publish activity failed: %w", err)
	}
	return nil
}

func (p *ActivityPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}

func (p *ActivityPublisher) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	if err := DeclareQueue(ch, p.queueName); err != nil {
		_ = ch.Close()
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

func EncodeActivity(event model.ActivityEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal activity payload failed: %w", err)
	}
	return payload, nil
}

// DecodeActivity reverses EncodeActivity. The database id is never taken
// from the wire.
func DecodeActivity(body []byte) (model.ActivityEvent, error) {
	var event model.ActivityEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.ActivityEvent{}, fmt.Errorf("decode activity payload failed: %w", err)
	}
	if event.Kind == "" {
		return model.ActivityEvent{}, fmt.Errorf("decode activity payload failed: missing kind")
	}
	event.ID = 0
	return event, nil
}
