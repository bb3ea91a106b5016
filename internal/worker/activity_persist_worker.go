package worker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ragdash/internal/metrics"
	"ragdash/internal/model"
	"ragdash/internal/platform/rabbitmq"
)

type ActivityStore interface {
	Create(ctx context.Context, event *model.ActivityEvent) error
}

// ActivityPersistWorker drains the activity queue into the store.
type ActivityPersistWorker struct {
	conn      *amqp.Connection
	store     ActivityStore
	queueName string
	log       *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewActivityPersistWorker(conn *amqp.Connection, store ActivityStore, queueName string, log *zap.Logger) *ActivityPersistWorker {
	if log == nil {
		log = zap.NewNop()
	}
	return &ActivityPersistWorker{
		conn:      conn,
		store:     store,
		queueName: queueName,
		log:       log.Named("activity_worker"),
	}
}

func (w *ActivityPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		return err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.log.Warn("delivery channel closed")
					return
				}
				if w.handle(workerCtx, d.Body) {
					_ = d.Ack(false)
				} else {
					_ = d.Nack(false, false)
				}
			}
		}
	}()

	w.log.Info("activity worker started", zap.String("queue", w.queueName))
	return nil
}

// handle persists one payload and reports whether it should be acked.
// Bad payloads and store failures are dropped rather than requeued.
func (w *ActivityPersistWorker) handle(ctx context.Context, body []byte) bool {
	event, err := rabbitmq.DecodeActivity(body)
	if err != nil {
		w.log.Warn("drop undecodable activity", zap.Error(err))
		metrics.ActivityPersisted.WithLabelValues("invalid").Inc()
		return false
	}
	if err := w.store.Create(ctx, &event); err != nil {
		w.log.Error("persist activity failed", zap.String("kind", string(event.Kind)), zap.Error(err))
		metrics.ActivityPersisted.WithLabelValues("failed").Inc()
		return false
	}
	metrics.ActivityPersisted.WithLabelValues("stored").Inc()
	return true
}

func (w *ActivityPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
