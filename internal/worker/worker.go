package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"notification_feed/internal/logger"
	"notification_feed/internal/metrics"
	"notification_feed/internal/models"
	"notification_feed/internal/queue"
)

// Saver persists notifications created from queue events.
type Saver interface {
	SaveNotification(ctx context.Context, ev models.NotificationEvent) (int64, error)
}

type Worker struct {
	store   Saver
	metrics *metrics.Metrics
}

func NewWorker(store Saver, m *metrics.Metrics) *Worker {
	return &Worker{store: store, metrics: m}
}

// HandleTask stores one NotificationEvent. Malformed events are reported as
// permanent failures so the queue drops them instead of redelivering.
func (w *Worker) HandleTask(ctx context.Context, body []byte) error {
	err := w.handle(ctx, body)
	w.metrics.ObserveEvent(err)
	return err
}

func (w *Worker) handle(ctx context.Context, body []byte) error {
	log := logger.Component("worker")

	var ev models.NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Warnf("Decode event failed: %v", err)
		return queue.Permanent(fmt.Errorf("decode event: %w", err))
	}
	if ev.Message == "" || ev.Link == "" {
		log.Warn("Event without message or link")
		return queue.Permanent(errors.New("event requires message and link"))
	}

	id, err := w.store.SaveNotification(ctx, ev)
	if err != nil {
		log.Errorf("Save notification failed: %v", err)
		return err
	}

	log.WithField("id", id).Info("Notification stored")
	return nil
}
