package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const batchSize = 100

// Worker drains unpublished outbox rows to Kafka. Rows are marked published
// only after the broker acknowledges them, so a crash between produce and
// mark yields at-least-once delivery; consumers dedupe on the event ID.
type Worker struct {
	store        Store
	client       *kgo.Client
	topic        string
	pollInterval time.Duration
	logger       *slog.Logger
}

func NewWorker(store Store, client *kgo.Client, topic string, pollInterval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		store:        store,
		client:       client,
		topic:        topic,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// EnsureTopic creates the notification topic if it does not exist yet.
func (w *Worker) EnsureTopic(ctx context.Context) error {
	adm := kadm.NewClient(w.client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, w.topic)
	if err != nil {
		return err
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return resp.Err
	}
	return nil
}

// Run polls until the context is cancelled. Publish failures are logged and
// retried on the next tick; rows stay unpublished until acknowledged.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	events, err := w.store.ListUnpublished(ctx, batchSize)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		records = append(records, &kgo.Record{
			Topic: w.topic,
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
		})
	}
	if err := w.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return err
	}

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	if err := w.store.MarkPublished(ctx, ids); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "outbox events published", "count", len(ids))
	return nil
}
