package service

import (
	"context"
	"fmt"
	"marina/config"
	"marina/infras/kafka"
	"marina/infras/otel"
	"marina/internal/domains/notification/model"
	"marina/internal/domains/notification/repository"
	"marina/shared/constant"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultIntervalSeconds = 5
	defaultBatchSize       = 50
	defaultMaxAttempts     = 10

	headerEventType = "event_type"
	headerAudience  = "audience"
)

// Dispatcher drains the notification outbox into kafka.
type Dispatcher interface {
	Run(ctx context.Context)
	DispatchPending(ctx context.Context) (int, error)
}

type dispatcherImpl struct {
	outbox      repository.Outbox
	producer    kafka.Producer
	otel        otel.Otel
	topic       string
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func New(cfg *config.Config, outbox repository.Outbox, producer kafka.Producer, otel otel.Otel) Dispatcher {
	interval := cfg.Booking.Outbox.IntervalSeconds
	if interval <= 0 {
		interval = defaultIntervalSeconds
	}

	batchSize := cfg.Booking.Outbox.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	maxAttempts := cfg.Booking.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &dispatcherImpl{
		outbox:      outbox,
		producer:    producer,
		otel:        otel,
		topic:       cfg.Kafka.Topic.Notification,
		interval:    time.Duration(interval) * time.Second,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

// Run polls until ctx is cancelled.
func (d *dispatcherImpl) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	log.Info().Str("topic", d.topic).Dur("interval", d.interval).Msg("notification dispatcher started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notification dispatcher stopped")

			return
		case <-ticker.C:
			if _, err := d.DispatchPending(ctx); err != nil {
				log.Error().Err(err).Msg("failed to dispatch pending notifications")
			}
		}
	}
}

// DispatchPending publishes one batch and returns how many entries were delivered.
// A failed entry is retried on a later poll until it runs out of attempts.
func (d *dispatcherImpl) DispatchPending(ctx context.Context) (sent int, err error) {
	ctx, scope := d.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".DispatchPending")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	entries, err := d.outbox.GetPending(ctx, d.batchSize, d.maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending notifications: %w", err)
	}

	for _, entry := range entries {
		if d.publish(ctx, entry) {
			sent++
		}
	}

	scope.SetAttribute("notification.sent", sent)

	return sent, nil
}

func (d *dispatcherImpl) publish(ctx context.Context, entry model.OutboxEntry) bool {
	message := kafka.Message{
		Key:   entry.BookingID,
		Value: entry.Payload,
		Headers: map[string]string{
			headerEventType: string(entry.EventType),
			headerAudience:  string(entry.Audience),
		},
	}

	if err := d.producer.SendMessages(ctx, d.topic, message); err != nil {
		log.Error().Err(err).Str("id", entry.ID).Str("event", string(entry.EventType)).Msg("failed to publish notification")

		if markErr := d.outbox.MarkFailed(ctx, entry.ID, entry.Attempts+1, err.Error()); markErr != nil {
			log.Error().Err(markErr).Str("id", entry.ID).Msg("failed to record notification failure")
		}

		return false
	}

	if err := d.outbox.MarkDispatched(ctx, entry.ID); err != nil {
		log.Error().Err(err).Str("id", entry.ID).Msg("failed to mark notification dispatched")
	}

	return true
}
