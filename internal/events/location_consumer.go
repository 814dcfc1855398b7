package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/application"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/kafka"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/proto/events"
)

// SampleTracker accepts location samples.
type SampleTracker interface {
	Track(sample application.LocationSample) (bool, error)
}

// LocationEventConsumer listens to device location events and feeds them to the tracker.
type LocationEventConsumer struct {
	consumer *kafka.Consumer
	tracker  SampleTracker
	logger   *zap.Logger
}

// NewLocationEventConsumer creates a new LocationEventConsumer reading topic.
func NewLocationEventConsumer(
	brokers []string,
	groupID string,
	topic string,
	tracker SampleTracker,
	logger *zap.Logger,
) *LocationEventConsumer {
	return NewLocationEventConsumerWithConsumer(kafka.NewConsumer(brokers, groupID, topic, logger), tracker, logger)
}

// NewLocationEventConsumerWithConsumer wraps an existing consumer.
func NewLocationEventConsumerWithConsumer(consumer *kafka.Consumer, tracker SampleTracker, logger *zap.Logger) *LocationEventConsumer {
	return &LocationEventConsumer{
		consumer: consumer,
		tracker:  tracker,
		logger:   logger,
	}
}

// Start begins consuming location events. This blocks until the context is cancelled.
func (c *LocationEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *LocationEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *LocationEventConsumer) handleMessage(_ context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from location topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.DeviceLocationReported:
		return c.handleLocationReported(cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled location event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *LocationEventConsumer) handleLocationReported(cloudEvent kafka.CloudEvent) error {
	var evt events.DeviceLocationEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse DeviceLocationEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	started, err := c.tracker.Track(application.LocationSample{
		DeviceID:   evt.DeviceID,
		Point:      route.GeoPoint{Latitude: evt.Latitude, Longitude: evt.Longitude},
		RecordedAt: evt.RecordedAt,
	})
	if err != nil {
		if domain.IsKind(err, domain.KindValidation) {
			c.logger.Warn("dropping invalid location sample",
				zap.String("device_id", evt.DeviceID),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	c.logger.Debug("location sample received",
		zap.String("device_id", evt.DeviceID),
		zap.Bool("fetch_started", started),
	)
	return nil
}
