package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/application"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/kafka"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/proto/events"
)

type recordingTracker struct {
	samples []application.LocationSample
	err     error
}

func (r *recordingTracker) Track(s application.LocationSample) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	r.samples = append(r.samples, s)
	return true, nil
}

// drainingReader serves its messages, then cancels the consumer.
type drainingReader struct {
	msgs      []kafkago.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *drainingReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *drainingReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *drainingReader) Close() error { return nil }

func eventMessage(t *testing.T, offset int64, eventType string, data interface{}) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("device-gateway", eventType, data)
	require.NoError(t, err)
	b, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Offset: offset, Value: b}
}

func runConsumer(t *testing.T, tracker SampleTracker, msgs ...kafkago.Message) *drainingReader {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &drainingReader{msgs: msgs, cancel: cancel}
	logger := zaptest.NewLogger(t)
	consumer := NewLocationEventConsumerWithConsumer(
		kafka.NewConsumerWithReader(reader, events.TopicDeviceLocations, logger), tracker, logger)

	err := consumer.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, consumer.Close())
	return reader
}

func TestLocationConsumer_FeedsTracker(t *testing.T) {
	recorded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker := &recordingTracker{}

	reader := runConsumer(t, tracker,
		eventMessage(t, 1, events.DeviceLocationReported, events.DeviceLocationEvent{
			DeviceID: "dev-1", Latitude: 50.073658, Longitude: 14.41854, RecordedAt: recorded,
		}),
		eventMessage(t, 2, "device.battery.reported", map[string]int{"level": 80}),
		kafkago.Message{Offset: 3, Value: []byte("not json")},
		eventMessage(t, 4, events.DeviceLocationReported, "not an object"),
	)

	require.Len(t, tracker.samples, 1)
	sample := tracker.samples[0]
	assert.Equal(t, "dev-1", sample.DeviceID)
	assert.Equal(t, 50.073658, sample.Point.Latitude)
	assert.Equal(t, 14.41854, sample.Point.Longitude)
	assert.True(t, recorded.Equal(sample.RecordedAt))

	// Malformed and unknown messages are committed so they are not redelivered.
	assert.Equal(t, []int64{1, 2, 3, 4}, reader.committed)
}

func TestLocationConsumer_InvalidSampleIsDropped(t *testing.T) {
	tracker := &recordingTracker{err: domain.NewValidationError("point: out of range")}

	reader := runConsumer(t, tracker,
		eventMessage(t, 7, events.DeviceLocationReported, events.DeviceLocationEvent{DeviceID: "dev", Latitude: 95}),
	)

	assert.Equal(t, []int64{7}, reader.committed)
}

func TestLocationConsumer_TrackerFailureIsNotCommitted(t *testing.T) {
	tracker := &recordingTracker{err: errors.New("tracker stopped")}

	reader := runConsumer(t, tracker,
		eventMessage(t, 9, events.DeviceLocationReported, events.DeviceLocationEvent{DeviceID: "dev", Latitude: 1, Longitude: 2}),
	)

	assert.Empty(t, reader.committed)
}
