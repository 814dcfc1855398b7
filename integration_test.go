//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/application"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/proto/events"
)

// TestDeviceLocation_ProducesRoute verifies that a DeviceLocationEvent on
// device.locations leads to a fetched route, a stored snapshot and a
// route.computed event on route.events.
func TestDeviceLocation_ProducesRoute(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stack := setupRoutingStack(t, ctx, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	// Start the consumer.
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	evt := events.DeviceLocationEvent{
		DeviceID:   "courier-42",
		Latitude:   38.5,
		Longitude:  -120.2,
		RecordedAt: time.Now().UTC(),
	}
	publishTestEvent(t, infra.KafkaBrokers, events.TopicDeviceLocations,
		"device-gateway", events.DeviceLocationReported, evt)

	// Assert: a snapshot is stored for the device.
	model := waitForDeviceSnapshot(t, infra.DB, "courier-42", 15*time.Second)
	assert.Equal(t, "ok", model.Outcome)
	assert.Equal(t, 3, model.PointCount)
	assert.Equal(t, referencePolyline, model.EncodedPolyline)
	assert.Equal(t, 38.5, model.OriginLat)

	// Assert: the tracker holds the route for the device.
	stack.Tracker.Wait()
	latest, ok := stack.Tracker.Latest("courier-42")
	require.True(t, ok)
	assert.Len(t, latest.Route.Points, 3)

	// Assert: RouteComputedEvent on route.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, events.TopicRouteEvents,
		events.RouteComputed, 15*time.Second)
	assert.Equal(t, "courier-42", ce.Subject)

	var computed events.RouteComputedEvent
	require.NoError(t, ce.ParseData(&computed))
	assert.Equal(t, model.ID, computed.RouteID)
	assert.Equal(t, referencePolyline, computed.EncodedPolyline)
}

// TestRouteHistory_PersistsAndReports exercises the history queries against PostgreSQL.
func TestRouteHistory_PersistsAndReports(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	ctx := context.Background()
	stack := setupRoutingStack(t, ctx, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	origin := route.GeoPoint{Latitude: 38.5, Longitude: -120.2}
	var first *application.RouteDTO
	for i := 0; i < 3; i++ {
		dto, err := stack.Service.ComputeRoute(ctx, application.ComputeRouteRequest{DeviceID: "van-1", Origin: origin})
		require.NoError(t, err)
		if first == nil {
			first = dto
		}
	}
	_, err := stack.Service.ComputeRoute(ctx, application.ComputeRouteRequest{Origin: origin})
	require.NoError(t, err)

	stored, err := stack.Service.GetRoute(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Points, stored.Points)

	routes, total, err := stack.Service.ListRoutes(ctx, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, routes, 2)

	page, err := stack.Service.ListDeviceRoutes(ctx, "van-1", 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Len(t, page.Items, 1)

	stats, err := stack.Service.GetRouteStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalRoutes)
	assert.EqualValues(t, 4, stats.ByOutcome["ok"])
}
