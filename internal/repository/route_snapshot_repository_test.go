package repository

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
)

func TestSnapshotModelConversion(t *testing.T) {
	spec := route.RequestSpec{
		Origin:      route.GeoPoint{Latitude: 50.073658, Longitude: 14.41854},
		Destination: route.GeoPoint{Latitude: 50.087, Longitude: 14.421},
		Backend:     route.BackendRoutesV2,
	}
	result := route.Result{Points: []route.GeoPoint{spec.Origin, spec.Destination}}
	snap := route.NewSnapshot("device-1", spec, "abc", result)

	model := toSnapshotModel(snap)
	assert.Equal(t, "route_snapshots", model.TableName())
	assert.Equal(t, "routes_v2", model.Backend)
	assert.Equal(t, "ok", model.Outcome)
	assert.Equal(t, 2, model.PointCount)

	back := toDomainSnapshot(model)
	assert.Equal(t, snap.ID(), back.ID())
	assert.Equal(t, snap.Origin(), back.Origin())
	assert.Equal(t, snap.Destination(), back.Destination())
	assert.Equal(t, snap.Outcome(), back.Outcome())
	assert.Equal(t, snap.CreatedAt(), back.CreatedAt())
}

func TestSnapshotModel_TruncatesLongErrors(t *testing.T) {
	spec := route.RequestSpec{Backend: route.BackendLegacy}
	snap := route.NewSnapshot("", spec, "", route.Failed(errors.New(strings.Repeat("x", 1500))))

	model := toSnapshotModel(snap)
	assert.Len(t, model.ErrorMessage, 1000)
	assert.Equal(t, "unknown_error", model.Outcome)
}

func TestSnapshotModel_ErrorMessageStaysValidUTF8(t *testing.T) {
	spec := route.RequestSpec{Backend: route.BackendLegacy}
	msg := "upstream: " + strings.Repeat("é", 1200) + "\xff"
	snap := route.NewSnapshot("", spec, "", route.Failed(errors.New(msg)))

	model := toSnapshotModel(snap)
	assert.True(t, utf8.ValidString(model.ErrorMessage))
	assert.Equal(t, 1000, utf8.RuneCountInString(model.ErrorMessage))
	assert.True(t, strings.HasPrefix(model.ErrorMessage, "upstream: é"))
}

func TestTruncate_ReplacesInvalidBytes(t *testing.T) {
	assert.Equal(t, "ok\uFFFD", truncate("ok\xff", 1000))
	assert.Equal(t, "éé", truncate("ééé", 2))
}
