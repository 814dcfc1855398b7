package application

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/domain/route"
	"github.com/Kilat-Pet-Delivery/service-routing/internal/kafka"
)

type stubFetcher struct {
	mu     sync.Mutex
	result route.Result
	specs  []route.RequestSpec
	ctxErr error
}

func (f *stubFetcher) Fetch(ctx context.Context, spec route.RequestSpec) route.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
	f.ctxErr = ctx.Err()
	if f.ctxErr != nil {
		return route.Failed(f.ctxErr)
	}
	return f.result
}

func (f *stubFetcher) calls() []route.RequestSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]route.RequestSpec(nil), f.specs...)
}

type memoryRepo struct {
	mu        sync.Mutex
	snapshots []*route.Snapshot
	saveErr   error
	saveCtx   context.Context
}

func (r *memoryRepo) Save(ctx context.Context, s *route.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCtx = ctx
	if r.saveErr != nil {
		return r.saveErr
	}
	r.snapshots = append(r.snapshots, s)
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*route.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.snapshots {
		if s.ID() == id {
			return s, nil
		}
	}
	return nil, domain.NewNotFoundError("Route", id.String())
}

func (r *memoryRepo) FindByDeviceID(_ context.Context, deviceID string, page, limit int) ([]*route.Snapshot, int64, error) {
	return r.page(func(s *route.Snapshot) bool { return s.DeviceID() == deviceID }, page, limit)
}

func (r *memoryRepo) ListAll(_ context.Context, page, limit int) ([]*route.Snapshot, int64, error) {
	return r.page(func(*route.Snapshot) bool { return true }, page, limit)
}

func (r *memoryRepo) CountByOutcome(context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, s := range r.snapshots {
		counts[string(s.Outcome())]++
	}
	return counts, nil
}

func (r *memoryRepo) page(match func(*route.Snapshot) bool, page, limit int) ([]*route.Snapshot, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*route.Snapshot
	for _, s := range r.snapshots {
		if match(s) {
			matched = append(matched, s)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt().After(matched[j].CreatedAt())
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []*route.Snapshot{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []kafka.CloudEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

var errStorage = errors.New("storage unavailable")
