package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/citizen-request-service/internal/domain"
	"github.com/spec-kit/citizen-request-service/internal/events"
	"github.com/spec-kit/citizen-request-service/internal/repository"
)

// In-memory doubles for the repository interfaces. They reproduce the
// observable persistence contracts (pgx.ErrNoRows on unknown IDs, the
// updated_at guard, newest-first notification listing) without a database.

type fakeSequences struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newFakeSequences() *fakeSequences {
	return &fakeSequences{counters: map[string]int64{}}
}

func (f *fakeSequences) Next(_ context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[name]++
	return f.counters[name], nil
}

type fakeRequestRepo struct {
	mu             sync.Mutex
	requests       map[string]*domain.Request
	order          []string
	clock          time.Time
	failUpdateWith error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{
		requests: map[string]*domain.Request{},
		clock:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRequestRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeRequestRepo) Create(_ context.Context, request *domain.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	request.CreatedAt = now
	request.UpdatedAt = now
	clone := *request
	f.requests[request.ID] = &clone
	f.order = append(f.order, request.ID)
	return nil
}

func (f *fakeRequestRepo) Update(_ context.Context, request *domain.Request, expectedUpdatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdateWith != nil {
		err := f.failUpdateWith
		f.failUpdateWith = nil
		return err
	}
	stored, ok := f.requests[request.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !stored.UpdatedAt.Equal(expectedUpdatedAt) {
		return repository.ErrStaleUpdate
	}
	request.UpdatedAt = f.tick()
	clone := *request
	f.requests[request.ID] = &clone
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (f *fakeRequestRepo) ListWithFilter(_ context.Context, filter repository.RequestFilter) ([]domain.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Request
	for _, id := range f.order {
		request := f.requests[id]
		if request.Archived && !filter.IncludeArchived {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, request.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, request.Priority) {
			continue
		}
		if filter.AssignedAgentID != nil {
			if request.AssignedAgent == nil || *request.AssignedAgent != *filter.AssignedAgentID {
				continue
			}
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(request.Subject), needle) &&
				!strings.Contains(strings.ToLower(request.Description), needle) &&
				!strings.Contains(strings.ToLower(request.ID), needle) &&
				!strings.Contains(strings.ToLower(request.Citizen.Name), needle) {
				continue
			}
		}
		out = append(out, *request)
	}
	return out, nil
}

func (f *fakeRequestRepo) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.requests[id]
	return ok, nil
}

func containsStatus(list []domain.RequestStatus, status domain.RequestStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.RequestPriority, priority domain.RequestPriority) bool {
	for _, p := range list {
		if p == priority {
			return true
		}
	}
	return false
}

type fakeAgentRepo struct {
	mu     sync.Mutex
	agents map[string]*domain.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: map[string]*domain.Agent{}}
}

func (f *fakeAgentRepo) Create(_ context.Context, agent *domain.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *agent
	f.agents[agent.ID] = &clone
	return nil
}

func (f *fakeAgentRepo) Update(_ context.Context, agent *domain.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.agents[agent.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *agent
	f.agents[agent.ID] = &clone
	return nil
}

func (f *fakeAgentRepo) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agent, ok := f.agents[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *agent
	return &clone, nil
}

func (f *fakeAgentRepo) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, agent := range f.agents {
		if agent.Email == email {
			clone := *agent
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAgentRepo) List(_ context.Context, _ repository.AgentFilter) ([]domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Agent, 0, len(f.agents))
	for _, agent := range f.agents {
		out = append(out, *agent)
	}
	return out, nil
}

type fakeCourierRepo struct {
	mu       sync.Mutex
	couriers map[string]*domain.Courier
	order    []string
}

func newFakeCourierRepo() *fakeCourierRepo {
	return &fakeCourierRepo{couriers: map[string]*domain.Courier{}}
}

func (f *fakeCourierRepo) Create(_ context.Context, courier *domain.Courier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *courier
	f.couriers[courier.ID] = &clone
	f.order = append(f.order, courier.ID)
	return nil
}

func (f *fakeCourierRepo) Update(_ context.Context, courier *domain.Courier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.couriers[courier.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *courier
	f.couriers[courier.ID] = &clone
	return nil
}

func (f *fakeCourierRepo) GetByID(_ context.Context, id string) (*domain.Courier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	courier, ok := f.couriers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *courier
	return &clone, nil
}

func (f *fakeCourierRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.couriers[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.couriers, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeCourierRepo) ListWithFilter(_ context.Context, filter repository.CourierFilter) ([]domain.Courier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Courier
	for _, id := range f.order {
		courier := f.couriers[id]
		if len(filter.Statuts) > 0 && !containsCourierStatus(filter.Statuts, courier.Statut) {
			continue
		}
		out = append(out, *courier)
	}
	return out, nil
}

func (f *fakeCourierRepo) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.couriers[id]
	return ok, nil
}

func containsCourierStatus(list []domain.CourierStatus, status domain.CourierStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

type fakeAudienceRepo struct {
	mu        sync.Mutex
	audiences map[string]*domain.Audience
	order     []string
}

func newFakeAudienceRepo() *fakeAudienceRepo {
	return &fakeAudienceRepo{audiences: map[string]*domain.Audience{}}
}

func (f *fakeAudienceRepo) Create(_ context.Context, audience *domain.Audience) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *audience
	f.audiences[audience.ID] = &clone
	f.order = append(f.order, audience.ID)
	return nil
}

func (f *fakeAudienceRepo) Update(_ context.Context, audience *domain.Audience) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.audiences[audience.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *audience
	f.audiences[audience.ID] = &clone
	return nil
}

func (f *fakeAudienceRepo) GetByID(_ context.Context, id string) (*domain.Audience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	audience, ok := f.audiences[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *audience
	return &clone, nil
}

func (f *fakeAudienceRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.audiences[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.audiences, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAudienceRepo) ListWithFilter(_ context.Context, filter repository.AudienceFilter) ([]domain.Audience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Audience
	for _, id := range f.order {
		audience := f.audiences[id]
		if len(filter.Statuses) > 0 && !containsAudienceStatus(filter.Statuses, audience.Status) {
			continue
		}
		out = append(out, *audience)
	}
	return out, nil
}

func (f *fakeAudienceRepo) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.audiences[id]
	return ok, nil
}

func containsAudienceStatus(list []domain.AudienceStatus, status domain.AudienceStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

type fakeLinkRepo struct {
	mu    sync.Mutex
	links []domain.Link
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{}
}

func (f *fakeLinkRepo) Link(_ context.Context, link *domain.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.links {
		if existing.RequestID == link.RequestID && existing.Kind == link.Kind && existing.EntityID == link.EntityID {
			return nil
		}
	}
	f.links = append(f.links, *link)
	return nil
}

func (f *fakeLinkRepo) Unlink(_ context.Context, requestID string, kind domain.LinkKind, entityID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.links {
		if existing.RequestID == requestID && existing.Kind == kind && existing.EntityID == entityID {
			f.links = append(f.links[:i], f.links[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeLinkRepo) ListByRequest(_ context.Context, requestID string) ([]domain.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Link
	for _, link := range f.links {
		if link.RequestID == requestID {
			out = append(out, link)
		}
	}
	return out, nil
}

func (f *fakeLinkRepo) ListByEntity(_ context.Context, kind domain.LinkKind, entityID string) ([]domain.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Link
	for _, link := range f.links {
		if link.Kind == kind && link.EntityID == entityID {
			out = append(out, link)
		}
	}
	return out, nil
}

func (f *fakeLinkRepo) EntityLinked(_ context.Context, kind domain.LinkKind, entityID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, link := range f.links {
		if link.Kind == kind && link.EntityID == entityID {
			return true, nil
		}
	}
	return false, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	entries []domain.Notification
	clock   time.Time
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Second)
	notification.CreatedAt = f.clock
	f.entries = append(f.entries, *notification)
	return nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, entry := range f.entries {
		if entry.ID == id {
			clone := entry
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == id {
			f.entries[i].IsRead = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, parentKind domain.ParentKind, parentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ParentKind == parentKind && f.entries[i].ParentID == parentID {
			f.entries[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) ListByParent(_ context.Context, parentKind domain.ParentKind, parentID string) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].ParentKind == parentKind && f.entries[i].ParentID == parentID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{}
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *recordingDispatcher) ofType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
