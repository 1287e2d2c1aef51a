package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"stagholme/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeEventRepo is an in-memory ScheduledEventRepository for tests.
type fakeEventRepo struct {
	byID      map[string]*domain.ScheduledEvent
	order     []string
	nextID    int
	saves     int
	createErr error
	saveErr   error
	findErr   error
	getErr    error
	// honorCtx makes Save fail with ctx.Err() like a real driver.
	honorCtx bool
	// blockFind makes FindPending wait for ctx to end.
	blockFind bool
}

func newFakeEventRepo(events ...*domain.ScheduledEvent) *fakeEventRepo {
	f := &fakeEventRepo{byID: make(map[string]*domain.ScheduledEvent), nextID: 1}
	for _, e := range events {
		f.put(e)
	}
	return f
}

func (f *fakeEventRepo) put(e *domain.ScheduledEvent) {
	if e.ID == "" {
		e.ID = fmt.Sprintf("ev-%d", f.nextID)
		f.nextID++
	}
	if _, ok := f.byID[e.ID]; !ok {
		f.order = append(f.order, e.ID)
	}
	f.byID[e.ID] = e
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.ScheduledEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	if err := e.Validate(); err != nil {
		return err
	}
	e.ID = ""
	f.put(e)
	return nil
}

func (f *fakeEventRepo) Save(ctx context.Context, e *domain.ScheduledEvent) error {
	if f.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	f.saves++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.ScheduledEvent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) FindPending(ctx context.Context) ([]*domain.ScheduledEvent, error) {
	if f.blockFind {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []*domain.ScheduledEvent
	for _, id := range f.order {
		e := f.byID[id]
		if e.Status == domain.EventStatusPending && e.DispatchMode == domain.DispatchModeSweep {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) List(ctx context.Context, params domain.PaginationParams) ([]*domain.ScheduledEvent, int, error) {
	var out []*domain.ScheduledEvent
	for _, id := range f.order {
		out = append(out, f.byID[id])
	}
	total := len(out)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)
	return out[start:end], total, nil
}

// fakeTrackingRepo stores copies so tests observe exactly what was persisted.
type fakeTrackingRepo struct {
	byEvent map[string]domain.InvitationTracking
	saves    int
	getErr   error
	saveErr  error
	honorCtx bool
	blockGet bool
}

func newFakeTrackingRepo() *fakeTrackingRepo {
	return &fakeTrackingRepo{byEvent: make(map[string]domain.InvitationTracking)}
}

func (f *fakeTrackingRepo) GetByEventID(ctx context.Context, eventID string) (*domain.InvitationTracking, error) {
	if f.blockGet {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.byEvent[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	t.Processed = slices.Clone(t.Processed)
	return &t, nil
}

func (f *fakeTrackingRepo) Save(ctx context.Context, t *domain.InvitationTracking) error {
	if f.honorCtx && ctx.Err() != nil {
		return ctx.Err()
	}
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	if t.ID == "" {
		t.ID = "tr-" + t.EventID
	}
	cp := *t
	cp.Processed = slices.Clone(t.Processed)
	f.byEvent[t.EventID] = cp
	return nil
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	users []*domain.User
	err   error
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) ListActive(ctx context.Context) ([]*domain.User, error) {
	return f.ListActiveCreatedAfter(ctx, time.Time{})
}

func (f *fakeUserRepo) ListActiveCreatedAfter(ctx context.Context, ts time.Time) ([]*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.User
	for _, u := range f.users {
		if u.Active && u.CreatedAt.After(ts) {
			out = append(out, u)
		}
	}
	slices.SortFunc(out, func(a, b *domain.User) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

// fakeEmailService records invitations and fails for addresses in failFor.
type fakeEmailService struct {
	mu      sync.Mutex
	sent    []*domain.EventInvitationEmailData
	failFor map[string]error
	// afterSend runs after a successful delivery, outside the lock.
	afterSend func(email string)
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{failFor: make(map[string]error)}
}

func (f *fakeEmailService) SendEventInvitation(ctx context.Context, data *domain.EventInvitationEmailData) error {
	f.mu.Lock()
	if err, ok := f.failFor[data.Email]; ok {
		f.mu.Unlock()
		return err
	}
	f.sent = append(f.sent, data)
	hook := f.afterSend
	f.mu.Unlock()
	if hook != nil {
		hook(data.Email)
	}
	return nil
}

func (f *fakeEmailService) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, d := range f.sent {
		out = append(out, d.Email)
	}
	slices.Sort(out)
	return out
}

func (f *fakeEmailService) countFor(email string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.sent {
		if d.Email == email {
			n++
		}
	}
	return n
}

type fakeCalendarBuilder struct {
	err      error
	panicFor string
}

func (f *fakeCalendarBuilder) Build(invite domain.CalendarInvite) ([]byte, error) {
	if f.panicFor != "" && invite.Attendee.Email == f.panicFor {
		panic("nil organizer")
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte("BEGIN:VCALENDAR\r\nATTENDEE:mailto:" + invite.Attendee.Email + "\r\nEND:VCALENDAR\r\n"), nil
}

func newTestDispatcher(emails domain.EmailService) *InvitationDispatcher {
	return NewInvitationDispatcher(&fakeCalendarBuilder{}, emails, DispatcherConfig{SendTimeout: time.Second, SendConcurrency: 4}, testLogger)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
