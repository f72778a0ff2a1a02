package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-platform/internal/db"
	"github.com/Leganyst/reservation-platform/internal/model"
	"github.com/Leganyst/reservation-platform/internal/repository"
)

type fixture struct {
	engine    *Engine
	db        *gorm.DB
	store     *repository.GormStore
	owner     Actor
	requester Actor
	other     Actor
	admin     Actor
	room      *model.Resource
	drill     *model.Resource
	base      time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	gdb, err := db.NewInMemory()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{
		db:    gdb,
		store: repository.NewGormStore(gdb),
		base:  time.Now().UTC().Add(72 * time.Hour).Truncate(time.Hour),
	}

	users := map[string]*model.User{
		"owner":     {Email: "owner@example.com", FirstName: "Anne", LastName: "Martin"},
		"requester": {Email: "paul@example.com", Username: "paul", ContactPhone: "0600000000"},
		"other":     {Email: "other@example.com", Username: "other"},
		"admin":     {Email: "admin@example.com", Username: "admin"},
	}
	for name, u := range users {
		if err := gdb.Create(u).Error; err != nil {
			t.Fatalf("create user %s: %v", name, err)
		}
	}
	f.owner = Actor{ID: users["owner"].ID, Role: RoleUser}
	f.requester = Actor{ID: users["requester"].ID, Role: RoleUser}
	f.other = Actor{ID: users["other"].ID, Role: RoleUser}
	f.admin = Actor{ID: users["admin"].ID, Role: RoleAdmin}

	f.room = &model.Resource{OwnerID: f.owner.ID, Name: "Salle Verte", Type: "room", Price: 50}
	f.drill = &model.Resource{OwnerID: f.owner.ID, Name: "Perceuse Bosch", Type: "equipment", Price: 30}
	for _, res := range []*model.Resource{f.room, f.drill} {
		if err := gdb.Create(res).Error; err != nil {
			t.Fatalf("create resource: %v", err)
		}
	}

	opts = append([]Option{WithRetryBackoff(0)}, opts...)
	f.engine = NewEngine(f.store, opts...)
	return f
}

// at — интервал [base+from, base+to) в часах.
func (f *fixture) at(from, to int) (time.Time, time.Time) {
	return f.base.Add(time.Duration(from) * time.Hour), f.base.Add(time.Duration(to) * time.Hour)
}

func (f *fixture) create(t *testing.T, actor Actor, res *model.Resource, from, to int) (*model.Reservation, error) {
	t.Helper()
	start, end := f.at(from, to)
	return f.engine.Create(context.Background(), actor, CreateRequest{ResourceID: res.ID, Start: start, End: end})
}

func (f *fixture) mustCreate(t *testing.T, actor Actor, res *model.Resource, from, to int) *model.Reservation {
	t.Helper()
	r, err := f.create(t, actor, res, from, to)
	if err != nil {
		t.Fatalf("create [%d,%d): %v", from, to, err)
	}
	return r
}

func TestCreate_PendingAndRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := f.at(0, 2)

	r, err := f.engine.Create(ctx, f.requester, CreateRequest{
		ResourceID:     f.room.ID,
		Start:          start.In(time.FixedZone("CET", 3600)),
		End:            end,
		RequesterEmail: "  snapshot@example.com ",
		Notes:          "projecteur",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Status != model.ReservationStatusPending {
		t.Fatalf("expected pending, got %s", r.Status)
	}
	if r.RequesterID != f.requester.ID || r.ResourceID != f.room.ID {
		t.Fatalf("unexpected ownership: %+v", r)
	}
	if r.RequesterEmail != "snapshot@example.com" {
		t.Fatalf("requester email must be trimmed, got %q", r.RequesterEmail)
	}
	if r.Resource == nil || r.Resource.Owner == nil || r.Requester == nil {
		t.Fatalf("created reservation must carry resource, owner and requester")
	}

	got, err := f.engine.Get(ctx, f.requester, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.StartsAt.Equal(start) || !got.EndsAt.Equal(end) {
		t.Fatalf("interval changed on round trip: %v..%v, want %v..%v", got.StartsAt, got.EndsAt, start, end)
	}
	if got.Status != model.ReservationStatusPending || got.Notes != "projecteur" {
		t.Fatalf("unexpected stored reservation: %+v", got)
	}
}

func TestCreate_BackToBackIntervalsDoNotConflict(t *testing.T) {
	f := newFixture(t)

	f.mustCreate(t, f.requester, f.room, 0, 2)
	f.mustCreate(t, f.requester, f.room, 2, 4)
	f.mustCreate(t, f.other, f.room, -2, 0)

	// тот же интервал на другом ресурсе свободен
	f.mustCreate(t, f.requester, f.drill, 0, 2)
}

func TestCreate_OverlapIsConflict(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, f.requester, f.room, 2, 4)

	cases := []struct {
		name     string
		from, to int
	}{
		{"identical", 2, 4},
		{"tail", 3, 5},
		{"head", 1, 3},
		{"inside", 2, 3},
		{"around", 0, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.create(t, f.other, f.room, tc.from, tc.to)
			if !errors.Is(err, ErrBookingConflict) {
				t.Fatalf("expected ErrBookingConflict, got %v", err)
			}
		})
	}

	var total int64
	f.db.Model(&model.Reservation{}).Count(&total)
	if total != 1 {
		t.Fatalf("conflicting requests must not be stored, got %d rows", total)
	}
}

func TestCreate_NonBlockingReservationsFreeTheSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rejected := f.mustCreate(t, f.requester, f.room, 0, 2)
	if _, err := f.engine.Reject(ctx, f.owner, rejected.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	canceled := f.mustCreate(t, f.requester, f.room, 0, 2)
	if _, err := f.engine.Cancel(ctx, f.requester, canceled.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	f.mustCreate(t, f.other, f.room, 1, 3)
}

func TestCreate_ConfirmedBlocks(t *testing.T) {
	f := newFixture(t)
	r := f.mustCreate(t, f.requester, f.room, 0, 2)
	if _, err := f.engine.Confirm(context.Background(), f.owner, r.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, err := f.create(t, f.other, f.room, 1, 2); !errors.Is(err, ErrBookingConflict) {
		t.Fatalf("confirmed reservation must block, got %v", err)
	}
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := f.at(0, 2)

	cases := []struct {
		name  string
		actor Actor
		req   CreateRequest
		want  error
	}{
		{"self booking", f.owner, CreateRequest{ResourceID: f.room.ID, Start: start, End: end}, ErrSelfBookingDenied},
		{"empty interval", f.requester, CreateRequest{ResourceID: f.room.ID, Start: start, End: start}, ErrInvalidInterval},
		{"reversed interval", f.requester, CreateRequest{ResourceID: f.room.ID, Start: end, End: start}, ErrInvalidInterval},
		{"zero time", f.requester, CreateRequest{ResourceID: f.room.ID, End: end}, ErrInvalidInterval},
		{"unknown resource", f.requester, CreateRequest{ResourceID: uuid.New(), Start: start, End: end}, ErrResourceNotFound},
		{"anonymous", Actor{}, CreateRequest{ResourceID: f.room.ID, Start: start, End: end}, ErrNotAuthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := f.engine.Create(ctx, tc.actor, tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if r != nil {
				t.Fatalf("no reservation expected on error")
			}
		})
	}

	var total int64
	f.db.Model(&model.Reservation{}).Count(&total)
	if total != 0 {
		t.Fatalf("rejected requests must not be stored, got %d rows", total)
	}
}

func TestCreate_ConcurrentOverlappingRequests(t *testing.T) {
	f := newFixture(t)
	start, end := f.at(0, 2)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := f.requester
			if i%2 == 1 {
				actor = f.other
			}
			_, err := f.engine.Create(context.Background(), actor, CreateRequest{
				ResourceID: f.room.ID,
				Start:      start.Add(time.Duration(i) * time.Minute),
				End:        end,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrBookingConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if ok != 1 || conflicts != n-1 {
		t.Fatalf("expected exactly one admission, got ok=%d conflicts=%d", ok, conflicts)
	}
}

func TestTransitions_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustCreate(t, f.requester, f.room, 0, 2)

	if _, err := f.engine.Confirm(ctx, f.requester, r.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("requester confirm: expected ErrNotAuthorized, got %v", err)
	}
	if _, err := f.engine.Reject(ctx, f.other, r.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("stranger reject: expected ErrNotAuthorized, got %v", err)
	}
	if _, err := f.engine.Cancel(ctx, f.owner, r.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("owner cancel: expected ErrNotAuthorized, got %v", err)
	}
	// админ не обходит правила жизненного цикла
	if _, err := f.engine.Confirm(ctx, f.admin, r.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("admin confirm: expected ErrNotAuthorized, got %v", err)
	}

	got, err := f.engine.Get(ctx, f.requester, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.ReservationStatusPending {
		t.Fatalf("failed transitions must not change status, got %s", got.Status)
	}
}

func TestTransitions_TerminalStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	confirmed := f.mustCreate(t, f.requester, f.room, 0, 2)
	u, err := f.engine.Confirm(ctx, f.owner, confirmed.ID)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if u.Status != model.ReservationStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", u.Status)
	}

	rejected := f.mustCreate(t, f.requester, f.room, 4, 6)
	if _, err := f.engine.Reject(ctx, f.owner, rejected.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	canceled := f.mustCreate(t, f.requester, f.room, 8, 10)
	if _, err := f.engine.Cancel(ctx, f.requester, canceled.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	for _, id := range []uuid.UUID{confirmed.ID, rejected.ID, canceled.ID} {
		if _, err := f.engine.Confirm(ctx, f.owner, id); !errors.Is(err, ErrInvalidStateTransition) {
			t.Fatalf("confirm %s: expected ErrInvalidStateTransition, got %v", id, err)
		}
		if _, err := f.engine.Reject(ctx, f.owner, id); !errors.Is(err, ErrInvalidStateTransition) {
			t.Fatalf("reject %s: expected ErrInvalidStateTransition, got %v", id, err)
		}
		if _, err := f.engine.Cancel(ctx, f.requester, id); !errors.Is(err, ErrInvalidStateTransition) {
			t.Fatalf("cancel %s: expected ErrInvalidStateTransition, got %v", id, err)
		}
	}

	// проверка прав идёт раньше проверки состояния
	if _, err := f.engine.Cancel(ctx, f.other, confirmed.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized before state check, got %v", err)
	}
}

func TestTransitions_ReservationNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()

	if _, err := f.engine.Confirm(ctx, f.owner, id); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("Confirm: expected ErrReservationNotFound, got %v", err)
	}
	if _, err := f.engine.Cancel(ctx, f.requester, id); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("Cancel: expected ErrReservationNotFound, got %v", err)
	}
	if _, err := f.engine.Get(ctx, f.requester, id); !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("Get: expected ErrReservationNotFound, got %v", err)
	}
}

func TestConfirm_RechecksAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustCreate(t, f.requester, f.room, 0, 2)
	// пересекающаяся заявка, записанная в обход движка
	start, end := f.at(1, 3)
	b := &model.Reservation{
		ResourceID:  f.room.ID,
		RequesterID: f.other.ID,
		StartsAt:    start,
		EndsAt:      end,
		Status:      model.ReservationStatusPending,
	}
	if err := f.db.Create(b).Error; err != nil {
		t.Fatalf("insert overlapping reservation: %v", err)
	}

	if _, err := f.engine.Confirm(ctx, f.owner, a.ID); !errors.Is(err, ErrBookingConflict) {
		t.Fatalf("expected ErrBookingConflict, got %v", err)
	}
	if _, err := f.engine.Reject(ctx, f.owner, b.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := f.engine.Confirm(ctx, f.owner, a.ID); err != nil {
		t.Fatalf("Confirm after rejecting the overlap: %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustCreate(t, f.requester, f.room, 0, 2)

	if _, err := f.engine.UpdateStatus(ctx, f.owner, r.ID, model.ReservationStatusPending); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("pending: expected ErrInvalidStateTransition, got %v", err)
	}
	if _, err := f.engine.UpdateStatus(ctx, f.owner, r.ID, model.ReservationStatusCanceled); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("canceled: expected ErrInvalidStateTransition, got %v", err)
	}
	if _, err := f.engine.UpdateStatus(ctx, f.owner, r.ID, "approved"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unknown: expected ErrInvalidArgument, got %v", err)
	}

	u, err := f.engine.UpdateStatus(ctx, f.owner, r.ID, model.ReservationStatusRejected)
	if err != nil {
		t.Fatalf("UpdateStatus rejected: %v", err)
	}
	if u.Status != model.ReservationStatusRejected {
		t.Fatalf("expected rejected, got %s", u.Status)
	}
}

func TestTransitions_AppendAuditEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustCreate(t, f.requester, f.room, 0, 2)
	if _, err := f.engine.Confirm(ctx, f.owner, r.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	events, err := f.store.Events().ListByReservation(ctx, r.ID)
	if err != nil {
		t.Fatalf("ListByReservation: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != model.EventTypeReservationCreated || events[0].ActorID != f.requester.ID {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].EventType != model.EventTypeReservationConfirmed || events[1].ActorID != f.owner.ID {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
}

func TestGet_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustCreate(t, f.requester, f.room, 0, 2)

	for name, actor := range map[string]Actor{"requester": f.requester, "owner": f.owner, "admin": f.admin} {
		if _, err := f.engine.Get(ctx, actor, r.ID); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	if _, err := f.engine.Get(ctx, f.other, r.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("stranger: expected ErrNotAuthorized, got %v", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.mustCreate(t, f.requester, f.room, 0, 2)

	start, end := f.at(1, 3)
	conflict, err := f.engine.CheckAvailability(ctx, f.room.ID, start, end)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if conflict == nil || conflict.ID != r.ID {
		t.Fatalf("expected conflict with %s, got %+v", r.ID, conflict)
	}

	start, end = f.at(2, 3)
	if conflict, err = f.engine.CheckAvailability(ctx, f.room.ID, start, end); err != nil || conflict != nil {
		t.Fatalf("adjacent interval must be free, got %+v, %v", conflict, err)
	}
	if _, err := f.engine.CheckAvailability(ctx, f.room.ID, end, start); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := f.engine.CheckAvailability(ctx, uuid.New(), start, end); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestWithRetry_RetriesStorageContention(t *testing.T) {
	f := newFixture(t)
	flaky := &flakyStore{Store: f.store, failures: 2}
	e := NewEngine(flaky, WithRetryBackoff(0), WithMaxRetries(3))

	start, end := f.at(0, 2)
	if _, err := e.Create(context.Background(), f.requester, CreateRequest{ResourceID: f.room.ID, Start: start, End: end}); err != nil {
		t.Fatalf("Create after transient failures: %v", err)
	}
	if flaky.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", flaky.calls)
	}

	flaky = &flakyStore{Store: f.store, failures: 10}
	e = NewEngine(flaky, WithRetryBackoff(0), WithMaxRetries(1))
	start, end = f.at(4, 6)
	_, err := e.Create(context.Background(), f.requester, CreateRequest{ResourceID: f.room.ID, Start: start, End: end})
	if err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if KindOf(err) != KindInternal || !repository.IsRetryable(err) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
	if flaky.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", flaky.calls)
	}
}

func TestWithRetry_DomainErrorsAreNotRetried(t *testing.T) {
	f := newFixture(t)
	counting := &flakyStore{Store: f.store}
	e := NewEngine(counting, WithRetryBackoff(0))

	start, end := f.at(0, 2)
	if _, err := e.Create(context.Background(), f.owner, CreateRequest{ResourceID: f.room.ID, Start: start, End: end}); !errors.Is(err, ErrSelfBookingDenied) {
		t.Fatalf("expected ErrSelfBookingDenied, got %v", err)
	}
	if counting.calls != 1 {
		t.Fatalf("domain errors must not be retried, got %d attempts", counting.calls)
	}
}

type flakyStore struct {
	repository.Store
	failures int
	calls    int
}

func (s *flakyStore) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.calls++
	if s.calls <= s.failures {
		return sqlite3.Error{Code: sqlite3.ErrBusy}
	}
	return s.Store.WithinTx(ctx, fn)
}
