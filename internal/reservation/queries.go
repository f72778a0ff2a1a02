package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/reservation-platform/internal/calendar"
	"github.com/Leganyst/reservation-platform/internal/model"
	"github.com/Leganyst/reservation-platform/internal/repository"
)

// ListQuery — фильтр списков броней.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Status model.ReservationStatus
}

func (q ListQuery) filter() (repository.ReservationFilter, error) {
	if q.Status != "" && !q.Status.Valid() {
		return repository.ReservationFilter{}, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, q.Status)
	}
	if q.Page < 0 || q.Limit < 0 {
		return repository.ReservationFilter{}, fmt.Errorf("%w: page and limit must be positive", ErrInvalidArgument)
	}
	return repository.ReservationFilter{
		Status: q.Status,
		Search: q.Search,
		Page:   calendar.PageRequest{Page: q.Page, Limit: q.Limit},
	}, nil
}

// ListMade — брони, сделанные актором (сторона заявителя).
func (e *Engine) ListMade(ctx context.Context, actor Actor, q ListQuery) (calendar.Page[model.Reservation], error) {
	if err := actor.validate(); err != nil {
		return calendar.Page[model.Reservation]{}, err
	}
	f, err := q.filter()
	if err != nil {
		return calendar.Page[model.Reservation]{}, err
	}
	items, total, err := e.store.Reservations().ListByRequester(ctx, actor.ID, f)
	if err != nil {
		return calendar.Page[model.Reservation]{}, fmt.Errorf("list made: %w", err)
	}
	return calendar.NewPage(items, f.Page, total), nil
}

// ListReceived — брони на ресурсы актора (сторона владельца).
func (e *Engine) ListReceived(ctx context.Context, actor Actor, q ListQuery) (calendar.Page[model.Reservation], error) {
	if err := actor.validate(); err != nil {
		return calendar.Page[model.Reservation]{}, err
	}
	f, err := q.filter()
	if err != nil {
		return calendar.Page[model.Reservation]{}, err
	}
	items, total, err := e.store.Reservations().ListByOwner(ctx, actor.ID, f)
	if err != nil {
		return calendar.Page[model.Reservation]{}, fmt.Errorf("list received: %w", err)
	}
	return calendar.NewPage(items, f.Page, total), nil
}

// Brief — краткая карточка брони для дашборда.
type Brief struct {
	ID           uuid.UUID
	ResourceName string
	Start        time.Time
	Status       model.ReservationStatus
}

func briefOf(r *model.Reservation) *Brief {
	if r == nil {
		return nil
	}
	b := &Brief{ID: r.ID, Start: r.StartsAt, Status: r.Status}
	if r.Resource != nil {
		b.ResourceName = r.Resource.Name
	}
	return b
}

// DashboardSummary — сводка пользователя: как владельца и как заявителя.
type DashboardSummary struct {
	MyResourceCount      int64
	PendingApprovalCount int64
	MyReservationsCount  int64
	NextReservationMade  *Brief
	NextPendingApproval  *Brief
}

func (e *Engine) Dashboard(ctx context.Context, actor Actor) (*DashboardSummary, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	now := e.now().UTC()
	resources := e.store.Resources()
	reservations := e.store.Reservations()

	var (
		out DashboardSummary
		err error
	)
	if out.MyResourceCount, err = resources.CountByOwner(ctx, actor.ID); err != nil {
		return nil, fmt.Errorf("dashboard: count resources: %w", err)
	}
	if out.PendingApprovalCount, err = reservations.CountByOwnerAndStatus(ctx, actor.ID, model.ReservationStatusPending); err != nil {
		return nil, fmt.Errorf("dashboard: count pending: %w", err)
	}

	next, err := reservations.NextByOwner(ctx, actor.ID, model.ReservationStatusPending, now)
	if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("dashboard: next pending: %w", err)
	}
	out.NextPendingApproval = briefOf(next)

	made, err := reservations.NextByRequester(ctx, actor.ID, now)
	if err != nil && !repository.IsNotFound(err) {
		return nil, fmt.Errorf("dashboard: next made: %w", err)
	}
	out.NextReservationMade = briefOf(made)

	if out.MyReservationsCount, err = reservations.CountUpcomingByRequester(ctx, actor.ID, now, model.BlockingStatuses); err != nil {
		return nil, fmt.Errorf("dashboard: count upcoming: %w", err)
	}

	return &out, nil
}

// AdminMetrics — глобальная статистика платформы.
type AdminMetrics struct {
	UsersTotal               int64
	ResourcesTotal           int64
	ResourcesLastWeek        int64
	ResourcesByType          []repository.TypeCount
	ReservationsTotal        int64
	ReservationsPending      int64
	ReservationsConfirmed    int64
	RecentReservations       []model.Reservation
	PotentialConfirmedIncome float64
}

const recentReservationsLimit = 5

// AdminMetrics доступны только актору с ролью admin.
func (e *Engine) AdminMetrics(ctx context.Context, actor Actor) (*AdminMetrics, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", ErrNotAuthorized)
	}

	weekAgo := e.now().UTC().AddDate(0, 0, -7)
	var (
		out AdminMetrics
		err error
	)
	if out.UsersTotal, err = e.store.Users().Count(ctx); err != nil {
		return nil, fmt.Errorf("admin metrics: users: %w", err)
	}
	if out.ResourcesTotal, err = e.store.Resources().Count(ctx); err != nil {
		return nil, fmt.Errorf("admin metrics: resources: %w", err)
	}
	if out.ResourcesLastWeek, err = e.store.Resources().CountCreatedSince(ctx, weekAgo); err != nil {
		return nil, fmt.Errorf("admin metrics: recent resources: %w", err)
	}
	if out.ResourcesByType, err = e.store.Resources().CountByType(ctx); err != nil {
		return nil, fmt.Errorf("admin metrics: resource types: %w", err)
	}
	if out.ReservationsTotal, err = e.store.Reservations().Count(ctx); err != nil {
		return nil, fmt.Errorf("admin metrics: reservations: %w", err)
	}

	byStatus, err := e.store.Reservations().CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin metrics: by status: %w", err)
	}
	for _, sc := range byStatus {
		switch sc.Status {
		case model.ReservationStatusPending:
			out.ReservationsPending = sc.Count
		case model.ReservationStatusConfirmed:
			out.ReservationsConfirmed = sc.Count
		}
	}

	if out.RecentReservations, err = e.store.Reservations().ListRecent(ctx, recentReservationsLimit); err != nil {
		return nil, fmt.Errorf("admin metrics: recent reservations: %w", err)
	}
	if out.PotentialConfirmedIncome, err = e.store.Reservations().SumConfirmedPrice(ctx); err != nil {
		return nil, fmt.Errorf("admin metrics: income: %w", err)
	}

	return &out, nil
}
