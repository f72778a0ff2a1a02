package reservation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Leganyst/reservation-platform/internal/calendar"
	"github.com/Leganyst/reservation-platform/internal/model"
	"github.com/Leganyst/reservation-platform/internal/repository"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 20 * time.Millisecond
	notifyTimeout       = 5 * time.Second
)

// CreateRequest — уже провалидированная транспортом заявка на бронь.
type CreateRequest struct {
	ResourceID       uuid.UUID
	Start            time.Time
	End              time.Time
	RequesterName    string
	RequesterEmail   string
	RequesterContact string
	Notes            string
}

// Engine — жизненный цикл брони: допуск, подтверждение, отклонение, отмена.
// Проверка доступности и запись выполняются в одной транзакции под
// блокировкой строки ресурса, поэтому две пересекающиеся заявки не могут
// пройти одновременно.
type Engine struct {
	store      repository.Store
	notifier   Notifier
	log        logr.Logger
	now        func() time.Time
	maxRetries int
	backoff    time.Duration
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

func WithLogger(l logr.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMaxRetries — сколько раз повторять транзакцию при конфликте сериализации.
func WithMaxRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

func WithRetryBackoff(d time.Duration) Option {
	return func(e *Engine) { e.backoff = d }
}

func NewEngine(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		notifier:   NopNotifier{},
		log:        logr.Discard(),
		now:        func() time.Time { return time.Now().UTC() },
		maxRetries: defaultMaxRetries,
		backoff:    defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithName("reservation-engine")
	return e
}

// Create допускает новую заявку в статусе PENDING.
func (e *Engine) Create(ctx context.Context, actor Actor, req CreateRequest) (*model.Reservation, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}

	// 1. Валидация интервала.
	iv, err := calendar.NewInterval(req.Start, req.End)
	if err == nil {
		iv, err = iv.UTC()
	}
	if err != nil {
		return nil, ErrInvalidInterval
	}

	var created *model.Reservation
	err = e.withRetry(ctx, "create", func() error {
		return e.store.WithinTx(ctx, func(tx repository.Tx) error {
			// 2. Ресурс под блокировкой: заявки на один ресурс идут по очереди.
			res, err := tx.Resources().LockByID(ctx, req.ResourceID)
			if err != nil {
				if repository.IsNotFound(err) {
					return fmt.Errorf("%w: %s", ErrResourceNotFound, req.ResourceID)
				}
				return err
			}

			// 3. Нельзя бронировать собственный ресурс.
			if res.OwnerID == actor.ID {
				return ErrSelfBookingDenied
			}

			// 4. Проверка доступности.
			conflict, err := FindBlockingConflict(ctx, tx.Reservations(), res.ID, iv, nil)
			if err != nil {
				return err
			}
			if conflict != nil {
				return fmt.Errorf("%w: overlaps reservation %s", ErrBookingConflict, conflict.ID)
			}

			// 5. Запись в статусе PENDING.
			r := &model.Reservation{
				ResourceID:       res.ID,
				RequesterID:      actor.ID,
				StartsAt:         iv.Start(),
				EndsAt:           iv.End(),
				Status:           model.ReservationStatusPending,
				RequesterName:    strings.TrimSpace(req.RequesterName),
				RequesterEmail:   strings.TrimSpace(req.RequesterEmail),
				RequesterContact: strings.TrimSpace(req.RequesterContact),
				Notes:            req.Notes,
			}
			if err := tx.Reservations().Create(ctx, r); err != nil {
				if repository.IsOverlapViolation(err) {
					return ErrBookingConflict
				}
				return err
			}

			if err := e.appendEvent(ctx, tx, model.EventTypeReservationCreated, actor, r, ""); err != nil {
				return err
			}

			created = r
			return nil
		})
	})
	if err != nil {
		e.logFailure("create", err, "resourceID", req.ResourceID, "actorID", actor.ID)
		return nil, err
	}

	e.log.Info("reservation created",
		"reservationID", created.ID,
		"resourceID", created.ResourceID,
		"requesterID", created.RequesterID,
		"start", created.StartsAt,
		"end", created.EndsAt,
	)

	full := e.reload(ctx, created)

	// 6. Уведомления (best-effort).
	owner, requester, res := participants(full)
	e.notify(ctx, "new_request", full.ID, func(ctx context.Context) error {
		return e.notifier.OnNewRequest(ctx, owner, requester, full, res)
	})
	e.notify(ctx, "request_acknowledged", full.ID, func(ctx context.Context) error {
		return e.notifier.OnRequestAcknowledged(ctx, requester, full, res)
	})

	return full, nil
}

// Confirm: PENDING → CONFIRMED, только владелец ресурса.
func (e *Engine) Confirm(ctx context.Context, actor Actor, id uuid.UUID) (*model.Reservation, error) {
	return e.transition(ctx, actor, id, model.ReservationStatusConfirmed)
}

// Reject: PENDING → REJECTED, только владелец ресурса.
func (e *Engine) Reject(ctx context.Context, actor Actor, id uuid.UUID) (*model.Reservation, error) {
	return e.transition(ctx, actor, id, model.ReservationStatusRejected)
}

// Cancel: PENDING → CANCELED, только заявитель.
func (e *Engine) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*model.Reservation, error) {
	return e.transition(ctx, actor, id, model.ReservationStatusCanceled)
}

// UpdateStatus — решение владельца по заявке: confirmed или rejected.
// Отмена идёт только через Cancel от имени заявителя.
func (e *Engine) UpdateStatus(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	status model.ReservationStatus,
) (*model.Reservation, error) {
	switch status {
	case model.ReservationStatusConfirmed, model.ReservationStatusRejected:
		return e.transition(ctx, actor, id, status)
	case model.ReservationStatusPending, model.ReservationStatusCanceled:
		return nil, fmt.Errorf("%w: owner cannot set status %s", ErrInvalidStateTransition, status)
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, status)
	}
}

func (e *Engine) transition(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	target model.ReservationStatus,
) (*model.Reservation, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}

	var (
		updated *model.Reservation
		from    model.ReservationStatus
	)
	op := string(target)
	err := e.withRetry(ctx, op, func() error {
		return e.store.WithinTx(ctx, func(tx repository.Tx) error {
			r, err := tx.Reservations().GetByID(ctx, id)
			if err != nil {
				if repository.IsNotFound(err) {
					return fmt.Errorf("%w: %s", ErrReservationNotFound, id)
				}
				return err
			}

			// Блокируем ресурс и перечитываем бронь: параллельный переход
			// по тому же ресурсу мог успеть изменить статус.
			res, err := tx.Resources().LockByID(ctx, r.ResourceID)
			if err != nil {
				return err
			}
			if r, err = tx.Reservations().GetByID(ctx, id); err != nil {
				return err
			}

			if err := authorizeTransition(actor, r, res, target); err != nil {
				return err
			}
			if r.Status != model.ReservationStatusPending {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, r.Status, target)
			}

			if target == model.ReservationStatusConfirmed {
				iv, err := calendar.NewInterval(r.StartsAt, r.EndsAt)
				if err != nil {
					return ErrInvalidInterval
				}
				conflict, err := FindBlockingConflict(ctx, tx.Reservations(), r.ResourceID, iv, &r.ID)
				if err != nil {
					return err
				}
				if conflict != nil {
					return fmt.Errorf("%w: overlaps reservation %s", ErrBookingConflict, conflict.ID)
				}
			}

			from = r.Status
			u, err := tx.Reservations().UpdateStatus(ctx, r.ID, target)
			if err != nil {
				if repository.IsOverlapViolation(err) {
					return ErrBookingConflict
				}
				return err
			}

			if err := e.appendEvent(ctx, tx, eventTypeFor(target), actor, u, from); err != nil {
				return err
			}

			updated = u
			return nil
		})
	})
	if err != nil {
		e.logFailure(op, err, "reservationID", id, "actorID", actor.ID)
		return nil, err
	}

	e.log.Info("reservation status changed",
		"reservationID", updated.ID,
		"resourceID", updated.ResourceID,
		"from", from,
		"to", updated.Status,
		"actorID", actor.ID,
	)

	owner, requester, res := participants(updated)
	switch target {
	case model.ReservationStatusConfirmed, model.ReservationStatusRejected:
		e.notify(ctx, "status_changed", updated.ID, func(ctx context.Context) error {
			return e.notifier.OnStatusChanged(ctx, requester, updated, res, target)
		})
	case model.ReservationStatusCanceled:
		e.notify(ctx, "canceled", updated.ID, func(ctx context.Context) error {
			return e.notifier.OnCanceled(ctx, owner, requester, updated, res)
		})
	}

	return updated, nil
}

// Get возвращает бронь заявителю, владельцу ресурса или администратору.
func (e *Engine) Get(ctx context.Context, actor Actor, id uuid.UUID) (*model.Reservation, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	r, err := e.store.Reservations().GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrReservationNotFound, id)
		}
		return nil, err
	}
	if actor.IsAdmin() || r.RequesterID == actor.ID || (r.Resource != nil && r.Resource.OwnerID == actor.ID) {
		return r, nil
	}
	return nil, ErrNotAuthorized
}

// CheckAvailability сообщает, свободен ли интервал на ресурсе прямо сейчас.
// Результат — подсказка для клиента; гарантию даёт только Create.
func (e *Engine) CheckAvailability(
	ctx context.Context,
	resourceID uuid.UUID,
	start, end time.Time,
) (*model.Reservation, error) {
	iv, err := calendar.NewInterval(start, end)
	if err == nil {
		iv, err = iv.UTC()
	}
	if err != nil {
		return nil, ErrInvalidInterval
	}
	if _, err := e.store.Resources().GetByID(ctx, resourceID); err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, resourceID)
		}
		return nil, err
	}
	return FindBlockingConflict(ctx, e.store.Reservations(), resourceID, iv, nil)
}

func authorizeTransition(actor Actor, r *model.Reservation, res *model.Resource, target model.ReservationStatus) error {
	switch target {
	case model.ReservationStatusConfirmed, model.ReservationStatusRejected:
		if res.OwnerID != actor.ID {
			return fmt.Errorf("%w: only the resource owner can %s", ErrNotAuthorized, verb(target))
		}
	case model.ReservationStatusCanceled:
		if r.RequesterID != actor.ID {
			return fmt.Errorf("%w: only the requester can cancel", ErrNotAuthorized)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStateTransition, target)
	}
	return nil
}

func verb(s model.ReservationStatus) string {
	if s == model.ReservationStatusConfirmed {
		return "confirm"
	}
	return "reject"
}

func eventTypeFor(s model.ReservationStatus) model.EventType {
	switch s {
	case model.ReservationStatusConfirmed:
		return model.EventTypeReservationConfirmed
	case model.ReservationStatusRejected:
		return model.EventTypeReservationRejected
	default:
		return model.EventTypeReservationCanceled
	}
}

func (e *Engine) appendEvent(
	ctx context.Context,
	tx repository.Tx,
	typ model.EventType,
	actor Actor,
	r *model.Reservation,
	from model.ReservationStatus,
) error {
	details := map[string]any{
		"status": r.Status,
		"start":  r.StartsAt,
		"end":    r.EndsAt,
	}
	if from != "" {
		details["from"] = from
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return tx.Events().Create(ctx, &model.Event{
		EventType:     typ,
		ActorID:       actor.ID,
		ReservationID: r.ID,
		Details:       datatypes.JSON(raw),
	})
}

// withRetry повторяет fn при ошибках конкуренции хранилища.
// Ошибки ядра (*Error) не повторяются никогда.
func (e *Engine) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		err = fn()
		if err == nil || !repository.IsRetryable(err) {
			return err
		}
		e.log.V(1).Info("retrying after storage contention", "op", op, "attempt", attempt+1, "error", err.Error())
		if attempt == e.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.backoff * time.Duration(attempt+1)):
		}
	}
	return fmt.Errorf("%s: storage contention after %d attempts: %w", op, e.maxRetries+1, err)
}

// reload подтягивает ресурс, владельца и заявителя для ответа и уведомлений.
func (e *Engine) reload(ctx context.Context, r *model.Reservation) *model.Reservation {
	full, err := e.store.Reservations().GetByID(ctx, r.ID)
	if err != nil {
		e.log.Error(err, "reload reservation", "reservationID", r.ID)
		return r
	}
	return full
}

// notify вызывает хук уведомления; ошибки и паники только логируются.
func (e *Engine) notify(ctx context.Context, hook string, id uuid.UUID, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			e.log.Error(fmt.Errorf("panic: %v", p), "notification hook panicked", "hook", hook, "reservationID", id)
		}
	}()

	if err := fn(ctx); err != nil {
		e.log.Error(err, "notification failed, continuing", "hook", hook, "reservationID", id)
	}
}

func (e *Engine) logFailure(op string, err error, kv ...any) {
	kind := KindOf(err)
	kv = append(kv, "op", op, "kind", kind.String())
	if kind == KindInternal {
		e.log.Error(err, "reservation operation failed", kv...)
		return
	}
	e.log.V(1).Info("reservation operation rejected", append(kv, "reason", err.Error())...)
}

func participants(r *model.Reservation) (owner, requester *model.User, res *model.Resource) {
	res = r.Resource
	if res != nil {
		owner = res.Owner
	}
	return owner, r.Requester, res
}
