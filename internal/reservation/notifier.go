package reservation

import (
	"context"

	"github.com/Leganyst/reservation-platform/internal/model"
)

// Notifier — побочный канал уведомлений. Вызывается после фиксации
// перехода; ошибки логируются и никогда не откатывают бронь.
type Notifier interface {
	// Владельцу: новая заявка на его ресурс.
	OnNewRequest(ctx context.Context, owner, requester *model.User, r *model.Reservation, res *model.Resource) error
	// Заявителю: заявка зарегистрирована.
	OnRequestAcknowledged(ctx context.Context, requester *model.User, r *model.Reservation, res *model.Resource) error
	// Заявителю: владелец подтвердил или отклонил заявку.
	OnStatusChanged(ctx context.Context, requester *model.User, r *model.Reservation, res *model.Resource, status model.ReservationStatus) error
	// Владельцу: заявитель отменил заявку.
	OnCanceled(ctx context.Context, owner, requester *model.User, r *model.Reservation, res *model.Resource) error
}

// NopNotifier ничего не отправляет.
type NopNotifier struct{}

func (NopNotifier) OnNewRequest(context.Context, *model.User, *model.User, *model.Reservation, *model.Resource) error {
	return nil
}

func (NopNotifier) OnRequestAcknowledged(context.Context, *model.User, *model.Reservation, *model.Resource) error {
	return nil
}

func (NopNotifier) OnStatusChanged(context.Context, *model.User, *model.Reservation, *model.Resource, model.ReservationStatus) error {
	return nil
}

func (NopNotifier) OnCanceled(context.Context, *model.User, *model.User, *model.Reservation, *model.Resource) error {
	return nil
}
