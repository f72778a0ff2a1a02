package notify

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/Leganyst/reservation-platform/internal/model"
	"github.com/Leganyst/reservation-platform/internal/reservation"
)

var _ reservation.Notifier = (*LogNotifier)(nil)

// LogNotifier только пишет уведомления в лог (локальная разработка).
type LogNotifier struct {
	log logr.Logger
}

func NewLogNotifier(log logr.Logger) *LogNotifier {
	return &LogNotifier{log: log.WithName("notify")}
}

func (l *LogNotifier) emit(n Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	l.log.Info("notification",
		"kind", n.Kind,
		"reservationID", n.ReservationID,
		"to", n.RecipientEmail,
		"resource", n.ResourceName,
		"when", FormatInterval(n.Start, n.End, nil),
		"status", n.Status,
	)
	return nil
}

func (l *LogNotifier) OnNewRequest(_ context.Context, owner, requester *model.User, r *model.Reservation, res *model.Resource) error {
	return l.emit(NewRequestNotification(owner, requester, r, res))
}

func (l *LogNotifier) OnRequestAcknowledged(_ context.Context, requester *model.User, r *model.Reservation, res *model.Resource) error {
	return l.emit(RequestReceivedNotification(requester, r, res))
}

func (l *LogNotifier) OnStatusChanged(_ context.Context, requester *model.User, r *model.Reservation, res *model.Resource, status model.ReservationStatus) error {
	return l.emit(StatusChangedNotification(requester, r, res, status))
}

func (l *LogNotifier) OnCanceled(_ context.Context, owner, requester *model.User, r *model.Reservation, res *model.Resource) error {
	return l.emit(CanceledNotification(owner, requester, r, res))
}
