package reservation

import (
	"context"

	"github.com/google/uuid"

	"github.com/Leganyst/reservation-platform/internal/calendar"
	"github.com/Leganyst/reservation-platform/internal/model"
)

// BlockingFinder — источник блокирующих (pending/confirmed) броней ресурса.
type BlockingFinder interface {
	FindBlocking(ctx context.Context, resourceID uuid.UUID, excludeID *uuid.UUID) ([]model.Reservation, error)
}

// FindBlockingConflict возвращает первую блокирующую бронь ресурса,
// пересекающуюся с candidate, или nil, если интервал свободен.
// excludeID исключает саму бронь при повторной проверке (подтверждение).
// Чистое чтение; атомарность с последующей записью обеспечивает вызывающий.
func FindBlockingConflict(
	ctx context.Context,
	finder BlockingFinder,
	resourceID uuid.UUID,
	candidate calendar.Interval,
	excludeID *uuid.UUID,
) (*model.Reservation, error) {
	blocking, err := finder.FindBlocking(ctx, resourceID, excludeID)
	if err != nil {
		return nil, err
	}

	for i := range blocking {
		r := &blocking[i]
		if !r.Status.IsBlocking() {
			continue
		}
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		iv, err := calendar.NewInterval(r.StartsAt, r.EndsAt)
		if err != nil {
			// пустой или перевёрнутый интервал ничего не занимает
			continue
		}
		if iv.Overlaps(candidate) {
			return r, nil
		}
	}
	return nil, nil
}
