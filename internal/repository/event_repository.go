package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-platform/internal/model"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]model.Event, error)
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *GormEventRepository) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
