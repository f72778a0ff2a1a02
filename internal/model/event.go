package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeReservationCreated   EventType = "reservation_created"
	EventTypeReservationConfirmed EventType = "reservation_confirmed"
	EventTypeReservationRejected  EventType = "reservation_rejected"
	EventTypeReservationCanceled  EventType = "reservation_canceled"
)

// events — события аудита
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	ActorID       uuid.UUID `gorm:"type:uuid;not null;index"`
	ReservationID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Произвольные детали перехода (статусы до/после, интервал).
	Details datatypes.JSON

	Reservation *Reservation `gorm:"foreignKey:ReservationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
