package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusRejected  ReservationStatus = "rejected"
	ReservationStatusCanceled  ReservationStatus = "canceled"
)

// BlockingStatuses — статусы, занимающие интервал на ресурсе.
var BlockingStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusConfirmed,
}

// IsBlocking сообщает, занимает ли бронь интервал.
func (s ReservationStatus) IsBlocking() bool {
	return s == ReservationStatusPending || s == ReservationStatusConfirmed
}

// IsTerminal — после REJECTED/CANCELED переходов нет.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusRejected || s == ReservationStatusCanceled
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusRejected, ReservationStatusCanceled:
		return true
	}
	return false
}

// reservations
type Reservation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ResourceID  uuid.UUID `gorm:"type:uuid;not null;index:idx_reservations_resource_status,priority:1"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartsAt time.Time `gorm:"not null"`
	EndsAt   time.Time `gorm:"not null"`

	Status ReservationStatus `gorm:"type:varchar(32);not null;index:idx_reservations_resource_status,priority:2"`

	// Контакты, указанные при бронировании (используются в уведомлениях).
	RequesterName    string `gorm:"type:varchar(100)"`
	RequesterEmail   string `gorm:"type:varchar(255)"`
	RequesterContact string `gorm:"type:varchar(64)"`

	Notes string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`

	Resource  *Resource `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Requester *User     `gorm:"foreignKey:RequesterID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (r *Reservation) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
