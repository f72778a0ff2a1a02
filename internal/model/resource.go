package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource — бронируемый объект (комната, оборудование).
// Для ядра бронирования это единая эксклюзивная временная шкала владельца.
type Resource struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name        string `gorm:"type:varchar(255);not null"`
	Type        string `gorm:"type:varchar(64);not null;index"`
	City        string `gorm:"type:varchar(128)"`
	Description string `gorm:"type:text"`

	// Цена за единицу PriceUnit (час, день). Используется только в метриках.
	Price     float64 `gorm:"not null;default:0"`
	PriceUnit string  `gorm:"type:varchar(16)"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`

	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (r *Resource) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
