package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// users — учётные записи ведёт внешний сервис авторизации,
// здесь нужны только контакты для уведомлений.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Username     string `gorm:"type:varchar(255)"`
	FirstName    string `gorm:"type:varchar(255)"`
	LastName     string `gorm:"type:varchar(255)"`
	ContactPhone string `gorm:"type:varchar(32)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName — имя для писем.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	}
	return u.Email
}
