package reservation

import (
	"fmt"

	"github.com/google/uuid"
)

// Роль пользователя. Определяется один раз слоем аутентификации
// и приходит вместе с идентификатором.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor — аутентифицированный инициатор операции.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func NewActor(id string, role string) (Actor, error) {
	uid, err := uuid.Parse(id)
	if err != nil || uid == uuid.Nil {
		return Actor{}, fmt.Errorf("%w: invalid actor id %q", ErrNotAuthorized, id)
	}
	r := Role(role)
	switch r {
	case "":
		r = RoleUser
	case RoleUser, RoleAdmin:
	default:
		return Actor{}, fmt.Errorf("%w: unknown role %q", ErrNotAuthorized, role)
	}
	return Actor{ID: uid, Role: r}, nil
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (a Actor) validate() error {
	if a.ID == uuid.Nil {
		return fmt.Errorf("%w: anonymous actor", ErrNotAuthorized)
	}
	return nil
}
