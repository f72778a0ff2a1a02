package repository

import (
	"context"

	"gorm.io/gorm"
)

// Tx — набор репозиториев, работающих в одной транзакции (или без неё).
type Tx interface {
	Users() UserRepository
	Resources() ResourceRepository
	Reservations() ReservationRepository
	Events() EventRepository
}

// Store — точка входа в хранилище. WithinTx выполняет fn в одной
// транзакции БД: либо всё применяется, либо ничего.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Реализация на GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Users() UserRepository { return NewGormUserRepository(s.db) }

func (s *GormStore) Resources() ResourceRepository { return NewGormResourceRepository(s.db) }

func (s *GormStore) Reservations() ReservationRepository {
	return NewGormReservationRepository(s.db)
}

func (s *GormStore) Events() EventRepository { return NewGormEventRepository(s.db) }

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
