package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-platform/internal/calendar"
	"github.com/Leganyst/reservation-platform/internal/model"
)

// ReservationFilter — параметры выборки списков «мои брони» / «входящие».
type ReservationFilter struct {
	Status model.ReservationStatus // пусто — любой статус
	Search string                  // подстрока имени ресурса, без учёта регистра
	Page   calendar.PageRequest
}

// StatusCount — количество броней в одном статусе.
type StatusCount struct {
	Status model.ReservationStatus
	Count  int64
}

type ReservationRepository interface {
	// Создать новую бронь.
	Create(ctx context.Context, reservation *model.Reservation) error
	// Получить бронь по ID вместе с ресурсом (и его владельцем) и заявителем.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	// Обновить статус и вернуть актуальную запись.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ReservationStatus) (*model.Reservation, error)
	// Блокирующие (pending/confirmed) брони ресурса, кроме excludeID.
	FindBlocking(ctx context.Context, resourceID uuid.UUID, excludeID *uuid.UUID) ([]model.Reservation, error)
	// Брони, сделанные пользователем.
	ListByRequester(ctx context.Context, requesterID uuid.UUID, f ReservationFilter) ([]model.Reservation, int64, error)
	// Брони на ресурсы владельца.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, f ReservationFilter) ([]model.Reservation, int64, error)

	CountByOwnerAndStatus(ctx context.Context, ownerID uuid.UUID, status model.ReservationStatus) (int64, error)
	// Ближайшая бронь на ресурсы владельца в статусе status, начинающаяся после after.
	NextByOwner(ctx context.Context, ownerID uuid.UUID, status model.ReservationStatus, after time.Time) (*model.Reservation, error)
	// Ближайшая бронь пользователя (любой статус), начинающаяся после after.
	NextByRequester(ctx context.Context, requesterID uuid.UUID, after time.Time) (*model.Reservation, error)
	CountUpcomingByRequester(ctx context.Context, requesterID uuid.UUID, after time.Time, statuses []model.ReservationStatus) (int64, error)

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	ListRecent(ctx context.Context, limit int) ([]model.Reservation, error)
	// Сумма цен ресурсов по подтверждённым броням.
	SumConfirmedPrice(ctx context.Context) (float64, error)
}

// Реализация на GORM.
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *GormReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Resource.Owner").
		Preload("Requester").
		First(&res, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormReservationRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status model.ReservationStatus,
) (*model.Reservation, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ?", id).
		Update("status", status)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *GormReservationRepository) FindBlocking(
	ctx context.Context,
	resourceID uuid.UUID,
	excludeID *uuid.UUID,
) ([]model.Reservation, error) {
	q := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Where("status IN ?", model.BlockingStatuses)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var out []model.Reservation
	if err := q.Order("starts_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormReservationRepository) ListByRequester(
	ctx context.Context,
	requesterID uuid.UUID,
	f ReservationFilter,
) ([]model.Reservation, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("reservations.requester_id = ?", requesterID)
	return r.list(q, f)
}

func (r *GormReservationRepository) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	f ReservationFilter,
) ([]model.Reservation, int64, error) {
	return r.list(r.ownedBy(ctx, ownerID), f)
}

func (r *GormReservationRepository) list(q *gorm.DB, f ReservationFilter) ([]model.Reservation, int64, error) {
	if f.Status != "" {
		q = q.Where("reservations.status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where(
			"reservations.resource_id IN (?)",
			r.db.Model(&model.Resource{}).
				Select("id").
				Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(s)),
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page.Normalize()
	var out []model.Reservation
	err := q.
		Preload("Resource.Owner").
		Preload("Requester").
		Order("reservations.created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ownedBy — брони на ресурсы владельца (подзапрос, без JOIN: колонки не конфликтуют).
func (r *GormReservationRepository) ownedBy(ctx context.Context, ownerID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where(
			"reservations.resource_id IN (?)",
			r.db.Model(&model.Resource{}).Select("id").Where("owner_id = ?", ownerID),
		)
}

func (r *GormReservationRepository) CountByOwnerAndStatus(
	ctx context.Context,
	ownerID uuid.UUID,
	status model.ReservationStatus,
) (int64, error) {
	var total int64
	err := r.ownedBy(ctx, ownerID).
		Where("reservations.status = ?", status).
		Count(&total).Error
	return total, err
}

func (r *GormReservationRepository) NextByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	status model.ReservationStatus,
	after time.Time,
) (*model.Reservation, error) {
	var res model.Reservation
	err := r.ownedBy(ctx, ownerID).
		Preload("Resource").
		Where("reservations.status = ?", status).
		Where("reservations.starts_at > ?", after).
		Order("reservations.starts_at ASC").
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormReservationRepository) NextByRequester(
	ctx context.Context,
	requesterID uuid.UUID,
	after time.Time,
) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Resource").
		Where("requester_id = ?", requesterID).
		Where("starts_at > ?", after).
		Order("starts_at ASC").
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormReservationRepository) CountUpcomingByRequester(
	ctx context.Context,
	requesterID uuid.UUID,
	after time.Time,
	statuses []model.ReservationStatus,
) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("requester_id = ?", requesterID).
		Where("starts_at > ?", after).
		Where("status IN ?", statuses).
		Count(&total).Error
	return total, err
}

func (r *GormReservationRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Reservation{}).Count(&total).Error
	return total, err
}

func (r *GormReservationRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var out []StatusCount
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormReservationRepository) ListRecent(ctx context.Context, limit int) ([]model.Reservation, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Resource").
		Preload("Requester").
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormReservationRepository) SumConfirmedPrice(ctx context.Context) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Joins("JOIN resources ON resources.id = reservations.resource_id").
		Where("reservations.status = ?", model.ReservationStatusConfirmed).
		Select("COALESCE(SUM(resources.price), 0)").
		Scan(&sum).Error
	return sum, err
}

// likePattern экранирует спецсимволы LIKE и приводит к нижнему регистру.
func likePattern(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}
