package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/reservation-platform/internal/model"
)

// TypeCount — количество ресурсов одного типа.
type TypeCount struct {
	Type  string
	Count int64
}

type ResourceRepository interface {
	// Найти ресурс по ID вместе с владельцем.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error)
	// Взять блокировку строки ресурса до конца транзакции (SELECT ... FOR UPDATE).
	// Сериализует допуск броней по одному ресурсу.
	LockByID(ctx context.Context, id uuid.UUID) (*model.Resource, error)
	Create(ctx context.Context, resource *model.Resource) error
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountByType(ctx context.Context) ([]TypeCount, error)
}

type GormResourceRepository struct {
	db *gorm.DB
}

func NewGormResourceRepository(db *gorm.DB) *GormResourceRepository {
	return &GormResourceRepository{db: db}
}

func (r *GormResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	var res model.Resource
	if err := r.db.WithContext(ctx).Preload("Owner").First(&res, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormResourceRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	var res model.Resource
	// sqlite-диалект gorm пропускает FOR UPDATE: там транзакции и так сериализованы.
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&res, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormResourceRepository) Create(ctx context.Context, resource *model.Resource) error {
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *GormResourceRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Resource{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error
	return total, err
}

func (r *GormResourceRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Resource{}).Count(&total).Error
	return total, err
}

func (r *GormResourceRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Resource{}).
		Where("created_at >= ?", since).
		Count(&total).Error
	return total, err
}

func (r *GormResourceRepository) CountByType(ctx context.Context) ([]TypeCount, error) {
	var out []TypeCount
	err := r.db.WithContext(ctx).
		Model(&model.Resource{}).
		Select("type, COUNT(*) AS count").
		Group("type").
		Order("count DESC, type ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
