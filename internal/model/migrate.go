package model

import (
	"fmt"

	"gorm.io/gorm"
)

// ExclusionConstraintName — ограничение postgres, запрещающее пересечение
// блокирующих броней одного ресурса на уровне хранилища.
const ExclusionConstraintName = "reservations_no_overlap"

// AutoMigrate выполняет миграцию всех сущностей ядра бронирования.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Resource{},
		&Reservation{},
		&Event{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		return migratePostgresConstraints(db)
	}
	return nil
}

func migratePostgresConstraints(db *gorm.DB) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
		ALTER TABLE reservations ADD CONSTRAINT %s
			EXCLUDE USING gist (resource_id WITH =, tstzrange(starts_at, ends_at, '[)') WITH &&)
			WHERE (status IN ('%s', '%s'));
	END IF;
END $$`, ExclusionConstraintName, ExclusionConstraintName, ReservationStatusPending, ReservationStatusConfirmed),
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("postgres constraints: %w", err)
		}
	}
	return nil
}
