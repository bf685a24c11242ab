package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"tasktracker/internal/model"
)

// SchemaVersion is the version of the task schema this build writes.
// Version 3 introduced status and completed_at.
const SchemaVersion = 3

// migrate brings the database up to SchemaVersion and returns the version it started from.
func migrate(ctx context.Context, db *gorm.DB) (int, error) {
	conn := db.WithContext(ctx)

	from, err := userVersion(conn)
	if err != nil {
		return 0, err
	}
	switch {
	case from > SchemaVersion:
		return from, fmt.Errorf("database schema version %d is newer than supported version %d", from, SchemaVersion)
	case from == SchemaVersion:
		return from, nil
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		if err := prepareLegacyStatus(tx); err != nil {
			return err
		}
		if err := tx.AutoMigrate(&model.Task{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		if err := backfillStatus(tx); err != nil {
			return err
		}
		return setUserVersion(tx, SchemaVersion)
	})
	if err != nil {
		return from, err
	}
	return from, nil
}

// prepareLegacyStatus fills NULL statuses in an existing nullable status column.
// AutoMigrate rebuilds the table with status NOT NULL, and copying such rows
// would fail.
func prepareLegacyStatus(tx *gorm.DB) error {
	m := tx.Migrator()
	if !m.HasTable(&model.Task{}) || !m.HasColumn(&model.Task{}, "status") {
		return nil
	}
	if err := tx.Model(&model.Task{}).
		Where("status IS NULL OR status = ?", "").
		Update("status", model.StatusInProgress).Error; err != nil {
		return fmt.Errorf("prepare legacy status: %w", err)
	}
	if !m.HasColumn(&model.Task{}, "completed_at") {
		return nil
	}
	if err := tx.Model(&model.Task{}).
		Where("status <> ? AND completed_at IS NOT NULL", model.StatusCompleted).
		Update("completed_at", nil).Error; err != nil {
		return fmt.Errorf("prepare legacy completed_at: %w", err)
	}
	return nil
}

// backfillStatus gives records written before version 3 the lifecycle defaults
// and makes completed_at agree with status. Running it again changes nothing.
func backfillStatus(tx *gorm.DB) error {
	if err := tx.Model(&model.Task{}).
		Where("status IS NULL OR status = ?", "").
		Update("status", model.StatusInProgress).Error; err != nil {
		return fmt.Errorf("backfill status: %w", err)
	}
	if err := tx.Model(&model.Task{}).
		Where("status <> ? AND completed_at IS NOT NULL", model.StatusCompleted).
		Update("completed_at", nil).Error; err != nil {
		return fmt.Errorf("clear completed_at: %w", err)
	}
	if err := tx.Model(&model.Task{}).
		Where("status = ? AND completed_at IS NULL", model.StatusCompleted).
		Update("completed_at", gorm.Expr("created_at")).Error; err != nil {
		return fmt.Errorf("fill completed_at: %w", err)
	}
	return nil
}

func userVersion(db *gorm.DB) (int, error) {
	var version int
	if err := db.Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *gorm.DB, version int) error {
	// PRAGMA does not accept bound parameters.
	if err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)).Error; err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}
