package database

import (
	"clinicq/internal/patients"
	"clinicq/internal/queue"
	"clinicq/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&users.User{},
		&patients.Patient{},
		&queue.QueueEntry{},
	); err != nil {
		return err
	}
	return MigrateConstraints(db)
}
