package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the queue invariants the ORM tags cannot express
func MigrateConstraints(db *gorm.DB) error {
	statements := []string{
		// At most one entry is being served at any time
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_queue_entries_single_in_progress
			ON queue_entries ((true)) WHERE status = 'IN_PROGRESS'`,

		// Oldest-waiting lookups and waiting counts
		`CREATE INDEX IF NOT EXISTS idx_queue_entries_waiting
			ON queue_entries (ticket_number) WHERE status = 'WAITING'`,

		`DO $$ BEGIN
			ALTER TABLE queue_entries ADD CONSTRAINT chk_queue_entries_status
				CHECK (status IN ('WAITING', 'IN_PROGRESS', 'COMPLETED', 'CANCELLED'));
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$`,

		`DO $$ BEGIN
			ALTER TABLE queue_entries ADD CONSTRAINT chk_queue_entries_ticket_positive
				CHECK (ticket_number > 0);
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
