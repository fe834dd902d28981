package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the schema shared by the device-local store and the tracker.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS medications (
            box_id INTEGER PRIMARY KEY,
            medication_id INTEGER NOT NULL DEFAULT 0,
            medication_name TEXT NOT NULL,
            total_pills INTEGER NOT NULL DEFAULT 0,
            pills_per_intake INTEGER NOT NULL DEFAULT 1,
            schedule_time_1 TEXT NOT NULL,
            schedule_time_2 TEXT,
            dispensed INTEGER NOT NULL DEFAULT 0,
            last_dispensed_at INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS pending_reports (
            event_id TEXT PRIMARY KEY,
            box_id INTEGER NOT NULL,
            dispensed INTEGER NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}
