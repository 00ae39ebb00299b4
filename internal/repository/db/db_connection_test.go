package db

import (
	"path/filepath"
	"testing"
)

func TestInitDB_CreatesSchema(t *testing.T) {
	for name, path := range map[string]string{
		"memory": ":memory:",
		"file":   filepath.Join(t.TempDir(), "events.db"),
	} {
		t.Run(name, func(t *testing.T) {
			db, err := InitDB(path)
			if err != nil {
				t.Fatalf("InitDB(%q): %v", path, err)
			}
			defer db.Close()

			var n int
			err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'dashboard_events'`).Scan(&n)
			if err != nil {
				t.Fatalf("query schema: %v", err)
			}
			if n != 1 {
				t.Fatalf("dashboard_events table missing")
			}

			// idempotent on an existing database
			if err := ensureSchema(db); err != nil {
				t.Fatalf("ensureSchema again: %v", err)
			}
		})
	}
}
