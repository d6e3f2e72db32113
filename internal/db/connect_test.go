package db

import (
	"context"
	"database/sql"
	"testing"
)

func TestOpenCreatesSchema(t *testing.T) {
	dbh, err := Open(context.Background(), DriverSQLite, "file:schema_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dbh.Close()

	for _, table := range []string{"subjects", "topics", "subtopics", "questions", "options", "users", "admins", "attempts", "login_codes"} {
		var name string
		err := dbh.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Driver("oracle"), ""); err == nil {
		t.Fatal("unknown driver should be rejected")
	}
}

// Databases created before the username column existed get it added by the
// additive migration on open.
func TestMigrateAddsUsername(t *testing.T) {
	dsn := "file:migrate_test?mode=memory&cache=shared"
	raw, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer raw.Close()
	_, err = raw.Exec(`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tg_id INTEGER NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '-',
		grade_group TEXT NOT NULL DEFAULT '8-'
	)`)
	if err != nil {
		t.Fatal(err)
	}

	dbh, err := Open(context.Background(), DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("Open over legacy schema: %v", err)
	}
	defer dbh.Close()

	if _, err := dbh.Exec(`INSERT INTO users (tg_id, username) VALUES (1, 'ada')`); err != nil {
		t.Fatalf("username column not usable after migration: %v", err)
	}

	// Opening again must be a no-op, not a duplicate-column error.
	dbh2, err := Open(context.Background(), DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	dbh2.Close()
}
