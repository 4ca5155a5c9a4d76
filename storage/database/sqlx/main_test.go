package sqlxrepos

import (
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/cheti/storage/database"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

// testDB connects to TEST_DATABASE_URL, migrates it once and empties every table.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		t.Fatalf("connecting to %s: %v", url, err)
	}
	t.Cleanup(func() { _ = db.Close() })

	migrateOnce.Do(func() { migrateErr = database.Migrate(db.DB, "up") })
	if migrateErr != nil {
		t.Fatalf("migrating: %v", migrateErr)
	}

	_, err = db.Exec(`TRUNCATE completion, certificate, assignment_outcome, quiz_outcome, lesson_progress,
		enrollment, content_item, section, course, mentorship, "user" CASCADE`)
	if err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
	return db
}
