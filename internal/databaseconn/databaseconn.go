package databaseconn

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/veslov/wave-desktop-twitch-song-requests/internal/data"
)

const dbName = "wave-desktop-twitch-song-requests.db"

func init() {
	// sqlite wants the file to exist before migrate opens it
	if _, err := os.Stat(dbName); os.IsNotExist(err) {
		f, err := os.Create(dbName)
		if err != nil {
			log.Fatal(err.Error())
		}
		f.Close()
	}
}

// NewDBConnection opens a fresh handle. Callers close it themselves;
// connections are short-lived throughout the app.
func NewDBConnection() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+dbName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return db, nil
}

func newMigrator() (*migrate.Migrate, error) {
	src, err := iofs.New(data.GetMigrationFS(), "iofs/migrations")
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+dbName)
}

// Migrate brings the schema up to date. A failed migration leaves the
// schema_migrations row dirty and blocks every later start, so on
// failure the version is forced back one step before reporting the
// original error.
func Migrate() error {
	m, err := newMigrator()
	if err != nil {
		return err
	}
	uperr := m.Up()
	m.Close()
	if uperr == nil || uperr == migrate.ErrNoChange {
		return nil
	}

	log.Println("Schema migration failed, checking for a dirty version...")
	version, dirty, err := schemaVersion()
	if err != nil {
		log.Println("Could not read the schema version:", err)
		return uperr
	}
	if !dirty {
		log.Println("Schema is not dirty, nothing to roll back")
		return uperr
	}
	if err := forceVersion(int(version) - 1); err != nil {
		log.Println("Rollback failed:", err)
	}
	return uperr
}

func schemaVersion() (version uint64, dirty bool, err error) {
	db, err := NewDBConnection()
	if err != nil {
		return 0, false, err
	}
	defer db.Close()

	row := db.QueryRow("SELECT version, dirty FROM schema_migrations LIMIT 1")
	if err := row.Scan(&version, &dirty); err != nil {
		return 0, false, err
	}
	return version, dirty, nil
}

func forceVersion(v int) error {
	m, err := newMigrator()
	if err != nil {
		return err
	}
	defer m.Close()
	log.Println("Forcing schema back to version", v)
	return m.Force(v)
}
