package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed sql/mysql/*.sql sql/postgres/*.sql
var files embed.FS

// goose keeps dialect and base FS in package globals
var mu sync.Mutex

// Dir returns the embedded migration directory for a driver name.
func Dir(driver string) (string, error) {
	switch driver {
	case "mysql":
		return "sql/mysql", nil
	case "postgres":
		return "sql/postgres", nil
	}
	return "", fmt.Errorf("migrate: unsupported driver %q", driver)
}

// Up applies every pending migration for driver.
func Up(db *sql.DB, driver string) error {
	dir, err := Dir(driver)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(files)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
