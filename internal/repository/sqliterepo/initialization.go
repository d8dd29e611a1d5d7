package sqliterepo

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
	// sqlite driver without cgo.
	_ "modernc.org/sqlite" //nolint:revive
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// defaultPragmas имя pragma -> значение. Добавляются к dsn, если не заданы в нем явно.
var defaultPragmas = []struct {
	name  string
	value string
}{
	{name: "foreign_keys", value: "1"},
	{name: "busy_timeout", value: "5000"},
}

// Open открывает файл базы sqlite и применяет миграции. Внешние ключи и таймаут ожидания блокировки
// включаются всегда, если dsn не переопределяет их.
func Open(ctx context.Context, dsn string, l *logrus.Logger) (*sql.DB, error) {
	dsn = withDefaultPragmas(dsn)

	db, openErr := sql.Open("sqlite", dsn)
	if openErr != nil {
		return nil, fmt.Errorf("open sqlite database: %w", openErr)
	}
	// sqlite допускает одного писателя.
	db.SetMaxOpenConns(1)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite: %w", pingErr)
	}

	if err := sqliteMigrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	l.WithField("dsn", dsn).Info("sqlite migrations applied")
	return db, nil
}

func withDefaultPragmas(dsn string) string {
	for _, p := range defaultPragmas {
		if strings.Contains(dsn, "_pragma="+p.name+"(") {
			continue
		}
		sep := "&"
		if !strings.Contains(dsn, "?") {
			sep = "?"
		}
		dsn += sep + "_pragma=" + p.name + "(" + p.value + ")"
	}
	return dsn
}

func sqliteMigrate(db *sql.DB) error {
	src, srcErr := iofs.New(migrationsFS, "migrations")
	if srcErr != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", srcErr)
	}
	driver, driverErr := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if driverErr != nil {
		return fmt.Errorf("failed to create migrate driver: %w", driverErr)
	}
	// m.Close закрыл бы и db, поэтому не вызывается.
	m, mErr := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if mErr != nil {
		return fmt.Errorf("failed to create migrate instance: %w", mErr)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
