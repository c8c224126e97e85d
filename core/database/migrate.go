package database

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/m3rciful/dialogbot/core/logger"
)

// ErrDirty means a previous migration failed halfway and needs a manual fix.
var ErrDirty = errors.New("database: schema is dirty")

// Report describes one migration run.
type Report struct {
	From, To uint
	Applied  []string
	Took     time.Duration
}

func (r Report) String() string {
	if len(r.Applied) == 0 {
		return fmt.Sprintf("schema at version %d, nothing to apply", r.To)
	}
	return fmt.Sprintf("schema %d -> %d: %s", r.From, r.To, strings.Join(r.Applied, ", "))
}

// RunMigrations applies all up migrations from the driver's migrations directory.
func RunMigrations(cfg Config) error {
	_, err := Migrate(cfg)
	return err
}

// Migrate is RunMigrations that also reports what was applied.
func Migrate(cfg Config) (Report, error) {
	var rep Report
	if err := cfg.Normalize(); err != nil {
		return rep, err
	}
	if cfg.Driver == DriverPostgres {
		if err := WaitReady(cfg, 30*time.Second); err != nil {
			return rep, migrateFailed("wait", fmt.Errorf("database not ready: %w", err))
		}
	}

	dir, err := filepath.Abs(cfg.MigrationsPath())
	if err != nil {
		return rep, fmt.Errorf("resolve migrations dir: %w", err)
	}
	files := listMigrationFiles(dir)
	logger.MIG.Debug("migrations resolved",
		slog.String("event", "resolve"),
		slog.String("driver", cfg.Driver),
		slog.String("path", dir),
		slog.Int("count", len(files)),
		slog.String("files", logger.Preview(files, 6)),
	)

	m, err := migrate.New("file://"+filepath.ToSlash(dir), cfg.MigrateURL())
	if err != nil {
		return rep, migrateFailed("init", fmt.Errorf("failed to initialize migrations: %w", err))
	}
	defer m.Close()

	from, dirty, err := m.Version()
	switch {
	case dirty:
		return rep, migrateFailed("version", fmt.Errorf("%w at version %d", ErrDirty, from))
	case err != nil && !errors.Is(err, migrate.ErrNilVersion):
		return rep, migrateFailed("version", err)
	}

	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return rep, migrateFailed("apply", fmt.Errorf("migration execution failed: %w", err))
	}
	to, _, _ := m.Version()
	rep = Report{
		From:    from,
		To:      to,
		Applied: selectApplied(files, uint64(from), uint64(to)),
		Took:    time.Since(start),
	}
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.String("driver", cfg.Driver),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Int("count", len(rep.Applied)),
		slog.Duration("duration", rep.Took),
	)
	return rep, nil
}

func migrateFailed(stage string, err error) error {
	logger.MIG.Error("migration failed",
		slog.String("event", "db.migrate"),
		slog.String("op", stage),
		slog.String("err", logger.RedactSecrets(err.Error())),
	)
	return err
}

func listMigrationFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names
}

func parseVersion(name string) uint64 {
	prefix, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(prefix, 10, 64)
	return v
}

func selectApplied(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
