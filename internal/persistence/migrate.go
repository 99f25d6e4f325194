package persistence

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"seoforge/internal/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// downMarker separates the forward statements of a migration file from the
// statements that revert them.
const downMarker = "-- +down"

// ErrNothingToRollback is returned by Rollback on an empty history.
var ErrNothingToRollback = errors.New("no applied migrations")

// Migration is one numbered schema change.
type Migration struct {
	Version  int
	Name     string
	Up       string
	Down     string
	Checksum string // sha256 of Up
}

// MigrationStatus reports one migration against the database.
type MigrationStatus struct {
	Version   int
	Name      string
	Applied   bool
	AppliedAt time.Time
	// Drifted is set when the applied checksum no longer matches the file.
	Drifted bool
}

// MigrationManager applies the embedded migrations for a store's dialect.
type MigrationManager struct {
	store *SQLStore
	fsys  fs.FS
	log   zerolog.Logger
}

func NewMigrationManager(store *SQLStore) *MigrationManager {
	sub, err := fs.Sub(migrationFiles, path.Join("migrations", store.dialect))
	if err != nil {
		// Only reachable with an unknown dialect, which Open rejects.
		panic(err)
	}
	return &MigrationManager{store: store, fsys: sub, log: logger.Component("migrate")}
}

// Migrate applies every pending migration in version order, each in its
// own transaction.
func (m *MigrationManager) Migrate(ctx context.Context) error {
	all, applied, err := m.load(ctx)
	if err != nil {
		return err
	}

	count := 0
	for _, mig := range all {
		rec, ok := applied[mig.Version]
		if ok {
			if rec.checksum != mig.Checksum {
				m.log.Warn().Int("version", mig.Version).Str("name", mig.Name).Msg("Applied migration differs from embedded file")
			}
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("migration %03d_%s: %w", mig.Version, mig.Name, err)
		}
		count++
	}

	if count == 0 {
		m.log.Info().Str("dialect", m.store.dialect).Msg("Schema up to date")
	} else {
		m.log.Info().Str("dialect", m.store.dialect).Int("applied", count).Msg("Migrations applied")
	}
	return nil
}

// Status lists every embedded migration with its applied state.
func (m *MigrationManager) Status(ctx context.Context) ([]MigrationStatus, error) {
	all, applied, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(all))
	for _, mig := range all {
		st := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if rec, ok := applied[mig.Version]; ok {
			st.Applied = true
			st.AppliedAt = rec.appliedAt
			st.Drifted = rec.checksum != mig.Checksum
		}
		out = append(out, st)
	}
	return out, nil
}

// Rollback reverts the most recently applied migration. It runs the file's
// down section when there is one; otherwise only the history row is
// removed and reverted is false.
func (m *MigrationManager) Rollback(ctx context.Context) (version int, reverted bool, err error) {
	all, applied, err := m.load(ctx)
	if err != nil {
		return 0, false, err
	}
	if len(applied) == 0 {
		return 0, false, ErrNothingToRollback
	}
	for v := range applied {
		version = max(version, v)
	}

	var down string
	if i := slices.IndexFunc(all, func(mig Migration) bool { return mig.Version == version }); i >= 0 {
		down = all[i].Down
	}

	tx, err := m.store.db.BeginTx(ctx, nil)
	if err != nil {
		return version, false, err
	}
	defer tx.Rollback()

	if down != "" {
		if _, err := tx.ExecContext(ctx, down); err != nil {
			return version, false, fmt.Errorf("revert %03d: %w", version, err)
		}
	}
	if _, err := tx.ExecContext(ctx, m.store.rebind(`DELETE FROM schema_migrations WHERE version = ?`), version); err != nil {
		return version, false, err
	}
	if err := tx.Commit(); err != nil {
		return version, false, err
	}

	m.log.Warn().Int("version", version).Bool("reverted", down != "").Msg("Migration rolled back")
	return version, down != "", nil
}

type appliedRecord struct {
	checksum  string
	appliedAt time.Time
}

func (m *MigrationManager) load(ctx context.Context) ([]Migration, map[int]appliedRecord, error) {
	all, err := readMigrations(m.fsys)
	if err != nil {
		return nil, nil, err
	}
	if err := m.ensureHistory(ctx); err != nil {
		return nil, nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := m.history(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	return all, applied, nil
}

func (m *MigrationManager) ensureHistory(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INT PRIMARY KEY,
		name TEXT NOT NULL,
		checksum TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`
	if m.store.dialect == DialectSQLite {
		ddl = `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		checksum TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	}
	_, err := m.store.db.ExecContext(ctx, ddl)
	return err
}

func (m *MigrationManager) history(ctx context.Context) (map[int]appliedRecord, error) {
	rows, err := m.store.db.QueryContext(ctx, `SELECT version, checksum, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]appliedRecord)
	for rows.Next() {
		var (
			version   int
			rec       appliedRecord
			appliedAt any
		)
		if err := rows.Scan(&version, &rec.checksum, &appliedAt); err != nil {
			return nil, err
		}
		rec.appliedAt = scanTime(appliedAt)
		out[version] = rec
	}
	return out, rows.Err()
}

func (m *MigrationManager) apply(ctx context.Context, mig Migration) error {
	tx, err := m.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, m.store.rebind(`INSERT INTO schema_migrations (version, name, checksum) VALUES (?, ?, ?)`),
		mig.Version, mig.Name, mig.Checksum); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	m.log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("Applied migration")
	return nil
}

// readMigrations parses "NNN_name.sql" files from fsys, sorted by version.
func readMigrations(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}

	var out []Migration
	seen := make(map[int]string)
	for _, file := range names {
		num, name, ok := strings.Cut(strings.TrimSuffix(file, ".sql"), "_")
		version, err := strconv.Atoi(num)
		if !ok || err != nil {
			return nil, fmt.Errorf("migration file %q: want NNN_name.sql", file)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %d used by %q and %q", version, prev, file)
		}
		seen[version] = file

		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		up, down, _ := strings.Cut(string(data), downMarker)
		up = strings.TrimSpace(up)
		sum := sha256.Sum256([]byte(up))
		out = append(out, Migration{
			Version:  version,
			Name:     name,
			Up:       up,
			Down:     strings.TrimSpace(down),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}

	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}

// scanTime accepts the time.Time postgres returns and the text sqlite stores.
func scanTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	case []byte:
		return scanTime(string(t))
	}
	return time.Time{}
}
