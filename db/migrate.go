package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/orion/errors"
	"github.com/teranos/orion/sym"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one embedded schema file, versioned by its numeric prefix
type migration struct {
	version  string
	filename string
}

// listMigrations returns embedded migrations sorted by filename
func listMigrations() ([]migration, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	var out []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		out = append(out, migration{
			version:  strings.SplitN(entry.Name(), "_", 2)[0],
			filename: entry.Name(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].filename < out[j].filename })
	return out, nil
}

// appliedVersions returns the set of recorded versions.
// Before migration 000 runs there is no schema_migrations table; that yields an empty set.
func appliedVersions(db *sql.DB) map[string]bool {
	applied := make(map[string]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return applied
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if rows.Scan(&v) == nil {
			applied[v] = true
		}
	}
	return applied
}

// Migrate runs all pending migrations, each in its own transaction.
// If logger is provided, logs migration progress; otherwise operates silently.
func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	all, err := listMigrations()
	if err != nil {
		return err
	}

	applied := appliedVersions(db)
	if len(applied) == 0 && len(all) > 0 && all[0].version != "000" {
		return errors.Newf("schema_migrations table missing, but first migration is not 000: %s", all[0].filename)
	}

	pending := 0
	for _, m := range all {
		if applied[m.version] {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
		pending++
		if logger != nil {
			logger.Infow("Applied migration", "migration", m.filename, "version", m.version, "symbol", sym.DB)
		}
	}

	if logger != nil {
		logger.Debugw("Migrations complete",
			"symbol", sym.DB,
			"applied", pending,
			"total_migrations", len(all),
		)
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	sqlBytes, err := migrations.ReadFile(path.Join(migrationsDir, m.filename))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.filename)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.filename)
	}

	if _, err := tx.Exec(string(sqlBytes)); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "execute %s", m.filename)
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "record %s", m.filename)
	}

	return errors.Wrapf(tx.Commit(), "commit %s", m.filename)
}
