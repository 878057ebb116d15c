package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var schemaFiles embed.FS

// schemaStep is one numbered pair of sql/NNNN_<name>_up.sql and _down.sql.
type schemaStep struct {
	version int
	name    string
	up      string
	down    string
}

// schemaSteps reads the embedded steps in version order.
func schemaSteps() ([]schemaStep, error) {
	ups, err := fs.Glob(schemaFiles, "sql/*_up.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list schema files: %w", err)
	}

	steps := make([]schemaStep, 0, len(ups))
	for _, up := range ups {
		base := strings.TrimSuffix(path.Base(up), "_up.sql")
		prefix, name, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("schema file %s has no version prefix", up)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("schema file %s: %w", up, err)
		}

		upSQL, err := schemaFiles.ReadFile(up)
		if err != nil {
			return nil, err
		}
		downSQL, err := schemaFiles.ReadFile(path.Join("sql", base+"_down.sql"))
		if err != nil {
			return nil, fmt.Errorf("schema step %d (%s) has no down file: %w", version, name, err)
		}
		steps = append(steps, schemaStep{version: version, name: name, up: string(upSQL), down: string(downSQL)})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })
	return steps, nil
}

// RunMigrations applies every schema step not yet recorded in schema_migrations.
// The kv_store table behind the token store is step 0.
func RunMigrations(db *sql.DB) error {
	steps, err := schemaSteps()
	if err != nil {
		return err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}
	for _, step := range steps {
		if applied[step.version] {
			continue
		}
		if err := execStep(db, step.up, `INSERT INTO schema_migrations (version) VALUES (?)`, step.version); err != nil {
			return fmt.Errorf("failed to apply %04d_%s: %w", step.version, step.name, err)
		}
	}
	return nil
}

// ResetDatabase rolls back every applied step, newest first, and applies them again.
// Stored tokens and verifiers do not survive it.
func ResetDatabase(db *sql.DB) error {
	if err := RunMigrations(db); err != nil {
		return err
	}
	steps, err := schemaSteps()
	if err != nil {
		return err
	}
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if err := execStep(db, step.down, `DELETE FROM schema_migrations WHERE version = ?`, step.version); err != nil {
			return fmt.Errorf("failed to roll back %04d_%s: %w", step.version, step.name, err)
		}
	}
	return RunMigrations(db)
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// execStep runs script and the bookkeeping statement in one transaction.
// go-sqlite3 executes every statement in a multi-statement Exec.
func execStep(db *sql.DB, script, record string, version int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec(record, version); err != nil {
		return err
	}
	return tx.Commit()
}
