package translatable

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/pkg/interfaces"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// SyncOverlayTable brings the overlay table in line with the declaration.
// A missing table is created with the foreign key, the locale column, one
// column per declared attribute, and a unique (foreign key, locale) index.
// An existing table only gains columns for newly declared attributes;
// columns are never dropped or renamed — removal stays a manual operator
// action so no data is lost silently. The operation is idempotent and meant
// for administrative, out-of-band use, not the request path.
func (t *Translator[T, O]) SyncOverlayTable(ctx context.Context, db *bun.DB) error {
	return t.syncOverlayTable(ctx, db, logging.NoOp())
}

func (t *Translator[T, O]) syncOverlayTable(ctx context.Context, db *bun.DB, logger interfaces.Logger) error {
	if db == nil {
		return ErrDatabaseRequired
	}
	name := db.Dialect().Name()
	if name != dialect.SQLite && name != dialect.PG {
		return fmt.Errorf("translatable: schema sync does not support dialect %q", name.String())
	}

	table := t.binding.overlayTable

	exists, err := tableExists(ctx, db, table)
	if err != nil {
		return fmt.Errorf("check table %s: %w", table, err)
	}

	if !exists {
		if _, err := db.ExecContext(ctx, t.createTableSQL(name)); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
		if _, err := db.ExecContext(ctx, t.uniqueIndexSQL()); err != nil {
			return fmt.Errorf("create index on %s: %w", table, err)
		}
		logger.Info("created overlay table",
			"table", table,
			"columns", len(t.decl.attributes),
		)
		return nil
	}

	existing, err := tableColumns(ctx, db, table)
	if err != nil {
		return fmt.Errorf("inspect table %s: %w", table, err)
	}

	added := 0
	for _, attr := range t.decl.attributes {
		if _, ok := existing[attr]; ok {
			continue
		}
		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, attr, t.binding.columns[attr])
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("add column %s.%s: %w", table, attr, err)
		}
		added++
	}
	if added > 0 {
		logger.Info("extended overlay table",
			"table", table,
			"columns_added", added,
		)
	}
	return nil
}

func (t *Translator[T, O]) createTableSQL(name dialect.Name) string {
	idType := "uuid"
	if name == dialect.SQLite {
		idType = "varchar(36)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", t.binding.overlayTable)
	fmt.Fprintf(&b, "  id %s PRIMARY KEY,\n", idType)
	fmt.Fprintf(&b, "  %s %s NOT NULL REFERENCES %s (id) ON DELETE CASCADE,\n", t.binding.foreignKey, idType, t.binding.table)
	b.WriteString("  locale varchar(5) NOT NULL")
	for _, attr := range t.decl.attributes {
		fmt.Fprintf(&b, ",\n  %s %s", attr, t.binding.columns[attr])
	}
	b.WriteString("\n)")
	return b.String()
}

func (t *Translator[T, O]) uniqueIndexSQL() string {
	return fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_%s_locale ON %s (%s, locale)",
		t.binding.overlayTable, t.binding.foreignKey, t.binding.overlayTable, t.binding.foreignKey,
	)
}

func tableExists(ctx context.Context, db *bun.DB, table string) (bool, error) {
	var count int
	var err error
	switch db.Dialect().Name() {
	case dialect.SQLite:
		err = db.NewRaw("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(ctx, &count)
	case dialect.PG:
		err = db.NewRaw("SELECT count(*) FROM information_schema.tables WHERE table_name = ?", table).Scan(ctx, &count)
	}
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func tableColumns(ctx context.Context, db *bun.DB, table string) (map[string]struct{}, error) {
	var names []string
	var err error
	switch db.Dialect().Name() {
	case dialect.SQLite:
		err = db.NewRaw("SELECT name FROM pragma_table_info(?)", table).Scan(ctx, &names)
	case dialect.PG:
		err = db.NewRaw("SELECT column_name FROM information_schema.columns WHERE table_name = ?", table).Scan(ctx, &names)
	}
	if err != nil {
		return nil, err
	}

	out := make(map[string]struct{}, len(names))
	for _, name := range names {
		out[name] = struct{}{}
	}
	return out, nil
}
