package auth

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// Migrate executes the embedded schema migrations in lexical order.
// Statements use IF NOT EXISTS so running against an already migrated
// database is harmless.
func Migrate(ctx context.Context, db *bun.DB) error {
	root := "data/sql/migrations"

	entries, err := fs.ReadDir(migrationsFS, root)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to read embedded migrations")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := fs.ReadFile(migrationsFS, root+"/"+name)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to read migration").
				WithMetadata(map[string]any{"file": name})
		}

		// exec one statement at a time, some drivers reject batches
		for _, stmt := range strings.Split(string(content), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}

			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return errors.Wrap(err, errors.CategoryInternal, "failed to apply migration").
					WithMetadata(map[string]any{"file": name})
			}
		}
	}

	return nil
}
