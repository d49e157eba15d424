package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

const DefaultDir = "pkg/migrate/migrations"

const (
	embeddedDir = "migrations"
	dialect     = "postgres"
)

//go:embed migrations/*.sql
var Embedded embed.FS

// Source locates a set of goose migrations, either on disk or compiled in.
type Source struct {
	fsys fs.FS
	dir  string
}

func DirSource(dir string) Source {
	return Source{dir: dir}
}

func EmbeddedSource() Source {
	return Source{fsys: Embedded, dir: embeddedDir}
}

func (s Source) String() string {
	if s.fsys != nil {
		return "embedded:" + s.dir
	}
	return s.dir
}

// FS returns the migrations rooted at their directory.
func (s Source) FS() (fs.FS, error) {
	if s.dir == "" {
		return nil, errors.New("migrations dir is required")
	}
	if s.fsys == nil {
		return os.DirFS(s.dir), nil
	}
	return fs.Sub(s.fsys, s.dir)
}

// EmbeddedFS exposes the compiled migrations rooted at their directory.
func EmbeddedFS() fs.FS {
	sub, err := EmbeddedSource().FS()
	if err != nil {
		panic(err)
	}
	return sub
}

// goose keeps its base FS and dialect in package globals; every entry point
// resets both before touching the database.
func (s Source) bind(db *sql.DB) error {
	if db == nil {
		return errors.New("db is required")
	}
	if s.dir == "" {
		return errors.New("migrations dir is required")
	}
	goose.SetBaseFS(s.fsys)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a goose command (up, down, status, ...) against src.
func Run(ctx context.Context, db *sql.DB, src Source, command string, args ...string) error {
	if err := src.bind(db); err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	if err := goose.RunContext(ctx, command, db, src.dir, args...); err != nil {
		return fmt.Errorf("goose %s (%s): %w", command, src, err)
	}
	return nil
}

// MigrateToVersion moves the schema up or down to version (YYYYMMDDHHMMSS).
func MigrateToVersion(ctx context.Context, db *sql.DB, src Source, version string) error {
	target, err := strconv.ParseInt(version, 10, 64)
	if err != nil || len(version) != 14 {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS)", version)
	}
	if err := src.bind(db); err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)

	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	switch {
	case current < target:
		err = goose.UpToContext(ctx, db, src.dir, target)
	case current > target:
		err = goose.DownToContext(ctx, db, src.dir, target)
	}
	if err != nil {
		return fmt.Errorf("goose migrate %d -> %d: %w", current, target, err)
	}
	return nil
}
