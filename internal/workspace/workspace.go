// Package workspace bootstraps and validates the .feedback/ directory
// that holds the tool's config, database, reference corpus, logs, and
// exports.
package workspace

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"feedbackgen/internal/config"
	"feedbackgen/internal/logging"
	"feedbackgen/internal/reference"
	"feedbackgen/internal/store"
)

// ReferenceFileName is the editable reference corpus inside .feedback/.
const ReferenceFileName = "reference.yaml"

// DBFileName is the SQLite database inside .feedback/.
const DBFileName = "feedback.db"

// Paths locates every workspace artifact under one root.
type Paths struct {
	Root      string // project root containing .feedback/
	Dir       string // .feedback/
	Config    string // .feedback/config.json
	DB        string // .feedback/feedback.db
	Reference string // .feedback/reference.yaml
	Logs      string // .feedback/logs/
	Exports   string // .feedback/exports/
}

// At resolves workspace paths under the given root.
func At(root string) Paths {
	dir := filepath.Join(root, config.WorkspaceDirName)
	return Paths{
		Root:      root,
		Dir:       dir,
		Config:    filepath.Join(dir, config.ConfigFileName),
		DB:        filepath.Join(dir, DBFileName),
		Reference: filepath.Join(dir, ReferenceFileName),
		Logs:      filepath.Join(dir, "logs"),
		Exports:   filepath.Join(dir, "exports"),
	}
}

// Find locates the workspace from the working directory.
func Find() (Paths, error) {
	root, err := config.FindWorkspaceRoot()
	if err != nil {
		return Paths{}, err
	}
	return At(root), nil
}

// CheckRuntime verifies the SQLite driver actually works in this
// build before any files are created. A broken runtime fails fast.
func CheckRuntime() error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("sqlite runtime unavailable: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("sqlite runtime unavailable: %w", err)
	}
	return nil
}

// Bootstrap creates the workspace: directory tree, default config,
// default reference corpus, and an initialized database. It is
// idempotent; existing files are kept, missing pieces are filled in.
func Bootstrap(paths Paths) error {
	if err := CheckRuntime(); err != nil {
		return err
	}

	for _, dir := range []string{paths.Dir, paths.Logs, paths.Exports} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
		if err := config.Default().Save(paths.Config); err != nil {
			return err
		}
	}

	if _, err := os.Stat(paths.Reference); os.IsNotExist(err) {
		if err := reference.Default().Save(paths.Reference); err != nil {
			return err
		}
	}

	st, err := store.New(paths.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := st.Close(); err != nil {
		return err
	}

	if err := logging.Initialize(paths.Root); err != nil {
		return err
	}
	logging.Workspace("workspace ready at %s", paths.Dir)
	return nil
}

// Preflight verifies the workspace is usable before any real work
// runs. Every missing piece is reported; callers exit non-zero on a
// failed preflight without touching the engine or database.
func Preflight(paths Paths) error {
	info, err := os.Stat(paths.Dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("workspace %s not found. Run 'feedbackgen init' first", paths.Dir)
	}
	if _, err := os.Stat(paths.Config); err != nil {
		return fmt.Errorf("config %s not found. Run 'feedbackgen init' first", paths.Config)
	}
	if _, err := os.Stat(paths.DB); err != nil {
		return fmt.Errorf("database %s not found. Run 'feedbackgen init' first", paths.DB)
	}
	return nil
}
