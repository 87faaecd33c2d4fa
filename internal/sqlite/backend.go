// Package sqlite implements the SQLite storage backend for treasuries:
// bindings, accounts, signer configurations and transaction proposals.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

// DatabaseFile is the name of the SQLite file inside DataDir.
const DatabaseFile = "treasury.db"

// Backend owns the SQLite connection and hands out table accessors.
// Accessors return ErrBackendDetached once Detach has been called.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	bindings       *BindingsTable
	accounts       *AccountsTable
	configurations *ConfigurationsTable
	proposals      *ProposalsTable
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	b := &Backend{}
	b.bindings = &BindingsTable{backend: b}
	b.accounts = &AccountsTable{backend: b}
	b.configurations = &ConfigurationsTable{backend: b}
	b.proposals = &ProposalsTable{backend: b}
	return b
}

// Attach opens (or creates) the database in config.DataDir and applies the
// schema. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		filepath.Join(dataDir, DatabaseFile))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	for _, stmt := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the database. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		return err
	}
	return nil
}

// Bindings returns the group-to-account bindings table.
func (b *Backend) Bindings() *BindingsTable { return b.bindings }

// Accounts returns the custodial accounts table.
func (b *Backend) Accounts() *AccountsTable { return b.accounts }

// Configurations returns the signer configurations table.
func (b *Backend) Configurations() *ConfigurationsTable { return b.configurations }

// Proposals returns the transaction proposals table.
func (b *Backend) Proposals() *ProposalsTable { return b.proposals }

// withDB runs fn while holding the read lock, so Detach cannot close the
// connection underneath it.
func (b *Backend) withDB(fn func(db *sql.DB) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrBackendDetached
	}
	return fn(b.db)
}

// withTx runs fn inside a transaction, committing when fn returns nil.
func (b *Backend) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return b.withDB(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing transaction: %w", err)
		}
		return nil
	})
}

// newUUID generates a UUID v7 string for entity IDs.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
