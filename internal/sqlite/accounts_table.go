package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

// AccountsTable stores custodial accounts.
type AccountsTable struct {
	backend *Backend
}

const accountColumns = "account_id, network, address, status, created_by, created_at, updated_at"

// Get retrieves an account by ID. Returns ErrNotFound if absent.
func (at *AccountsTable) Get(ctx context.Context, id string) (*types.Account, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: account id is required", types.ErrInvalidInput)
	}
	var a *types.Account
	err := at.backend.withDB(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE account_id = ?", id)
		var err error
		a, err = scanAccount(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting account %s: %w", id, err)
	}
	return a, nil
}

// FindByAddress returns the account deployed at address on network.
// Returns ErrNotFound if none is recorded.
func (at *AccountsTable) FindByAddress(ctx context.Context, network, address string) (*types.Account, error) {
	var a *types.Account
	err := at.backend.withDB(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			"SELECT "+accountColumns+" FROM accounts WHERE network = ? AND address = ? ORDER BY created_at ASC LIMIT 1",
			network, address)
		var err error
		a, err = scanAccount(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s on %s", types.ErrNotFound, address, network)
	}
	if err != nil {
		return nil, fmt.Errorf("finding account %s: %w", address, err)
	}
	return a, nil
}

// List returns all accounts, oldest first.
func (at *AccountsTable) List(ctx context.Context) ([]*types.Account, error) {
	var out []*types.Account
	err := at.backend.withDB(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY created_at ASC")
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			a, err := scanAccount(rows)
			if err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	if out == nil {
		out = []*types.Account{}
	}
	return out, nil
}

// Save creates the account when AccountID is empty, generating its ID, and
// otherwise updates the existing row. Returns the account ID.
func (at *AccountsTable) Save(ctx context.Context, a *types.Account) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	isCreate := a.AccountID == ""
	if isCreate {
		a.AccountID = newUUID()
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	err := at.backend.withDB(func(db *sql.DB) error {
		if isCreate {
			_, err := db.ExecContext(ctx,
				"INSERT INTO accounts ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
				a.AccountID, a.Network, a.Address, a.Status, a.CreatedBy, formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
			return err
		}
		res, err := db.ExecContext(ctx,
			"UPDATE accounts SET network = ?, address = ?, status = ?, created_by = ?, updated_at = ? WHERE account_id = ?",
			a.Network, a.Address, a.Status, a.CreatedBy, formatTime(a.UpdatedAt), a.AccountID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return types.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("saving account: %w", err)
	}
	return a.AccountID, nil
}

// Delete removes an account and, by cascade, its signer configuration. It
// fails while bindings or proposals still reference the account. Returns
// ErrNotFound if absent.
func (at *AccountsTable) Delete(ctx context.Context, id string) error {
	err := at.backend.withDB(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, "DELETE FROM accounts WHERE account_id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return types.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("%w: account %s", types.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("deleting account %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*types.Account, error) {
	var a types.Account
	var createdAt, updatedAt string
	if err := row.Scan(&a.AccountID, &a.Network, &a.Address, &a.Status, &a.CreatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if a.CreatedAt, err = parseTime("account created_at", createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime("account updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
