package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

// BindingsTable stores group-to-account bindings.
type BindingsTable struct {
	backend *Backend
}

const bindingColumns = "binding_id, group_id, account_id, created_at"

// ListByGroup returns every binding of groupID, oldest first.
func (bt *BindingsTable) ListByGroup(ctx context.Context, groupID string) ([]*types.Binding, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: group id is required", types.ErrInvalidInput)
	}
	return bt.query(ctx,
		"SELECT "+bindingColumns+" FROM treasury_bindings WHERE group_id = ? ORDER BY created_at ASC, binding_id ASC",
		groupID)
}

// ListByAccount returns every binding that references accountID, oldest first.
func (bt *BindingsTable) ListByAccount(ctx context.Context, accountID string) ([]*types.Binding, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", types.ErrInvalidInput)
	}
	return bt.query(ctx,
		"SELECT "+bindingColumns+" FROM treasury_bindings WHERE account_id = ? ORDER BY created_at ASC, binding_id ASC",
		accountID)
}

// Insert creates a binding, generating its ID and creation time.
// It does not check the one-binding-per-group rule.
func (bt *BindingsTable) Insert(ctx context.Context, b *types.Binding) (string, error) {
	if b.GroupID == "" || b.AccountID == "" {
		return "", fmt.Errorf("%w: binding needs group and account", types.ErrInvalidInput)
	}
	b.BindingID = newUUID()
	b.CreatedAt = time.Now().UTC()

	err := bt.backend.withDB(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			"INSERT INTO treasury_bindings ("+bindingColumns+") VALUES (?, ?, ?, ?)",
			b.BindingID, b.GroupID, b.AccountID, formatTime(b.CreatedAt))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("inserting binding: %w", err)
	}
	return b.BindingID, nil
}

// DeleteByGroup removes every binding of groupID and returns how many were
// removed. Removing nothing is not an error.
func (bt *BindingsTable) DeleteByGroup(ctx context.Context, groupID string) (int64, error) {
	var n int64
	err := bt.backend.withDB(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, "DELETE FROM treasury_bindings WHERE group_id = ?", groupID)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("deleting bindings of group %s: %w", groupID, err)
	}
	return n, nil
}

// Replace deletes every binding of b.GroupID and inserts b in one
// transaction. Returns the new binding ID.
func (bt *BindingsTable) Replace(ctx context.Context, b *types.Binding) (string, error) {
	if b.GroupID == "" || b.AccountID == "" {
		return "", fmt.Errorf("%w: binding needs group and account", types.ErrInvalidInput)
	}
	id := newUUID()
	createdAt := time.Now().UTC()

	err := bt.backend.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM treasury_bindings WHERE group_id = ?", b.GroupID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO treasury_bindings ("+bindingColumns+") VALUES (?, ?, ?, ?)",
			id, b.GroupID, b.AccountID, formatTime(createdAt))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("replacing binding of group %s: %w", b.GroupID, err)
	}
	b.BindingID = id
	b.CreatedAt = createdAt
	return id, nil
}

func (bt *BindingsTable) query(ctx context.Context, query string, args ...any) ([]*types.Binding, error) {
	var out []*types.Binding
	err := bt.backend.withDB(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var b types.Binding
			var createdAt string
			if err := rows.Scan(&b.BindingID, &b.GroupID, &b.AccountID, &createdAt); err != nil {
				return fmt.Errorf("scanning binding: %w", err)
			}
			if b.CreatedAt, err = parseTime("binding created_at", createdAt); err != nil {
				return err
			}
			out = append(out, &b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("fetching bindings: %w", err)
	}

	// Return empty slice, not nil.
	if out == nil {
		out = []*types.Binding{}
	}
	return out, nil
}
