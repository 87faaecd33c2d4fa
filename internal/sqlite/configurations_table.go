package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

// ConfigurationsTable stores one signer configuration per account. Signers
// are stored as a JSON array so their link order survives.
type ConfigurationsTable struct {
	backend *Backend
}

// Get returns the configuration of accountID. Returns ErrNotFound if absent.
func (ct *ConfigurationsTable) Get(ctx context.Context, accountID string) (*types.SignerConfiguration, error) {
	var c types.SignerConfiguration
	err := ct.backend.withDB(func(db *sql.DB) error {
		var signersJSON, updatedAt string
		err := db.QueryRowContext(ctx,
			"SELECT account_id, signers, threshold, version, salt_nonce, updated_at FROM signer_configurations WHERE account_id = ?",
			accountID,
		).Scan(&c.AccountID, &signersJSON, &c.Threshold, &c.Version, &c.SaltNonce, &updatedAt)
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(signersJSON), &c.Signers); err != nil {
			return fmt.Errorf("parsing signers: %w", err)
		}
		c.UpdatedAt, err = parseTime("configuration updated_at", updatedAt)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: signer configuration for account %s", types.ErrNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("getting signer configuration %s: %w", accountID, err)
	}
	return &c, nil
}

// Put validates c (canonicalizing its signers) and creates or replaces the
// configuration of c.AccountID.
func (ct *ConfigurationsTable) Put(ctx context.Context, c *types.SignerConfiguration) error {
	if c.AccountID == "" {
		return fmt.Errorf("%w: account id is required", types.ErrInvalidInput)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Version == "" {
		c.Version = types.DefaultSafeVersion
	}
	c.UpdatedAt = time.Now().UTC()

	signersJSON, err := json.Marshal(c.Signers)
	if err != nil {
		return fmt.Errorf("marshaling signers: %w", err)
	}

	err = ct.backend.withDB(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			`INSERT INTO signer_configurations (account_id, signers, threshold, version, salt_nonce, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(account_id) DO UPDATE SET
			   signers = excluded.signers,
			   threshold = excluded.threshold,
			   version = excluded.version,
			   salt_nonce = excluded.salt_nonce,
			   updated_at = excluded.updated_at`,
			c.AccountID, string(signersJSON), c.Threshold, c.Version, c.SaltNonce, formatTime(c.UpdatedAt))
		return err
	})
	if err != nil {
		return fmt.Errorf("saving signer configuration %s: %w", c.AccountID, err)
	}
	return nil
}
