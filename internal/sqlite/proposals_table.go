package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

// ProposalsTable stores transaction proposals. Nonces are unique per
// account; Insert reports a duplicate as ErrAllocationConflict.
type ProposalsTable struct {
	backend *Backend
}

const proposalColumns = "proposal_id, account_id, nonce, to_address, value, data, operation, status, created_by, description, created_at"

// MaxNonce returns the highest nonce recorded for accountID. ok is false when
// the account has no proposals.
func (pt *ProposalsTable) MaxNonce(ctx context.Context, accountID string) (max int64, ok bool, err error) {
	err = pt.backend.withDB(func(db *sql.DB) error {
		var n sql.NullInt64
		if err := db.QueryRowContext(ctx,
			"SELECT MAX(nonce) FROM proposals WHERE account_id = ?", accountID,
		).Scan(&n); err != nil {
			return err
		}
		max, ok = n.Int64, n.Valid
		return nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("reading max nonce of %s: %w", accountID, err)
	}
	return max, ok, nil
}

// Insert validates p and stores it, generating its ID and creation time.
// A proposal whose (account, nonce) pair already exists is rejected with
// ErrAllocationConflict and p keeps no ID.
func (pt *ProposalsTable) Insert(ctx context.Context, p *types.Proposal) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	id := newUUID()
	createdAt := time.Now().UTC()
	data := p.Data
	if data == nil {
		data = []byte{}
	}

	err := pt.backend.withDB(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			"INSERT INTO proposals ("+proposalColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			id, p.AccountID, p.Nonce, p.To, p.Value, data, p.Operation,
			p.Status, p.CreatedBy, p.Description, formatTime(createdAt))
		return err
	})
	if isUniqueViolation(err) {
		return "", fmt.Errorf("%w: account %s nonce %d", types.ErrAllocationConflict, p.AccountID, p.Nonce)
	}
	if err != nil {
		return "", fmt.Errorf("inserting proposal: %w", err)
	}
	p.ProposalID = id
	p.CreatedAt = createdAt
	return id, nil
}

// Get returns a proposal by ID. Returns ErrNotFound if absent.
func (pt *ProposalsTable) Get(ctx context.Context, id string) (*types.Proposal, error) {
	var p *types.Proposal
	err := pt.backend.withDB(func(db *sql.DB) error {
		var err error
		p, err = scanProposal(db.QueryRowContext(ctx,
			"SELECT "+proposalColumns+" FROM proposals WHERE proposal_id = ?", id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: proposal %s", types.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting proposal %s: %w", id, err)
	}
	return p, nil
}

// Recent returns at most limit proposals of accountID, highest nonce first.
// A non-positive limit returns every proposal.
func (pt *ProposalsTable) Recent(ctx context.Context, accountID string, limit int) ([]*types.Proposal, error) {
	query := "SELECT " + proposalColumns + " FROM proposals WHERE account_id = ? ORDER BY nonce DESC"
	args := []any{accountID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return pt.query(ctx, query, args...)
}

// ListByAccount returns every proposal of accountID in nonce order.
func (pt *ProposalsTable) ListByAccount(ctx context.Context, accountID string) ([]*types.Proposal, error) {
	return pt.query(ctx,
		"SELECT "+proposalColumns+" FROM proposals WHERE account_id = ? ORDER BY nonce ASC",
		accountID)
}

func (pt *ProposalsTable) query(ctx context.Context, query string, args ...any) ([]*types.Proposal, error) {
	var out []*types.Proposal
	err := pt.backend.withDB(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanProposal(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("fetching proposals: %w", err)
	}
	if out == nil {
		out = []*types.Proposal{}
	}
	return out, nil
}

func scanProposal(row rowScanner) (*types.Proposal, error) {
	var p types.Proposal
	var createdAt string
	if err := row.Scan(&p.ProposalID, &p.AccountID, &p.Nonce, &p.To, &p.Value, &p.Data,
		&p.Operation, &p.Status, &p.CreatedBy, &p.Description, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseTime("proposal created_at", createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlitedriver.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(serr.Error(), "UNIQUE")
	}
	return false
}
