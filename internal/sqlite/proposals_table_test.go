package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

func newProposal(accountID string, nonce int64) *types.Proposal {
	return &types.Proposal{
		AccountID:   accountID,
		Nonce:       nonce,
		To:          testSafe,
		Data:        []byte{0x0d, 0x58, 0x2f, 0x13},
		CreatedBy:   types.SystemCreator,
		Description: "test",
	}
}

func TestProposalsTable_MaxNonce(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	acct := seedAccount(t, b, types.AccountStatusActive, testSafe)

	_, ok, err := b.Proposals().MaxNonce(ctx, acct)
	require.NoError(t, err)
	assert.False(t, ok)

	for n := int64(0); n < 3; n++ {
		_, err := b.Proposals().Insert(ctx, newProposal(acct, n))
		require.NoError(t, err)
	}

	max, ok, err := b.Proposals().MaxNonce(ctx, acct)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), max)
}

func TestProposalsTable_InsertDefaults(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	acct := seedAccount(t, b, types.AccountStatusActive, testSafe)

	p := newProposal(acct, 0)
	id, err := b.Proposals().Insert(ctx, p)
	require.NoError(t, err)

	got, err := b.Proposals().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalStatusPending, got.Status)
	assert.Equal(t, "0", got.Value)
	assert.Equal(t, types.OperationCall, got.Operation)
	assert.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", got.To)
	assert.Equal(t, []byte{0x0d, 0x58, 0x2f, 0x13}, got.Data)
}

func TestProposalsTable_DuplicateNonceConflicts(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	acct := seedAccount(t, b, types.AccountStatusActive, testSafe)
	other := seedAccount(t, b, types.AccountStatusActive, testSafe)

	_, err := b.Proposals().Insert(ctx, newProposal(acct, 0))
	require.NoError(t, err)

	dup := newProposal(acct, 0)
	_, err = b.Proposals().Insert(ctx, dup)
	assert.ErrorIs(t, err, types.ErrAllocationConflict)
	assert.Empty(t, dup.ProposalID)

	// Same nonce on another account is fine.
	_, err = b.Proposals().Insert(ctx, newProposal(other, 0))
	assert.NoError(t, err)
}

func TestProposalsTable_InsertValidation(t *testing.T) {
	b := newTestBackend(t)
	acct := seedAccount(t, b, types.AccountStatusActive, testSafe)

	tests := []struct {
		name   string
		mutate func(p *types.Proposal)
	}{
		{"negative nonce", func(p *types.Proposal) { p.Nonce = -1 }},
		{"bad target", func(p *types.Proposal) { p.To = "0x123" }},
		{"negative value", func(p *types.Proposal) { p.Value = "-5" }},
		{"fractional value", func(p *types.Proposal) { p.Value = "1.5" }},
		{"unknown operation", func(p *types.Proposal) { p.Operation = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProposal(acct, 0)
			tt.mutate(p)
			_, err := b.Proposals().Insert(context.Background(), p)
			assert.ErrorIs(t, err, types.ErrInvalidInput)
		})
	}
}

func TestProposalsTable_RecentOrdering(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	acct := seedAccount(t, b, types.AccountStatusActive, testSafe)

	for n := int64(0); n < 5; n++ {
		_, err := b.Proposals().Insert(ctx, newProposal(acct, n))
		require.NoError(t, err)
	}

	recent, err := b.Proposals().Recent(ctx, acct, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []int64{4, 3, 2}, []int64{recent[0].Nonce, recent[1].Nonce, recent[2].Nonce})

	all, err := b.Proposals().ListByAccount(ctx, acct)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, p := range all {
		assert.Equal(t, int64(i), p.Nonce)
	}

	_, err = b.Proposals().Get(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}
