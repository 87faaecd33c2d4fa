package treasury

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

func TestEtherToWei(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "0", false},
		{"0", "0", false},
		{"1", "1000000000000000000", false},
		{"0.1", "100000000000000000", false},
		{" 2.5 ", "2500000000000000000", false},
		{"0.000000000000000001", "1", false},
		{"0.0000000000000000001", "", true},
		{"-1", "", true},
		{"abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := EtherToWei(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseData(t *testing.T) {
	b, err := ParseData("")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = ParseData("0x")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = ParseData("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)

	for _, bad := range []string{"deadbeef", "0xzz", "0xabc"} {
		_, err := ParseData(bad)
		assert.ErrorIs(t, err, types.ErrInvalidInput, bad)
	}
}

func TestPropose(t *testing.T) {
	ctx := context.Background()
	s, _, _ := setup(t)
	tr := createActive(t, s, "g1")

	p, err := s.Propose(ctx, ProposeRequest{
		GroupID: "g1", To: "0xCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC", Value: "0.1",
		Data: "0xdeadbeef", Operation: types.OperationDelegateCall, Description: "  pay vendor ", CreatedBy: "m1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), p.Nonce)
	assert.Equal(t, tr.Account.AccountID, p.AccountID)
	assert.Equal(t, signerC, p.To)
	assert.Equal(t, "100000000000000000", p.Value)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, p.Data)
	assert.Equal(t, types.OperationDelegateCall, p.Operation)
	assert.Equal(t, "pay vendor", p.Description)
	assert.Equal(t, types.ProposalStatusPending, p.Status)

	p2, err := s.Propose(ctx, ProposeRequest{GroupID: "g1", To: signerC, Description: "second"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p2.Nonce)
	assert.Equal(t, "0", p2.Value)

	recent, err := s.RecentProposals(ctx, "g1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(1), recent[0].Nonce)
}

func TestPropose_Validation(t *testing.T) {
	ctx := context.Background()
	s, _, _ := setup(t)
	createActive(t, s, "g1")

	base := ProposeRequest{GroupID: "g1", To: signerC, Value: "1", Description: "d"}
	tests := []struct {
		name   string
		mutate func(r *ProposeRequest)
	}{
		{"bad address", func(r *ProposeRequest) { r.To = "0x12" }},
		{"negative value", func(r *ProposeRequest) { r.Value = "-0.1" }},
		{"bad data", func(r *ProposeRequest) { r.Data = "nothex" }},
		{"bad operation", func(r *ProposeRequest) { r.Operation = 3 }},
		{"blank description", func(r *ProposeRequest) { r.Description = "   " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			_, err := s.Propose(ctx, r)
			assert.ErrorIs(t, err, types.ErrInvalidInput)
		})
	}
}

func TestPropose_RequiresActiveTreasury(t *testing.T) {
	ctx := context.Background()
	s, _, _ := setup(t)

	_, err := s.Propose(ctx, ProposeRequest{GroupID: "g1", To: signerC, Description: "d"})
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = s.Create(ctx, CreateRequest{GroupID: "g1", Network: types.NetworkSepolia, Threshold: 1, AdminSigners: []string{signerA}})
	require.NoError(t, err)
	_, err = s.Propose(ctx, ProposeRequest{GroupID: "g1", To: signerC, Description: "d"})
	assert.ErrorIs(t, err, types.ErrAccountNotActive)
}
