package owners

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

const (
	addrA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	addrC = "0xcccccccccccccccccccccccccccccccccccccccc"
	addrD = "0xdddddddddddddddddddddddddddddddddddddddd"
)

func TestFindPredecessor(t *testing.T) {
	signers := []string{addrA, addrB, addrC}

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "middle element", target: addrB, want: addrA},
		{name: "last element", target: addrC, want: addrB},
		{name: "first element yields sentinel", target: addrA, want: SentinelOwners},
		{name: "case-insensitive match", target: "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB", want: addrA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindPredecessor(signers, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindPredecessorCanonicalizesResult(t *testing.T) {
	got, err := FindPredecessor([]string{"0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", addrB}, addrB)
	require.NoError(t, err)
	assert.Equal(t, addrA, got)
}

func TestFindPredecessorMissing(t *testing.T) {
	_, err := FindPredecessor([]string{addrA, addrB, addrC}, addrD)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = FindPredecessor(nil, addrA)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestWithout(t *testing.T) {
	signers := []string{addrA, addrB, addrC}
	assert.Equal(t, []string{addrA, addrC}, Without(signers, addrB))
	assert.Equal(t, []string{addrA, addrB, addrC}, signers, "input must not be modified")
	assert.Equal(t, signers, Without(signers, addrD))
}
