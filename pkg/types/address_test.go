package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "checksummed address is lowercased",
			in:   "0x742d35Cc6634C0532925a3b8D8938d9e1Aac5C63",
			want: "0x742d35cc6634c0532925a3b8d8938d9e1aac5c63",
		},
		{
			name: "surrounding whitespace is trimmed",
			in:   "  0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA ",
			want: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		},
		{name: "too short", in: "0x1234", wantErr: true},
		{name: "not hex", in: "0xinvalidaddress", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalAddress(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSameAddress(t *testing.T) {
	assert.True(t, SameAddress("0xAbCd000000000000000000000000000000000001", "0xabcd000000000000000000000000000000000001"))
	assert.False(t, SameAddress("0xabcd000000000000000000000000000000000001", "0xabcd000000000000000000000000000000000002"))
}
