// Package calldata encodes the owner-management calls of a Safe account.
// Payloads are a 4-byte selector followed by 32-byte big-endian words, as
// produced by the go-ethereum ABI packer. The encoding is deterministic and
// must match what signers re-derive bit for bit.
package calldata

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

// Method names and canonical signatures of the owner-manager calls.
const (
	MethodAddOwner    = "addOwnerWithThreshold"
	MethodRemoveOwner = "removeOwner"

	SignatureAddOwner    = "addOwnerWithThreshold(address,uint256)"
	SignatureRemoveOwner = "removeOwner(address,address,uint256)"
)

const ownerManagerJSON = `[
	{"type":"function","name":"addOwnerWithThreshold","stateMutability":"nonpayable","outputs":[],
	 "inputs":[{"name":"owner","type":"address"},{"name":"_threshold","type":"uint256"}]},
	{"type":"function","name":"removeOwner","stateMutability":"nonpayable","outputs":[],
	 "inputs":[{"name":"prevOwner","type":"address"},{"name":"owner","type":"address"},{"name":"_threshold","type":"uint256"}]}
]`

var ownerManager = mustParseABI(ownerManagerJSON)

// Selectors: keccak256 of the canonical signature, first four bytes.
var (
	AddOwnerSelector    = selector(SignatureAddOwner)
	RemoveOwnerSelector = selector(SignatureRemoveOwner)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parsing owner manager ABI: %v", err))
	}
	return parsed
}

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// EncodeAddOwner encodes addOwnerWithThreshold(owner, threshold).
func EncodeAddOwner(owner string, threshold int) ([]byte, error) {
	ownerAddr, err := parseAddress(owner)
	if err != nil {
		return nil, err
	}
	if threshold < 1 {
		return nil, fmt.Errorf("%w: threshold %d must be at least 1", types.ErrInvalidInput, threshold)
	}
	data, err := ownerManager.Pack(MethodAddOwner, ownerAddr, big.NewInt(int64(threshold)))
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", MethodAddOwner, err)
	}
	return data, nil
}

// EncodeRemoveOwner encodes removeOwner(prevOwner, owner, threshold).
// prevOwner is the owner that links to owner in the on-chain list.
func EncodeRemoveOwner(prevOwner, owner string, threshold int) ([]byte, error) {
	prevAddr, err := parseAddress(prevOwner)
	if err != nil {
		return nil, err
	}
	ownerAddr, err := parseAddress(owner)
	if err != nil {
		return nil, err
	}
	if threshold < 1 {
		return nil, fmt.Errorf("%w: threshold %d must be at least 1", types.ErrInvalidInput, threshold)
	}
	data, err := ownerManager.Pack(MethodRemoveOwner, prevAddr, ownerAddr, big.NewInt(int64(threshold)))
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", MethodRemoveOwner, err)
	}
	return data, nil
}

// Call is a decoded owner-management payload.
type Call struct {
	Method    string `json:"method"`
	PrevOwner string `json:"prev_owner,omitempty"` // set for removeOwner only
	Owner     string `json:"owner"`
	Threshold int64  `json:"threshold"`
}

// Decode unpacks an owner-management payload produced by this package.
func Decode(data []byte) (*Call, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: payload shorter than a selector", types.ErrInvalidInput)
	}
	method, err := ownerManager.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: unknown selector %x", types.ErrInvalidInput, data[:4])
	}
	values, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: unpacking %s: %v", types.ErrInvalidInput, method.Name, err)
	}

	call := &Call{Method: method.Name}
	var threshold *big.Int
	switch method.Name {
	case MethodAddOwner:
		call.Owner = lowerHex(values[0].(common.Address))
		threshold = values[1].(*big.Int)
	case MethodRemoveOwner:
		call.PrevOwner = lowerHex(values[0].(common.Address))
		call.Owner = lowerHex(values[1].(common.Address))
		threshold = values[2].(*big.Int)
	}
	if !threshold.IsInt64() {
		return nil, fmt.Errorf("%w: %s threshold %s out of range", types.ErrInvalidInput, method.Name, threshold)
	}
	call.Threshold = threshold.Int64()
	return call, nil
}

// IsAddOwner reports whether data starts with the addOwnerWithThreshold selector.
func IsAddOwner(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], AddOwnerSelector)
}

// IsRemoveOwner reports whether data starts with the removeOwner selector.
func IsRemoveOwner(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], RemoveOwnerSelector)
}

func parseAddress(s string) (common.Address, error) {
	canonical, err := types.CanonicalAddress(s)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(canonical), nil
}

func lowerHex(a common.Address) string {
	return strings.ToLower(a.Hex())
}
