package treasury

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/internal/metrics"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

// weiPerEther is the decimal exponent between ether and wei.
const weiPerEther = 18

// ProposeRequest is a manually entered transaction. Value is in ether.
type ProposeRequest struct {
	GroupID     string `json:"group_id"`
	To          string `json:"to"`
	Value       string `json:"value"`
	Data        string `json:"data"`
	Operation   int    `json:"operation"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

// EtherToWei converts a non-negative decimal ether amount to a base-10 wei
// string. Amounts finer than one wei are rejected.
func EtherToWei(ether string) (string, error) {
	ether = strings.TrimSpace(ether)
	if ether == "" {
		return "0", nil
	}
	d, err := decimal.NewFromString(ether)
	if err != nil {
		return "", fmt.Errorf("%w: value %q is not a number", types.ErrInvalidInput, ether)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("%w: value must not be negative", types.ErrInvalidInput)
	}
	wei := d.Shift(weiPerEther)
	if !wei.IsInteger() {
		return "", fmt.Errorf("%w: value %s has more than %d decimals", types.ErrInvalidInput, ether, weiPerEther)
	}
	return wei.BigInt().String(), nil
}

// ParseData decodes 0x-prefixed hex call data. Empty input and a bare "0x"
// mean a plain transfer.
func ParseData(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0x" {
		return nil, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: data must be 0x-prefixed hex: %v", types.ErrInvalidInput, err)
	}
	return b, nil
}

// Propose validates req and stores it as a pending proposal under the next
// nonce of the group's treasury.
func (s *Service) Propose(ctx context.Context, req ProposeRequest) (*types.Proposal, error) {
	to, err := types.CanonicalAddress(req.To)
	if err != nil {
		return nil, err
	}
	wei, err := EtherToWei(req.Value)
	if err != nil {
		return nil, err
	}
	data, err := ParseData(req.Data)
	if err != nil {
		return nil, err
	}
	if req.Operation != types.OperationCall && req.Operation != types.OperationDelegateCall {
		return nil, fmt.Errorf("%w: operation must be 0 (call) or 1 (delegate call)", types.ErrInvalidInput)
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", types.ErrInvalidInput)
	}

	account, err := s.boundAccount(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, fmt.Errorf("%w: deploy the treasury before proposing transactions", types.ErrAccountNotActive)
	}

	p, err := s.Allocator.Allocate(ctx, account.AccountID, func(int64) *types.Proposal {
		return &types.Proposal{
			To:          to,
			Value:       wei,
			Data:        data,
			Operation:   req.Operation,
			Status:      types.ProposalStatusPending,
			CreatedBy:   req.CreatedBy,
			Description: description,
		}
	})
	if err != nil {
		return nil, err
	}

	metrics.ProposalsCreated.WithLabelValues(metrics.SourceManual).Inc()
	s.invalidateAccount(ctx, account.AccountID)
	s.logger.Info("transaction proposed",
		zap.String("group_id", req.GroupID),
		zap.String("account_id", account.AccountID),
		zap.Int64("nonce", p.Nonce),
	)
	return p, nil
}

// RecentProposals returns up to limit proposals of the group's treasury,
// highest nonce first.
func (s *Service) RecentProposals(ctx context.Context, groupID string, limit int) ([]*types.Proposal, error) {
	account, err := s.boundAccount(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.Proposals.Recent(ctx, account.AccountID, limit)
}
