package treasury

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

// CreateRequest describes a new treasury. Admin signers come from the
// group's administrators; additional signers are entered by hand. Both lists
// are merged in that order.
type CreateRequest struct {
	GroupID           string   `json:"group_id"`
	Network           string   `json:"network"`
	Threshold         int      `json:"threshold"`
	AdminSigners      []string `json:"admin_signers"`
	AdditionalSigners []string `json:"additional_signers"`
	SaltNonce         *int64   `json:"salt_nonce,omitempty"`
	CreatedBy         string   `json:"created_by"`
}

// Create records a pending account with its signer configuration and binds
// it to the group. Deployment happens elsewhere; Activate records it.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Treasury, error) {
	if req.GroupID == "" {
		return nil, fmt.Errorf("%w: group id is required", types.ErrInvalidInput)
	}
	if !types.ValidNetwork(req.Network) {
		return nil, fmt.Errorf("%w: unknown network %q", types.ErrInvalidInput, req.Network)
	}
	has, err := s.Bindings.HasBinding(ctx, req.GroupID)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, fmt.Errorf("%w: group %s", types.ErrAlreadyBound, req.GroupID)
	}

	signers := make([]string, 0, len(req.AdminSigners)+len(req.AdditionalSigners))
	for _, raw := range append(append([]string{}, req.AdminSigners...), req.AdditionalSigners...) {
		if strings.TrimSpace(raw) != "" {
			signers = append(signers, raw)
		}
	}
	salt := s.now().Unix()
	if req.SaltNonce != nil {
		salt = *req.SaltNonce
	}
	cfg := &types.SignerConfiguration{
		Signers:   signers,
		Threshold: req.Threshold,
		Version:   types.DefaultSafeVersion,
		SaltNonce: salt,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	account := &types.Account{
		Network:   req.Network,
		Status:    types.AccountStatusPending,
		CreatedBy: req.CreatedBy,
	}
	if _, err := s.Accounts.Save(ctx, account); err != nil {
		return nil, err
	}
	cfg.AccountID = account.AccountID
	if err := s.Configurations.Put(ctx, cfg); err != nil {
		s.discardAccount(ctx, req.GroupID, account.AccountID, err)
		return nil, err
	}
	b, err := s.Bindings.Bind(ctx, req.GroupID, account.AccountID)
	if err != nil {
		s.discardAccount(ctx, req.GroupID, account.AccountID, err)
		return nil, err
	}

	s.logger.Info("treasury created",
		zap.String("group_id", req.GroupID),
		zap.String("account_id", account.AccountID),
		zap.String("network", account.Network),
		zap.Int("signers", len(cfg.Signers)),
		zap.Int("threshold", cfg.Threshold),
	)
	return &Treasury{Account: account, Configuration: cfg, Binding: b}, nil
}

// discardAccount removes an account Create could not bind. Its
// configuration goes with it.
func (s *Service) discardAccount(ctx context.Context, groupID, accountID string, cause error) {
	s.logger.Warn("discarding unbound treasury account",
		zap.String("group_id", groupID), zap.String("account_id", accountID), zap.Error(cause))
	if err := s.Accounts.Delete(context.WithoutCancel(ctx), accountID); err != nil {
		s.logger.Error("discarding unbound treasury account",
			zap.String("account_id", accountID), zap.Error(err))
	}
}

// Activate records that accountID has been deployed at address.
func (s *Service) Activate(ctx context.Context, accountID, address string) (*types.Account, error) {
	account, err := s.Accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if err := account.Activate(address); err != nil {
		return nil, fmt.Errorf("activating account %s: %w", accountID, err)
	}
	if _, err := s.Accounts.Save(ctx, account); err != nil {
		return nil, err
	}
	s.invalidateAccount(ctx, accountID)
	s.logger.Info("treasury activated", zap.String("account_id", accountID), zap.String("address", account.Address))
	return account, nil
}

// ReconnectRequest points a group at an existing, deployed Safe.
type ReconnectRequest struct {
	GroupID   string `json:"group_id"`
	Address   string `json:"address"`
	Network   string `json:"network"`
	CreatedBy string `json:"created_by"`
}

// Reconnect verifies the Safe at req.Address, records it as an active
// account with its on-chain owners and threshold, and replaces the group's
// binding with it.
func (s *Service) Reconnect(ctx context.Context, req ReconnectRequest) (*Treasury, error) {
	if req.GroupID == "" {
		return nil, fmt.Errorf("%w: group id is required", types.ErrInvalidInput)
	}
	if !types.ValidNetwork(req.Network) {
		return nil, fmt.Errorf("%w: unknown network %q", types.ErrInvalidInput, req.Network)
	}
	address, err := types.CanonicalAddress(req.Address)
	if err != nil {
		return nil, err
	}

	v := s.Checker.VerifySafeAddress(ctx, address, req.Network)
	if !v.Valid {
		return nil, fmt.Errorf("%w: safe %s could not be verified: %s", types.ErrInvalidInput, address, v.Error)
	}

	account, err := s.Accounts.FindByAddress(ctx, req.Network, address)
	switch {
	case errors.Is(err, types.ErrNotFound):
		account = &types.Account{
			Network:   req.Network,
			Address:   address,
			Status:    types.AccountStatusActive,
			CreatedBy: req.CreatedBy,
		}
		if _, err := s.Accounts.Save(ctx, account); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	cfg := &types.SignerConfiguration{
		AccountID: account.AccountID,
		Signers:   v.Info.Owners,
		Threshold: v.Info.Threshold,
		Version:   v.Info.Version,
	}
	if existing, err := s.Configurations.Get(ctx, account.AccountID); err == nil {
		cfg.SaltNonce = existing.SaltNonce
	}
	if err := s.Configurations.Put(ctx, cfg); err != nil {
		return nil, fmt.Errorf("storing on-chain configuration: %w", err)
	}

	b, err := s.Bindings.Rebind(ctx, req.GroupID, account.AccountID)
	if err != nil {
		return nil, err
	}
	s.invalidateAccount(ctx, account.AccountID)
	s.logger.Info("treasury reconnected",
		zap.String("group_id", req.GroupID),
		zap.String("account_id", account.AccountID),
		zap.String("address", address),
	)
	return &Treasury{Account: account, Configuration: cfg, Binding: b}, nil
}
