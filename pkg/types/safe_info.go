package types

// SafeInfo is the on-chain state of an account as reported by a chain-state
// provider. It is the source of truth and may disagree with the locally
// stored SignerConfiguration.
type SafeInfo struct {
	Address   string   `json:"address"`
	Balance   string   `json:"balance,omitempty"` // wei, base 10
	Nonce     int64    `json:"nonce"`
	Threshold int      `json:"threshold"`
	Owners    []string `json:"owners"`
	Version   string   `json:"version,omitempty"`

	// BalanceError is set when the owner lookup succeeded but the balance
	// lookup did not. Balance is then unknown, not zero.
	BalanceError string `json:"balance_error,omitempty"`
}
