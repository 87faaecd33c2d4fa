package sqlite

// Schema DDL for all tables. Bindings carry no uniqueness constraint on
// group_id: the one-binding-per-group rule is enforced by the binding
// service so it stays explicit. Proposals are unique per (account_id, nonce);
// a violation is how concurrent allocators detect a lost race.
const (
	createAccounts = `CREATE TABLE IF NOT EXISTS accounts (
    account_id TEXT PRIMARY KEY,
    network TEXT NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    created_by TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createBindings = `CREATE TABLE IF NOT EXISTS treasury_bindings (
    binding_id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    account_id TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (account_id) REFERENCES accounts(account_id)
);`

	createConfigurations = `CREATE TABLE IF NOT EXISTS signer_configurations (
    account_id TEXT PRIMARY KEY,
    signers TEXT NOT NULL,
    threshold INTEGER NOT NULL,
    version TEXT NOT NULL,
    salt_nonce INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (account_id) REFERENCES accounts(account_id) ON DELETE CASCADE
);`

	createProposals = `CREATE TABLE IF NOT EXISTS proposals (
    proposal_id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    nonce INTEGER NOT NULL CHECK (nonce >= 0),
    to_address TEXT NOT NULL,
    value TEXT NOT NULL,
    data BLOB NOT NULL,
    operation INTEGER NOT NULL,
    status TEXT NOT NULL,
    created_by TEXT NOT NULL,
    description TEXT NOT NULL,
    created_at TEXT NOT NULL,
    FOREIGN KEY (account_id) REFERENCES accounts(account_id)
);`
)

// Index DDL for common queries.
const (
	idxBindingsGroup         = `CREATE INDEX IF NOT EXISTS idx_bindings_group ON treasury_bindings(group_id);`
	idxBindingsAccount       = `CREATE INDEX IF NOT EXISTS idx_bindings_account ON treasury_bindings(account_id);`
	idxAccountsAddress       = `CREATE INDEX IF NOT EXISTS idx_accounts_address ON accounts(network, address);`
	idxProposalsAccountNonce = `CREATE UNIQUE INDEX IF NOT EXISTS idx_proposals_account_nonce ON proposals(account_id, nonce);`
	idxProposalsStatus       = `CREATE INDEX IF NOT EXISTS idx_proposals_status ON proposals(account_id, status);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createAccounts,
	createBindings,
	createConfigurations,
	createProposals,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxBindingsGroup,
	idxBindingsAccount,
	idxAccountsAddress,
	idxProposalsAccountNonce,
	idxProposalsStatus,
}
