package sqlite

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/treasury/pkg/types"
)

// Snapshot file names written by Export.
const (
	AccountsFile       = "accounts.jsonl"
	ConfigurationsFile = "configurations.jsonl"
	BindingsFile       = "bindings.jsonl"
	ProposalsFile      = "proposals.jsonl"
)

// ExportStats counts the records written per file.
type ExportStats struct {
	Accounts       int `json:"accounts"`
	Configurations int `json:"configurations"`
	Bindings       int `json:"bindings"`
	Proposals      int `json:"proposals"`
}

// Export writes a JSONL snapshot of the database into dir, one record per
// line and one file per table. Each file is replaced atomically; proposals
// are ordered by account, then nonce.
func (b *Backend) Export(ctx context.Context, dir string) (ExportStats, error) {
	var stats ExportStats
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return stats, err
	}

	accounts, err := b.accounts.List(ctx)
	if err != nil {
		return stats, err
	}
	var configs []*types.SignerConfiguration
	var bindings []*types.Binding
	var proposals []*types.Proposal
	for _, a := range accounts {
		cfg, err := b.configurations.Get(ctx, a.AccountID)
		switch {
		case errors.Is(err, types.ErrNotFound):
		case err != nil:
			return stats, err
		default:
			configs = append(configs, cfg)
		}
		bs, err := b.bindings.ListByAccount(ctx, a.AccountID)
		if err != nil {
			return stats, err
		}
		bindings = append(bindings, bs...)
		ps, err := b.proposals.ListByAccount(ctx, a.AccountID)
		if err != nil {
			return stats, err
		}
		proposals = append(proposals, ps...)
	}

	files := []struct {
		name    string
		records any
		count   *int
		n       int
	}{
		{AccountsFile, accounts, &stats.Accounts, len(accounts)},
		{ConfigurationsFile, configs, &stats.Configurations, len(configs)},
		{BindingsFile, bindings, &stats.Bindings, len(bindings)},
		{ProposalsFile, proposals, &stats.Proposals, len(proposals)},
	}
	for _, f := range files {
		lines, err := marshalLines(f.records)
		if err != nil {
			return stats, fmt.Errorf("encoding %s: %w", f.name, err)
		}
		if err := writeJSONL(filepath.Join(dir, f.name), lines); err != nil {
			return stats, err
		}
		*f.count = f.n
	}
	return stats, nil
}

// marshalLines encodes each element of a slice as one JSON record.
func marshalLines(records any) ([]json.RawMessage, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	var lines []json.RawMessage
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// writeJSONL replaces path with records using temp file, fsync, rename.
func writeJSONL(path string, records []json.RawMessage) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
