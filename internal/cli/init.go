package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/treasury/internal/paths"
	"github.com/mesh-intelligence/treasury/internal/sqlite"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize treasury storage",
		Long:  "Create the configuration and data directories, write a default config.yaml, and create the database schema.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := resolveConfigDir()
	if err != nil {
		return systemErr("resolve config directory: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return systemErr("create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, configFileExt)
	dataDir, err := paths.ResolveDataDir(flags.dataDir, loadDataDirFromConfig(configPath))
	if err != nil {
		return systemErr("resolve data directory: %w", err)
	}
	if err := writeConfigIfMissing(configPath, dataDir); err != nil {
		return systemErr("write config: %w", err)
	}

	b := sqlite.NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}); err != nil {
		return systemErr("initialize storage: %w", err)
	}
	if err := b.Detach(); err != nil {
		return systemErr("finalize storage: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Treasury initialized\nconfig: %s\ndata:   %s\n", configPath, dataDir)
	return nil
}

// loadDataDirFromConfig reads data_dir from an existing config.yaml. Returns
// "" if the file is missing or unreadable.
func loadDataDirFromConfig(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ""
	}
	return cfg.DataDir
}
