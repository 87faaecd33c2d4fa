package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/treasury/internal/binding"
	"github.com/mesh-intelligence/treasury/internal/nonce"
	"github.com/mesh-intelligence/treasury/internal/paths"
	"github.com/mesh-intelligence/treasury/internal/signersync"
	"github.com/mesh-intelligence/treasury/internal/treasury"
	"github.com/mesh-intelligence/treasury/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "TREASURY"

	cfgKeyBackend         = "backend"
	cfgKeyDataDir         = "data_dir"
	cfgKeyLogLevel        = "log_level"
	cfgKeySentryDSN       = "sentry_dsn"
	cfgKeyHTTPListen      = "http.listen"
	cfgKeyAddThreshold    = "sync.add_threshold"
	cfgKeyRemoveThreshold = "sync.remove_threshold"
	cfgKeyNonceAttempts   = "nonce.max_attempts"
	cfgKeyCacheSize       = "cache.size"
	cfgKeyCacheTTL        = "cache.ttl"

	defaultLogLevel   = "info"
	defaultHTTPListen = ":8080"
)

// configFile is the structure written to config.yaml.
type configFile struct {
	Backend  string `yaml:"backend"`
	DataDir  string `yaml:"data_dir,omitempty"`
	LogLevel string `yaml:"log_level"`
	HTTP     struct {
		Listen string `yaml:"listen"`
	} `yaml:"http"`
	Sync struct {
		AddThreshold    string `yaml:"add_threshold"`
		RemoveThreshold string `yaml:"remove_threshold"`
	} `yaml:"sync"`
	Nonce struct {
		MaxAttempts int `yaml:"max_attempts"`
	} `yaml:"nonce"`
	Cache struct {
		Size int    `yaml:"size"`
		TTL  string `yaml:"ttl"`
	} `yaml:"cache"`
}

func defaultConfigFile(dataDir string) configFile {
	cfg := configFile{Backend: types.BackendSQLite, DataDir: dataDir, LogLevel: defaultLogLevel}
	cfg.HTTP.Listen = defaultHTTPListen
	cfg.Sync.AddThreshold = signersync.AddKeep
	cfg.Sync.RemoveThreshold = signersync.RemoveClamp
	cfg.Nonce.MaxAttempts = nonce.DefaultMaxAttempts
	cfg.Cache.Size = binding.DefaultCacheSize
	cfg.Cache.TTL = binding.DefaultCacheTTL.String()
	return cfg
}

// settings is the resolved runtime configuration.
type settings struct {
	Backend    string
	DataDir    string
	LogLevel   string
	SentryDSN  string
	HTTPListen string
	Treasury   treasury.Settings
}

// resolveConfigDir returns the config directory from flag, env, or default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flags.configDir)
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. TREASURY_* environment variables override file
// values (TREASURY_SYNC_ADD_THRESHOLD for sync.add_threshold).
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), ""); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	def := defaultConfigFile("")
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyHTTPListen, def.HTTP.Listen)
	v.SetDefault(cfgKeyAddThreshold, def.Sync.AddThreshold)
	v.SetDefault(cfgKeyRemoveThreshold, def.Sync.RemoveThreshold)
	v.SetDefault(cfgKeyNonceAttempts, def.Nonce.MaxAttempts)
	v.SetDefault(cfgKeyCacheSize, def.Cache.Size)
	v.SetDefault(cfgKeyCacheTTL, def.Cache.TTL)
	v.SetDefault(cfgKeySentryDSN, "")
	v.SetDefault(cfgKeyDataDir, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// settingsFrom validates the values in v.
func settingsFrom(v *viper.Viper) (settings, error) {
	st := settings{
		Backend:    v.GetString(cfgKeyBackend),
		DataDir:    v.GetString(cfgKeyDataDir),
		LogLevel:   v.GetString(cfgKeyLogLevel),
		SentryDSN:  v.GetString(cfgKeySentryDSN),
		HTTPListen: v.GetString(cfgKeyHTTPListen),
		Treasury: treasury.Settings{
			Policy: signersync.Policy{
				OnAdd:    v.GetString(cfgKeyAddThreshold),
				OnRemove: v.GetString(cfgKeyRemoveThreshold),
			},
			NonceMaxAttempts: v.GetInt(cfgKeyNonceAttempts),
			CacheSize:        v.GetInt(cfgKeyCacheSize),
			CacheTTL:         v.GetDuration(cfgKeyCacheTTL),
		},
	}
	if err := (types.Config{Backend: st.Backend}).Validate(); err != nil {
		return settings{}, fmt.Errorf("%w: backend %q: %v", types.ErrInvalidInput, st.Backend, err)
	}
	if err := st.Treasury.Policy.Validate(); err != nil {
		return settings{}, err
	}
	if st.Treasury.CacheTTL < 0 {
		return settings{}, fmt.Errorf("%w: %s must not be negative", types.ErrInvalidInput, cfgKeyCacheTTL)
	}
	if st.Treasury.NonceMaxAttempts < 1 {
		return settings{}, fmt.Errorf("%w: %s must be at least 1", types.ErrInvalidInput, cfgKeyNonceAttempts)
	}
	return st, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist.
func writeConfigIfMissing(path, dataDir string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	data, err := yaml.Marshal(defaultConfigFile(dataDir))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
