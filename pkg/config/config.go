/*
Package config manages the TOML configuration of dicoserve.

Lookup order is the -config flag, then <user config dir>/dicoserve/config.toml
(created with defaults when missing), then the built-in defaults. A file that
fails to decode as a whole is salvaged section by section.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/dicoserve/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure
type Config struct {
	Session SessionConfig `toml:"session"`
	Limits  LimitsConfig  `toml:"limits"`
	Output  OutputConfig  `toml:"output"`
	Server  ServerConfig  `toml:"server"`
	CLI     CliConfig     `toml:"cli"`
	Metrics MetricsConfig `toml:"metrics"`
}

// SessionConfig has options shared by every pass of a session.
type SessionConfig struct {
	Encoding     string `toml:"encoding"`
	ExportMorpho bool   `toml:"export_morpho"`
	Alphabet     string `toml:"alphabet"`
}

// LimitsConfig bounds the matchers against malformed dictionaries.
type LimitsConfig struct {
	MaxTokenLength    int `toml:"max_token_length"`
	MaxCompoundTokens int `toml:"max_compound_tokens"`
}

// OutputConfig names the files written in the text's _snt directory.
type OutputConfig struct {
	DLF     string `toml:"dlf"`
	DLC     string `toml:"dlc"`
	Err     string `toml:"err"`
	TagsErr string `toml:"tags_err"`
	Morpho  string `toml:"morpho"`
	TagsInd string `toml:"tags_ind"`
	Stats   string `toml:"stats"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	DictionaryCache int `toml:"dictionary_cache"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	MaxWordLength int `toml:"max_word_length"`
}

// MetricsConfig controls the Prometheus textfile dump.
type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/dicoserve
// 2. ~/Library/Application Support/dicoserve (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "dicoserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "dicoserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/dicoserve/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			cfg, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return cfg, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	cfg, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return cfg, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Encoding:     "utf16le",
			ExportMorpho: false,
		},
		Limits: LimitsConfig{
			MaxTokenLength:    1024,
			MaxCompoundTokens: 256,
		},
		Output: OutputConfig{
			DLF:     "dlf",
			DLC:     "dlc",
			Err:     "err",
			TagsErr: "tags_err",
			Morpho:  "morpho.dic",
			TagsInd: "tags.ind",
			Stats:   "stat_dic.n",
		},
		Server: ServerConfig{
			DictionaryCache: 8,
		},
		CLI: CliConfig{
			MaxWordLength: 256,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}
	if !utils.FileExists(configPath) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return cfg, nil
	}
	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file, falling back to a section by section
// recovery when the file does not decode as a whole.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, cfg); err != nil {
		return tryPartialParse(configPath)
	}
	cfg.normalize()
	return cfg, nil
}

func tryPartialParse(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return cfg, nil
	}
	if section, ok := utils.ExtractSection(raw, "session"); ok {
		extractSessionConfig(section, &cfg.Session)
	}
	if section, ok := utils.ExtractSection(raw, "limits"); ok {
		extractLimitsConfig(section, &cfg.Limits)
	}
	if section, ok := utils.ExtractSection(raw, "output"); ok {
		extractOutputConfig(section, &cfg.Output)
	}
	if section, ok := utils.ExtractSection(raw, "server"); ok {
		if val, ok := utils.ExtractInt(section, "dictionary_cache"); ok {
			cfg.Server.DictionaryCache = val
		}
	}
	if section, ok := utils.ExtractSection(raw, "cli"); ok {
		if val, ok := utils.ExtractInt(section, "max_word_length"); ok {
			cfg.CLI.MaxWordLength = val
		}
	}
	if section, ok := utils.ExtractSection(raw, "metrics"); ok {
		if val, ok := utils.ExtractString(section, "textfile"); ok {
			cfg.Metrics.Textfile = val
		}
	}
	cfg.normalize()
	return cfg, nil
}

func extractSessionConfig(data map[string]any, s *SessionConfig) {
	if val, ok := utils.ExtractString(data, "encoding"); ok {
		s.Encoding = val
	}
	if val, ok := utils.ExtractBool(data, "export_morpho"); ok {
		s.ExportMorpho = val
	}
	if val, ok := utils.ExtractString(data, "alphabet"); ok {
		s.Alphabet = val
	}
}

func extractLimitsConfig(data map[string]any, l *LimitsConfig) {
	if val, ok := utils.ExtractInt(data, "max_token_length"); ok {
		l.MaxTokenLength = val
	}
	if val, ok := utils.ExtractInt(data, "max_compound_tokens"); ok {
		l.MaxCompoundTokens = val
	}
}

func extractOutputConfig(data map[string]any, o *OutputConfig) {
	fields := map[string]*string{
		"dlf":      &o.DLF,
		"dlc":      &o.DLC,
		"err":      &o.Err,
		"tags_err": &o.TagsErr,
		"morpho":   &o.Morpho,
		"tags_ind": &o.TagsInd,
		"stats":    &o.Stats,
	}
	for key, dst := range fields {
		if val, ok := utils.ExtractString(data, key); ok && val != "" {
			*dst = val
		}
	}
}

// normalize replaces out of range values with their defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Session.Encoding == "" {
		c.Session.Encoding = def.Session.Encoding
	}
	if c.Limits.MaxTokenLength <= 0 {
		c.Limits.MaxTokenLength = def.Limits.MaxTokenLength
	}
	if c.Limits.MaxCompoundTokens <= 0 {
		c.Limits.MaxCompoundTokens = def.Limits.MaxCompoundTokens
	}
	if c.Server.DictionaryCache <= 0 {
		c.Server.DictionaryCache = def.Server.DictionaryCache
	}
	if c.CLI.MaxWordLength <= 0 {
		c.CLI.MaxWordLength = def.CLI.MaxWordLength
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(cfg *Config, configPath string) error {
	return utils.SaveTOMLFile(cfg, configPath)
}
