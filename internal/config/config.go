package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// VaultDir is the directory containing the markdown notes that hold
	// activity blocks. Defaults to the current working directory.
	VaultDir string `json:"vault_dir,omitempty"`

	// Heading is the section heading under which activity blocks live.
	Heading string `json:"heading,omitempty"`

	// DefaultNote is the vault-relative note path used by clock operations
	// when no explicit note is given (e.g. a running log note).
	DefaultNote string `json:"default_note,omitempty"`

	// GoalsNote is the vault-relative note containing the goals block.
	GoalsNote string `json:"goals_note,omitempty"`

	// DBMaxOpenConns limits the maximum number of open index database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle index database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultHeading is the heading activity blocks are stored under when the
// config doesn't override it.
const DefaultHeading = "Activities"

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Heading:   DefaultHeading,
		GoalsNote: "Goals.md",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.tally.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithVault loads configuration from both global (~/.tally) and
// vault-local (.tally) directories. The vault config is found by walking
// upward from startDir to the nearest .tally/config.json.
// Vault config takes precedence for scalar values; arrays are merged.
// Either or both configs may be missing.
func LoadWithVault(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	vaultConfigPath := FindVaultConfig(startDir)
	local, err := loadFileRaw(vaultConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then vault-local
	return Merge(Merge(DefaultConfig(), global), local), nil
}

// FindVaultConfig walks upward from startDir to find the nearest .tally/config.json.
// Returns the path if found, or empty string if not found.
func FindVaultConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".tally", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, not found
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.VaultDir = overlay.VaultDir
	if result.VaultDir == "" {
		result.VaultDir = base.VaultDir
	}

	result.Heading = overlay.Heading
	if result.Heading == "" {
		result.Heading = base.Heading
	}

	result.DefaultNote = overlay.DefaultNote
	if result.DefaultNote == "" {
		result.DefaultNote = base.DefaultNote
	}

	result.GoalsNote = overlay.GoalsNote
	if result.GoalsNote == "" {
		result.GoalsNote = base.GoalsNote
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
