package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides (BUNDLECHECK_OUTPUT_DIR, ...).
const EnvPrefix = "BUNDLECHECK"

// DefaultCacheFile is the cache file name under <output_dir>/cache.
const DefaultCacheFile = "bundlecheck.msgpack"

// Config holds all configuration for bundlecheck
type Config struct {
	OutputDir      string       `mapstructure:"output_dir" yaml:"output_dir"`
	Patterns       []string     `mapstructure:"patterns" yaml:"patterns,omitempty"`
	Exclude        []string     `mapstructure:"exclude" yaml:"exclude,omitempty"`
	IgnoreModules  []string     `mapstructure:"ignore_modules" yaml:"ignore_modules"`
	SourcePrefixes []string     `mapstructure:"source_prefixes" yaml:"source_prefixes"`
	Scan           ScanConfig   `mapstructure:"scan" yaml:"scan"`
	Cache          CacheConfig  `mapstructure:"cache" yaml:"cache"`
	Report         ReportConfig `mapstructure:"report" yaml:"report"`
}

// ScanConfig holds scanner tuning
type ScanConfig struct {
	Concurrency        int  `mapstructure:"concurrency" yaml:"concurrency"`
	ConcurrencyPercent int  `mapstructure:"concurrency_percent" yaml:"concurrency_percent"`
	DescribeConstructs bool `mapstructure:"describe_constructs" yaml:"describe_constructs"`
}

// CacheConfig controls the check-result cache
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path,omitempty"`
}

// ReportConfig controls report rendering
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

var defaultConfig = Config{
	OutputDir:      ".next",
	IgnoreModules:  []string{},
	SourcePrefixes: []string{"webpack://_N_E/"},
	Scan: ScanConfig{
		Concurrency:        0,
		ConcurrencyPercent: 50,
		DescribeConstructs: true,
	},
	Cache: CacheConfig{
		Enabled: false,
	},
	Report: ReportConfig{
		Format: "text",
	},
}

// DefaultConfig returns a copy of the built-in defaults.
func DefaultConfig() Config {
	c := defaultConfig
	c.IgnoreModules = append([]string{}, defaultConfig.IgnoreModules...)
	c.SourcePrefixes = append([]string{}, defaultConfig.SourcePrefixes...)
	return c
}

// projectConfigs are searched in order in the project directory.
var projectConfigs = []string{
	".bundlecheck.yaml",
	".bundlecheck.yml",
	".bundlecheck.json",
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("output_dir", defaultConfig.OutputDir)
	v.SetDefault("patterns", []string{})
	v.SetDefault("exclude", []string{})
	v.SetDefault("ignore_modules", defaultConfig.IgnoreModules)
	v.SetDefault("source_prefixes", defaultConfig.SourcePrefixes)
	v.SetDefault("scan.concurrency", defaultConfig.Scan.Concurrency)
	v.SetDefault("scan.concurrency_percent", defaultConfig.Scan.ConcurrencyPercent)
	v.SetDefault("scan.describe_constructs", defaultConfig.Scan.DescribeConstructs)
	v.SetDefault("cache.enabled", defaultConfig.Cache.Enabled)
	v.SetDefault("cache.path", "")
	v.SetDefault("report.format", defaultConfig.Report.Format)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig loads user-level configuration: defaults, then
// bundlecheck.yaml in $HOME or the bundlecheck config dir, then environment.
func LoadConfig() (*Config, error) {
	v := newViper()
	v.SetConfigName("bundlecheck")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	if configDir, err := GetConfigDir(); err == nil {
		v.AddConfigPath(configDir)
	}

	// Config file is optional; defaults apply when none is found
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return unmarshal(v)
}

// FindProjectConfig returns the first project config file in dir, or "".
func FindProjectConfig(dir string) string {
	for _, name := range projectConfigs {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// LoadProjectConfig layers the project config file found in dir over the
// user-level configuration. The project file is validated against the
// embedded schema first; environment variables still take precedence.
func LoadProjectConfig(dir string) (*Config, error) {
	v := newViper()
	v.SetConfigName("bundlecheck")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	if configDir, err := GetConfigDir(); err == nil {
		v.AddConfigPath(configDir)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if path := FindProjectConfig(dir); path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- fixed file names under the project dir
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := ValidateProjectConfig(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merge %s: %w", path, err)
		}
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// CachePath returns the configured cache file, defaulting to
// <output_dir>/cache/bundlecheck.msgpack.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(c.OutputDir, "cache", DefaultCacheFile)
}

// MarshalProjectYAML renders c as a project config file.
func (c *Config) MarshalProjectYAML() ([]byte, error) {
	body, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}
	header := "# bundlecheck project configuration\n"
	return append([]byte(header), body...), nil
}

// GetBundlecheckHome returns the bundlecheck home directory
func GetBundlecheckHome() (string, error) {
	// Check environment variable first
	if home := os.Getenv("BUNDLECHECK_HOME"); home != "" {
		return home, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".bundlecheck"), nil
}

// GetConfigDir returns the config directory within the bundlecheck home
// without creating it.
func GetConfigDir() (string, error) {
	homeDir, err := GetBundlecheckHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, "config"), nil
}

// GetLogDir returns the log directory, creating it when missing
func GetLogDir() (string, error) {
	homeDir, err := GetBundlecheckHome()
	if err != nil {
		return "", err
	}
	logDir := filepath.Join(homeDir, "logs")
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return logDir, nil
}
