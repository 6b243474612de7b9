// pkg/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds cbuild configuration
type Config struct {
	Arch          string `yaml:"arch" mapstructure:"arch"`
	BuildRoot     string `yaml:"build_root" mapstructure:"build_root"`
	SourcesDir    string `yaml:"sources_dir" mapstructure:"sources_dir"`
	TemplatesDir  string `yaml:"templates_dir" mapstructure:"templates_dir"`
	TemplatesRepo string `yaml:"templates_repo" mapstructure:"templates_repo"`
	ProfilesDir   string `yaml:"profiles_dir" mapstructure:"profiles_dir"`
	Journal       string `yaml:"journal" mapstructure:"journal"`
	Jobs          int    `yaml:"jobs" mapstructure:"jobs"`
	Debug         bool   `yaml:"debug" mapstructure:"debug"`
}

// DefaultRepo is where sync fetches the template tree from
const DefaultRepo = "https://github.com/arc-language/cbuild"

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	base := cacheDir()
	return &Config{
		Arch:          "", // host architecture
		BuildRoot:     filepath.Join(base, "builddir"),
		SourcesDir:    filepath.Join(base, "sources"),
		TemplatesDir:  filepath.Join(base, "templates"),
		TemplatesRepo: DefaultRepo,
		ProfilesDir:   filepath.Join(configDir(), "profiles"),
		Journal:       filepath.Join(base, "journal.db"),
		Jobs:          runtime.NumCPU(),
		Debug:         false,
	}
}

// DefaultPath is the config file used when none is given
func DefaultPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// LoadConfig loads configuration from a YAML file. Every key can be
// overridden from the environment as CBUILD_<KEY>, e.g. CBUILD_JOBS=8.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CBUILD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("arch", defaults.Arch)
	v.SetDefault("build_root", defaults.BuildRoot)
	v.SetDefault("sources_dir", defaults.SourcesDir)
	v.SetDefault("templates_dir", defaults.TemplatesDir)
	v.SetDefault("templates_repo", defaults.TemplatesRepo)
	v.SetDefault("profiles_dir", defaults.ProfilesDir)
	v.SetDefault("journal", defaults.Journal)
	v.SetDefault("jobs", defaults.Jobs)
	v.SetDefault("debug", defaults.Debug)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	return &cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func cacheDir() string {
	if path := os.Getenv("CBUILD_CACHE"); path != "" {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cbuild")
	}

	return filepath.Join(home, ".cache", "cbuild")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cbuild")
	}
	return filepath.Join(home, ".config", "cbuild")
}
