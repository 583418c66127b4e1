package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the remote task service.
const DefaultBaseURL = "https://bubuverse.fun"

// Files locates the state and pool files.
type Files struct {
	Accounts   string `yaml:"accounts"`
	Progress   string `yaml:"progress"`
	Proxies    string `yaml:"proxies"`
	UserAgents string `yaml:"user_agents"`
}

// Pacing holds the fixed inter-request delays.
type Pacing struct {
	Account time.Duration `yaml:"account"`
	Skip    time.Duration `yaml:"skip"`
	Item    time.Duration `yaml:"item"`
	Jitter  time.Duration `yaml:"jitter"`
}

// Collect controls reward collection after check-in.
type Collect struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"` // collect when pending energy is strictly above
}

// Remote controls the API client.
type Remote struct {
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
	Timeout time.Duration `yaml:"timeout"`
}

// Browser controls the session provider.
type Browser struct {
	Bin               string        `yaml:"bin"`
	Headless          bool          `yaml:"headless"`
	Settle            time.Duration `yaml:"settle"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	ViewportWidth     int           `yaml:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height"`
}

// Config represents the harvest configuration.
type Config struct {
	BaseURL     string  `yaml:"base_url"`
	Concurrency int     `yaml:"concurrency"`
	Files       Files   `yaml:"files"`
	Pacing      Pacing  `yaml:"pacing"`
	Collect     Collect `yaml:"collect"`
	Remote      Remote  `yaml:"remote"`
	Browser     Browser `yaml:"browser"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Concurrency: 1,
		Files: Files{
			Accounts:   "wallet_sol.json",
			Progress:   "open.json",
			Proxies:    "proxy.txt",
			UserAgents: "ua.txt",
		},
		Pacing:  Pacing{Account: 3 * time.Second, Skip: time.Second, Item: 2 * time.Second},
		Collect: Collect{Enabled: true},
		Remote:  Remote{RPS: 2, Burst: 2, Timeout: 30 * time.Second},
		Browser: Browser{
			Headless:          true,
			Settle:            15 * time.Second,
			NavigationTimeout: 60 * time.Second,
			ViewportWidth:     1024,
			ViewportHeight:    768,
		},
	}
}

// Path returns the config file location for a working directory.
func Path(dir string) string {
	return filepath.Join(dir, ".harvest", "config.yaml")
}

// LoadConfig reads the config file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("HARVEST_BASE_URL"); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := lookup("HARVEST_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HARVEST_CONCURRENCY: %w", err)
		}
		cfg.Concurrency = n
	}
	if v, ok := lookup("HARVEST_BROWSER_BIN"); ok && v != "" {
		cfg.Browser.Bin = v
	}
	if v, ok := lookup("HARVEST_HEADLESS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HARVEST_HEADLESS: %w", err)
		}
		cfg.Browser.Headless = b
	}
	return nil
}

// Validate rejects values the run loop cannot work with.
func (c *Config) Validate() error {
	var problems []string
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		problems = append(problems, fmt.Sprintf("base_url %q must be http(s)", c.BaseURL))
	}
	if c.Concurrency < 1 {
		problems = append(problems, "concurrency must be at least 1")
	}
	if c.Pacing.Account < 0 || c.Pacing.Skip < 0 || c.Pacing.Item < 0 || c.Pacing.Jitter < 0 {
		problems = append(problems, "pacing delays must not be negative")
	}
	if c.Remote.RPS <= 0 || c.Remote.Burst < 1 {
		problems = append(problems, "remote.rps must be positive and remote.burst at least 1")
	}
	if c.Files.Accounts == "" || c.Files.Progress == "" || c.Files.Proxies == "" || c.Files.UserAgents == "" {
		problems = append(problems, "all files.* paths are required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DefaultDBPath returns ~/.harvest/harvest.db.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".harvest", "harvest.db"), nil
}
