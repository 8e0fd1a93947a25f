package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Site       SiteConfig      `yaml:"site"`
	Content    ContentConfig   `yaml:"content"`
	Output     OutputConfig    `yaml:"output"`
	Preprocess ToolConfig      `yaml:"preprocess"`
	Generator  GeneratorConfig `yaml:"generator"`
	Publish    PublishConfig   `yaml:"publish"`
	Verify     VerifyConfig    `yaml:"verify"`
	Logging    LoggingConfig   `yaml:"logging"`
	Metrics    MetricsConfig   `yaml:"metrics"`
	Notify     NotifyConfig    `yaml:"notify"`
	History    HistoryConfig   `yaml:"history"`
	Watch      WatchConfig     `yaml:"watch"`
	Daemon     DaemonConfig    `yaml:"daemon"`
}

// SiteConfig describes the published site.
type SiteConfig struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// ContentConfig points at the documentation source directory.
type ContentConfig struct {
	Dir string `yaml:"dir"`
}

// OutputConfig describes the local staging tree for generated output.
type OutputConfig struct {
	Dir          string `yaml:"dir"`
	HTMLSubdir   string `yaml:"html_subdir"`
	ImagesSubdir string `yaml:"images_subdir"`
	// RemoveAfterPublish removes the whole output tree during the clean stage.
	RemoveAfterPublish bool `yaml:"remove_after_publish"`
}

// ToolConfig describes an external tool invocation.
type ToolConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
	Timeout string   `yaml:"timeout,omitempty"`
}

// TimeoutOrDefault parses the configured timeout, falling back to def.
func (t ToolConfig) TimeoutOrDefault(def time.Duration) time.Duration {
	if d, err := time.ParseDuration(t.Timeout); err == nil && d > 0 {
		return d
	}
	return def
}

// GeneratorConfig describes the external site generator.
type GeneratorConfig struct {
	Command   string   `yaml:"command"`
	BuildArgs []string `yaml:"build_args,omitempty"`
	CleanArgs []string `yaml:"clean_args,omitempty"`
	Timeout   string   `yaml:"timeout,omitempty"`
}

// TimeoutOrDefault parses the configured timeout, falling back to def.
func (g GeneratorConfig) TimeoutOrDefault(def time.Duration) time.Duration {
	if d, err := time.ParseDuration(g.Timeout); err == nil && d > 0 {
		return d
	}
	return def
}

// AuthConfig represents git authentication configuration.
type AuthConfig struct {
	Type     string `yaml:"type"` // "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// PublishConfig controls publication of the generated HTML tree.
type PublishConfig struct {
	Enabled bool   `yaml:"enabled"`
	Branch  string `yaml:"branch"`
	Remote  string `yaml:"remote"`
	// RepoPath is the local repository the pages branch lives in.
	RepoPath    string `yaml:"repo_path,omitempty"`
	Message     string `yaml:"message,omitempty"`
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
	// Force overwrites the remote branch; Orphan publishes a single parentless
	// commit so the branch carries no history. The two are only valid together.
	Force    bool        `yaml:"force"`
	Orphan   bool        `yaml:"orphan"`
	CNAME    string      `yaml:"cname,omitempty"`
	NoJekyll bool        `yaml:"nojekyll"`
	Auth     *AuthConfig `yaml:"auth,omitempty"`
	Retry    RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig controls retry of transient publish failures.
type RetryConfig struct {
	MaxRetries   int    `yaml:"max_retries"`
	InitialDelay string `yaml:"initial_delay,omitempty"`
	MaxDelay     string `yaml:"max_delay,omitempty"`
	Backoff      string `yaml:"backoff,omitempty"` // fixed|linear|exponential
}

// VerifyConfig controls post-generation HTML verification.
type VerifyConfig struct {
	Links bool `yaml:"links"`
}

// LoggingConfig controls structured logging output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint (daemon mode).
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
}

// NotifyConfig controls build event publication over NATS.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig controls persistent build history.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// Path is the SQLite database file. It lives outside the output tree so
	// the clean stage cannot remove it.
	Path string `yaml:"path,omitempty"`
}

// WatchConfig controls rebuild debouncing in watch/daemon mode.
type WatchConfig struct {
	QuietWindow string `yaml:"quiet_window,omitempty"`
	MaxDelay    string `yaml:"max_delay,omitempty"`
}

// QuietWindowOrDefault parses the quiet window, falling back to def.
func (w WatchConfig) QuietWindowOrDefault(def time.Duration) time.Duration {
	if d, err := time.ParseDuration(w.QuietWindow); err == nil && d > 0 {
		return d
	}
	return def
}

// MaxDelayOrDefault parses the max delay, falling back to def.
func (w WatchConfig) MaxDelayOrDefault(def time.Duration) time.Duration {
	if d, err := time.ParseDuration(w.MaxDelay); err == nil && d > 0 {
		return d
	}
	return def
}

// DaemonConfig controls long-running mode.
type DaemonConfig struct {
	// RebuildInterval triggers periodic rebuilds regardless of file changes.
	// Empty disables scheduled rebuilds.
	RebuildInterval string `yaml:"rebuild_interval,omitempty"`
}

// RebuildIntervalOrZero parses the rebuild interval; zero means disabled.
func (d DaemonConfig) RebuildIntervalOrZero() time.Duration {
	if dur, err := time.ParseDuration(d.RebuildInterval); err == nil && dur > 0 {
		return dur
	}
	return 0
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env if present; existing process environment wins.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Documentation Site"
	}
	if c.Content.Dir == "" {
		c.Content.Dir = "notebooks"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "_build"
	}
	if c.Output.HTMLSubdir == "" {
		c.Output.HTMLSubdir = "html"
	}
	if c.Output.ImagesSubdir == "" {
		c.Output.ImagesSubdir = "_images"
	}
	if c.Generator.Command == "" {
		c.Generator.Command = "jb"
	}
	if len(c.Generator.BuildArgs) == 0 {
		c.Generator.BuildArgs = []string{"build"}
	}
	if len(c.Generator.CleanArgs) == 0 {
		c.Generator.CleanArgs = []string{"clean"}
	}
	if c.Publish.Branch == "" {
		c.Publish.Branch = "gh-pages"
	}
	if c.Publish.Remote == "" {
		c.Publish.Remote = "origin"
	}
	if c.Publish.RepoPath == "" {
		c.Publish.RepoPath = "."
	}
	if c.Publish.Message == "" {
		c.Publish.Message = "Publish documentation site"
	}
	if c.Publish.AuthorName == "" {
		c.Publish.AuthorName = "nbpress"
	}
	if c.Publish.AuthorEmail == "" {
		c.Publish.AuthorEmail = "nbpress@localhost"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = "nbpress.builds"
	}
	if c.History.Path == "" {
		c.History.Path = ".nbpress-history.db"
	}
}

// Validate enforces invariants that cannot be defaulted away.
func (c *Config) Validate() error {
	if c.Content.Dir == "" {
		return fmt.Errorf("content.dir must not be empty")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if c.Generator.Command == "" {
		return fmt.Errorf("generator.command must not be empty")
	}
	if c.Publish.Enabled {
		// Publishing is defined as a forced, history-free branch replacement.
		// A push with only one of the two flags would either rewrite history
		// non-forced (rejected by the remote) or force-push accumulated history.
		if !c.Publish.Force || !c.Publish.Orphan {
			return fmt.Errorf("publish.force and publish.orphan must both be enabled")
		}
		if c.Publish.Branch == "" {
			return fmt.Errorf("publish.branch must not be empty")
		}
	}
	if c.Notify.Enabled && c.Notify.URL == "" {
		return fmt.Errorf("notify.url must be set when notify.enabled is true")
	}
	return nil
}

// HTMLDir returns the directory the generated site is published from.
func (c *Config) HTMLDir() string {
	return filepath.Join(c.Output.Dir, c.Output.HTMLSubdir)
}

// ImagesDir returns the image staging directory inside the HTML tree.
func (c *Config) ImagesDir() string {
	return filepath.Join(c.Output.Dir, c.Output.HTMLSubdir, c.Output.ImagesSubdir)
}
