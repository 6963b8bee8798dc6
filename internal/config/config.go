package config

import (
	"path/filepath"
	"slices"

	"github.com/adrg/xdg"
	"github.com/nao1215/humantouch/internal/document"
	"github.com/nao1215/humantouch/internal/replace"
)

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "humantouch"

	// DefaultPattern selects every HTML file below the working directory.
	DefaultPattern = "**/*.html"

	// DefaultConcurrency is the number of files normalized at once.
	DefaultConcurrency = 8
)

// Config holds all options of a normalization run.
// It is populated from defaults, then the config file, then CLI flags,
// and passed down explicitly rather than kept in global state.
type Config struct {
	// Patterns are the glob patterns of the files to normalize.
	Patterns []string

	// MaxConcurrency bounds the number of files processed at once.
	MaxConcurrency int

	// Backup copies each file to <path>.bak before overwriting it.
	Backup bool

	// Aggressive enables the aggressive rule tier.
	Aggressive bool

	// DryRun reports what would change without writing.
	DryRun bool

	// FailOnHazards makes the run fail when invisible or bidi characters
	// are found.
	FailOnHazards bool

	// Exclude lists the exclusion zone selectors, such as "pre" or
	// "[contenteditable]".
	Exclude []string

	// Attributes lists the attribute names whose values are normalized.
	Attributes []string

	// DisableRules names replacement rules to switch off.
	DisableRules []string

	// JSONReport and MarkdownReport select the report format.
	// They are mutually exclusive; neither means the simple text report.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile receives the report instead of stdout when set.
	ReportFile string

	// NoHistory disables saving the run to the history database.
	NoHistory bool

	// DBDir holds the history database. Defaults to XDGDataDir().
	DBDir string

	// ConfigFilePath is the explicit config file given with --config.
	ConfigFilePath string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	zones := document.DefaultExclusionZones()
	exclude := make([]string, len(zones))
	for i, z := range zones {
		exclude[i] = z.String()
	}
	return &Config{
		Patterns:       []string{DefaultPattern},
		MaxConcurrency: DefaultConcurrency,
		Exclude:        exclude,
		Attributes:     document.DefaultAttributes(),
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for humantouch.
// On Linux: ~/.local/share/humantouch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for humantouch.
// On Linux: ~/.config/humantouch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Patterns) == 0 || slices.Contains(c.Patterns, "") {
		return ErrNoPattern
	}
	if c.MaxConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if _, err := c.ExclusionZones(); err != nil {
		return err
	}
	if unknown := replace.UnknownRules(c.DisableRules); len(unknown) > 0 {
		return &UnknownRulesError{Names: unknown}
	}
	return nil
}

// ExclusionZones parses Exclude.
func (c *Config) ExclusionZones() ([]document.ExclusionZone, error) {
	return document.ParseExclusionZones(c.Exclude)
}

// Normalizer builds the document normalizer described by the config.
func (c *Config) Normalizer() (*document.Normalizer, error) {
	zones, err := c.ExclusionZones()
	if err != nil {
		return nil, err
	}
	return document.NewNormalizer(
		document.WithExclusionZones(zones),
		document.WithAttributes(c.Attributes),
		document.WithAggressive(c.Aggressive),
		document.WithEngine(replace.NewEngine(replace.WithoutRules(c.DisableRules...))),
	), nil
}
