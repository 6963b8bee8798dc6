package config

// File represents the structure of the .humantouch configuration file.
// Unset keys leave the corresponding Config field unchanged.
type File struct {
	Patterns      []string `yaml:"patterns,omitempty"`
	Concurrency   *int     `yaml:"concurrency,omitempty"`
	Backup        *bool    `yaml:"backup,omitempty"`
	Aggressive    *bool    `yaml:"aggressive,omitempty"`
	DryRun        *bool    `yaml:"dry_run,omitempty"`
	FailOnHazards *bool    `yaml:"fail_on_hazards,omitempty"`

	// Exclude replaces the default exclusion zones.
	Exclude []string `yaml:"exclude,omitempty"`

	// Attributes replaces the default attribute list.
	Attributes []string `yaml:"attributes,omitempty"`

	DisableRules []string `yaml:"disable_rules,omitempty"`
}

// Apply copies the keys set in the file onto c.
func (f *File) Apply(c *Config) {
	if f == nil {
		return
	}
	if len(f.Patterns) > 0 {
		c.Patterns = f.Patterns
	}
	if f.Concurrency != nil {
		c.MaxConcurrency = *f.Concurrency
	}
	if f.Backup != nil {
		c.Backup = *f.Backup
	}
	if f.Aggressive != nil {
		c.Aggressive = *f.Aggressive
	}
	if f.DryRun != nil {
		c.DryRun = *f.DryRun
	}
	if f.FailOnHazards != nil {
		c.FailOnHazards = *f.FailOnHazards
	}
	if f.Exclude != nil {
		c.Exclude = f.Exclude
	}
	if f.Attributes != nil {
		c.Attributes = f.Attributes
	}
	if len(f.DisableRules) > 0 {
		c.DisableRules = f.DisableRules
	}
}
