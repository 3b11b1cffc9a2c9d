package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models holdingboard.yml, the group-level settings document. It is
// imported into the app_settings table and read back from there at runtime.
type Config struct {
	Group struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"group"`
	Compliance struct {
		// ExpiringSoonDays is the window ahead of expiration in which a
		// regulatory document is reported as EXPIRING_SOON.
		ExpiringSoonDays int      `yaml:"expiring_soon_days"`
		Categories       []string `yaml:"categories"`
	} `yaml:"compliance"`
	Docspace struct {
		BaseURL      string `yaml:"base_url"`
		ParentPageID string `yaml:"parent_page_id"`
	} `yaml:"docspace"`
	Storage struct {
		Dir     string `yaml:"dir"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"storage"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig declares a change-notification target. Subscribers receive
// batches of audit entries and are expected to refetch whatever they show.
type WebhookConfig struct {
	URL    string   `yaml:"url"`
	Events []string `yaml:"events"`
}

// Load reads and validates config from a workspace directory.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; import with hb settings import --file <path>", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Group.ID == "" {
		return fmt.Errorf("config.group.id is required")
	}
	if c.Compliance.ExpiringSoonDays < 0 {
		return fmt.Errorf("config.compliance.expiring_soon_days must not be negative")
	}
	for i, cat := range c.Compliance.Categories {
		if cat == "" {
			return fmt.Errorf("config.compliance.categories[%d] is empty", i)
		}
	}
	for i, wh := range c.Webhooks {
		if wh.URL == "" {
			return fmt.Errorf("config.webhooks[%d].url is required", i)
		}
	}
	return nil
}

// ExpiringWindowDays returns the configured EXPIRING_SOON window, defaulting
// to 30 days.
func (c *Config) ExpiringWindowDays() int {
	if c == nil || c.Compliance.ExpiringSoonDays == 0 {
		return 30
	}
	return c.Compliance.ExpiringSoonDays
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "holdingboard.yml")
}

// Default returns the default Config struct for a group.
func Default(groupID string) *Config {
	var cfg Config
	cfg.Group.ID = groupID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, groupID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `group:
  id: %s
  name: Holding Board

compliance:
  expiring_soon_days: 30
  categories:
    - articles_of_incorporation
    - tax_clearance
    - operating_license
    - insurance_certificate
    - annual_filing

docspace:
  base_url: ""
  parent_page_id: ""

storage:
  dir: ".holdingboard/files"
  base_url: "/files"

webhooks: []
`
