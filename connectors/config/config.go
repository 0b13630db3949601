package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the structure of config.yml used by the tool.
// Only the fields currently needed by commands are modeled.
type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		DataDir        string   `yaml:"data_dir"`
		UIDir          string   `yaml:"ui_dir"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Providers []Provider `yaml:"providers"`

	Import struct {
		Months int `yaml:"months"`
		AWS    struct {
			TeamTag    string `yaml:"team_tag"`
			DefaultEnv string `yaml:"default_env"`
		} `yaml:"aws"`
		GCP struct {
			ProjectID       string `yaml:"project_id"`
			Dataset         string `yaml:"dataset"`
			CredentialsFile string `yaml:"credentials_file"`
		} `yaml:"gcp"`
	} `yaml:"import"`
}

// Provider describes one billing export file: the provider tag attached to its
// records, the CSV filename under the data dir, and the identifier columns
// tried (in order) for resource_id.
type Provider struct {
	Name      string   `yaml:"name"`
	File      string   `yaml:"file"`
	IDColumns []string `yaml:"id_columns"`
}

// Path resolves the config file location: CONFIG_PATH env var, or ./config.yml.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "./config.yml"
}

// Default mirrors the stock deployment: the two vendor export files under
// ./data, served on :8080.
func Default() *Config {
	var c Config
	c.Server.Addr = ":8080"
	c.Server.DataDir = "./data"
	c.Server.UIDir = "./ui/dist"
	c.Providers = []Provider{
		{Name: "AWS", File: "aws_line_items_12mo.csv", IDColumns: []string{"account_id", "project_id"}},
		{Name: "GCP", File: "gcp_billing_12mo.csv", IDColumns: []string{"project_id", "account_id"}},
	}
	c.Import.Months = 12
	c.Import.AWS.TeamTag = "team"
	c.Import.AWS.DefaultEnv = "prod"
	return &c
}

// Load parses the YAML configuration file at path and fills in defaults for
// anything left unset.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyDefaults(&c)
	slog.Info(fmt.Sprintf("Loaded config: %s", path))
	return &c, nil
}

// LoadOrDefault loads the resolved config file, falling back to Default when
// the file does not exist.
func LoadOrDefault() *Config {
	path := Path()
	c, err := Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("config.default", "path", path)
			return Default()
		}
		slog.Error("config.load.error", "path", path, "error", err)
		return Default()
	}
	return c
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = d.Server.DataDir
	}
	if c.Server.UIDir == "" {
		c.Server.UIDir = d.Server.UIDir
	}
	if len(c.Providers) == 0 {
		c.Providers = d.Providers
	}
	for i := range c.Providers {
		if len(c.Providers[i].IDColumns) == 0 {
			c.Providers[i].IDColumns = []string{"account_id", "project_id"}
		}
	}
	if c.Import.Months == 0 {
		c.Import.Months = d.Import.Months
	}
	if c.Import.AWS.TeamTag == "" {
		c.Import.AWS.TeamTag = d.Import.AWS.TeamTag
	}
	if c.Import.AWS.DefaultEnv == "" {
		c.Import.AWS.DefaultEnv = d.Import.AWS.DefaultEnv
	}
}
