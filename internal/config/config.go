package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sigreer/amdem/internal/logging"
)

type Config struct {
	Sysfs   Sysfs          `yaml:"sysfs" toml:"sysfs"`
	IPMI    IPMI           `yaml:"ipmi" toml:"ipmi"`
	Journal Journal        `yaml:"journal" toml:"journal"`
	Logging logging.Config `yaml:"logging" toml:"logging"`
	Metrics Metrics        `yaml:"metrics" toml:"metrics"`
}

// Sysfs locates the kernel tables read during detection.
type Sysfs struct {
	DMIPath      string `yaml:"dmi_path" toml:"dmi_path"`
	PCISlotsPath string `yaml:"pci_slots_path" toml:"pci_slots_path"`
}

// IPMI configures the ipmitool transport.
type IPMI struct {
	Tool      string   `yaml:"tool" toml:"tool"`
	Interface string   `yaml:"interface,omitempty" toml:"interface"`
	Sudo      bool     `yaml:"sudo" toml:"sudo"`
	ExtraArgs []string `yaml:"extra_args,omitempty" toml:"extra_args"`
}

// Journal configures the LED event journal.
type Journal struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path,omitempty" toml:"path"`
}

type Metrics struct {
	// Textfile is written after each command for the node_exporter
	// textfile collector; empty disables it.
	Textfile string `yaml:"textfile,omitempty" toml:"textfile"`
}

// defaultConfig provides baseline settings for a stock AMD server
var defaultConfig = Config{
	Sysfs: Sysfs{
		DMIPath:      "/sys/class/dmi/id",
		PCISlotsPath: "/sys/bus/pci/slots",
	},
	IPMI: IPMI{
		Tool: "ipmitool",
	},
	Journal: Journal{
		Enabled: true,
	},
	Logging: logging.Config{
		Level:  "info",
		Format: "auto",
	},
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// Candidates lists the files Load tries when no path is given.
func Candidates() []string {
	return []string{
		"/etc/amdem/config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config/amdem/config.yaml"),
		"config.yaml",
	}
}

// Load reads the configuration at path, or the first existing candidate if
// path is empty. Files ending in .toml are parsed as TOML, anything else as
// YAML. Unset values keep their defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		for _, c := range Candidates() {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	cfg := defaultConfig
	if path == "" {
		// No config file found - use defaults
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return &cfg, nil
	}

	if strings.HasSuffix(path, ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults restores defaults for values a file set to empty.
func (c *Config) applyDefaults() {
	if c.Sysfs.DMIPath == "" {
		c.Sysfs.DMIPath = defaultConfig.Sysfs.DMIPath
	}
	if c.Sysfs.PCISlotsPath == "" {
		c.Sysfs.PCISlotsPath = defaultConfig.Sysfs.PCISlotsPath
	}
	if c.IPMI.Tool == "" {
		c.IPMI.Tool = defaultConfig.IPMI.Tool
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultConfig.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultConfig.Logging.Format
	}
}
