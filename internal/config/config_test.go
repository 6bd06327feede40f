package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
sysfs:
  pci_slots_path: /tmp/slots
ipmi:
  interface: open
  sudo: true
  extra_args: ["-N", "3"]
journal:
  enabled: false
logging:
  level: debug
  modules:
    ipmi: warn
metrics:
  textfile: /var/lib/node_exporter/amdem.prom
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/sys/class/dmi/id", cfg.Sysfs.DMIPath)
	assert.Equal(t, "/tmp/slots", cfg.Sysfs.PCISlotsPath)
	assert.Equal(t, "ipmitool", cfg.IPMI.Tool)
	assert.Equal(t, "open", cfg.IPMI.Interface)
	assert.True(t, cfg.IPMI.Sudo)
	assert.Equal(t, []string{"-N", "3"}, cfg.IPMI.ExtraArgs)
	assert.False(t, cfg.Journal.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "auto", cfg.Logging.Format)
	assert.Equal(t, "warn", cfg.Logging.Modules["ipmi"])
	assert.Equal(t, "/var/lib/node_exporter/amdem.prom", cfg.Metrics.Textfile)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "amdem.toml", `
[sysfs]
dmi_path = "/tmp/dmi"

[ipmi]
tool = "/opt/ipmitool/bin/ipmitool"
interface = "lanplus"

[logging]
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/dmi", cfg.Sysfs.DMIPath)
	assert.Equal(t, "/sys/bus/pci/slots", cfg.Sysfs.PCISlotsPath)
	assert.Equal(t, "/opt/ipmitool/bin/ipmitool", cfg.IPMI.Tool)
	assert.Equal(t, "lanplus", cfg.IPMI.Interface)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEmptyValuesKeepDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
sysfs:
  dmi_path: ""
ipmi:
  tool: ""
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Sysfs, cfg.Sysfs)
	assert.Equal(t, "ipmitool", cfg.IPMI.Tool)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "sysfs: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadCandidates(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	if _, err := os.Stat("/etc/amdem/config.yaml"); err == nil {
		t.Skip("system config present")
	}

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	dir := filepath.Join(home, ".config", "amdem")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("ipmi:\n  sudo: true\n"), 0644))

	cfg, err = Load("")
	require.NoError(t, err)
	assert.True(t, cfg.IPMI.Sudo)
}
