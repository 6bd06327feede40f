package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sigreer/amdem/internal/config"
	"github.com/sigreer/amdem/internal/db"
	"github.com/sigreer/amdem/internal/em"
	"github.com/sigreer/amdem/internal/ipmi"
	"github.com/sigreer/amdem/internal/logging"
	"github.com/sigreer/amdem/internal/metrics"
	"github.com/sigreer/amdem/internal/platform"
	"github.com/sigreer/amdem/internal/version"
)

var (
	cfgFile         string
	logLevel        string
	metricsTextfile string
)

var rootCmd = &cobra.Command{
	Use:   "amdem",
	Short: "AMD enclosure-management LED control",
	Long: `amdem drives the status LEDs of drive bays on AMD server platforms.

On Ethanol-X boards the MG9098 expanders are reached through the BMC with
IPMI Master Write-Read commands; other platforms use SGPIO, which is driven
by the storage controller and not handled here.

Controller paths are sysfs device paths such as
/sys/devices/pci0000:00/0000:00:08.1/ata3/host2 or the PCI function of an
NVMe drive.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("amdem %s\n", version.Version)
	},
}

// app holds what a command needs once configuration is loaded
type app struct {
	cfg       *config.Config
	transport *ipmi.Ipmitool
	manager   *em.Manager
	journal   *db.DB
}

// setup loads configuration, initializes logging and builds the manager.
// The journal is optional; failing to open it only logs a warning.
func setup(withJournal bool) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if metricsTextfile != "" {
		cfg.Metrics.Textfile = metricsTextfile
	}
	logging.Initialize(cfg.Logging)

	a := &app{
		cfg: cfg,
		transport: &ipmi.Ipmitool{
			Path:      cfg.IPMI.Tool,
			Interface: cfg.IPMI.Interface,
			Sudo:      cfg.IPMI.Sudo,
			ExtraArgs: cfg.IPMI.ExtraArgs,
		},
	}

	opts := em.Options{
		Detector:  platform.NewDetector(cfg.Sysfs.DMIPath),
		Transport: a.transport,
		SlotsPath: cfg.Sysfs.PCISlotsPath,
	}
	if withJournal && cfg.Journal.Enabled {
		journal, err := db.New(cfg.Journal.Path)
		if err != nil {
			logging.GetLogger("main").Warn("Event journal unavailable", "error", err)
		} else {
			a.journal = journal
			opts.Recorder = journalRecorder{db: journal}
		}
	}
	a.manager = em.NewManager(opts)

	return a, nil
}

// mustSetup is setup for commands that cannot continue without it.
func mustSetup(withJournal bool) *app {
	a, err := setup(withJournal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return a
}

// requireTransport checks ipmitool is installed when the platform uses IPMI.
func (a *app) requireTransport() error {
	if a.manager.Interface() != platform.IPMI {
		return nil
	}
	return a.transport.CheckIpmitoolInstalled()
}

// Close flushes metrics and closes the journal.
func (a *app) Close() {
	if a.cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			logging.GetLogger("main").Warn("Failed to write metrics", "error", err)
		}
	}
	if a.journal != nil {
		a.journal.Close()
	}
}

// fatal prints an error, releases resources and exits.
func (a *app) fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	a.Close()
	os.Exit(1)
}

func (a *app) checkTransport() {
	if err := a.requireTransport(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: ipmitool not found.\n")
		fmt.Fprintf(os.Stderr, "Install: sudo pacman -S ipmitool  (Arch)\n")
		fmt.Fprintf(os.Stderr, "     or: sudo apt install ipmitool  (Debian/Ubuntu)\n")
		a.Close()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/amdem/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(platformCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
