package em

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sigreer/amdem/internal/amdipmi"
	"github.com/sigreer/amdem/internal/drive"
	"github.com/sigreer/amdem/internal/ibpi"
	"github.com/sigreer/amdem/internal/ipmi"
	"github.com/sigreer/amdem/internal/logging"
	"github.com/sigreer/amdem/internal/metrics"
	"github.com/sigreer/amdem/internal/platform"
	"github.com/sigreer/amdem/internal/sysfs"
)

// Options configures a Manager.
type Options struct {
	// Detector identifies the platform; defaults to the DMI tables in sysfs.
	Detector *platform.Detector
	// Transport carries IPMI requests; defaults to ipmitool.
	Transport ipmi.Transport
	// SlotsPath overrides the PCI slots directory used to place NVMe drives.
	SlotsPath string
	// SGPIO serves platforms wired for SGPIO; defaults to Unavailable.
	SGPIO Backend
	// Recorder, if set, is told about every LED update.
	Recorder Recorder
}

// Manager dispatches enclosure-management requests to the backend matching
// the detected platform. The backend is chosen on first use and kept for the
// life of the Manager.
type Manager struct {
	opts Options

	once     sync.Once
	platform platform.Platform
	iface    platform.Interface
	backend  Backend
}

// NewManager creates a Manager. Nothing is probed until first use.
func NewManager(opts Options) *Manager {
	if opts.Detector == nil {
		opts.Detector = platform.NewDetector(platform.DefaultDMIPath)
	}
	if opts.Transport == nil {
		opts.Transport = &ipmi.Ipmitool{}
	}
	if opts.SGPIO == nil {
		opts.SGPIO = Unavailable{Name: "sgpio"}
	}
	return &Manager{opts: opts}
}

func (m *Manager) init() {
	m.once.Do(func() {
		m.platform, m.iface = m.opts.Detector.Get()

		switch m.iface {
		case platform.IPMI:
			locator := drive.NewLocator(m.platform, m.opts.SlotsPath)
			m.backend = amdipmi.New(m.platform, m.opts.Transport, locator)
		case platform.SGPIO:
			m.backend = m.opts.SGPIO
		}

		logging.GetLogger("em").Debug("Selected enclosure management interface",
			"product", m.opts.Detector.ProductName(),
			"platform", m.platform.String(),
			"interface", m.iface.String())
	})
}

// Platform returns the detected platform.
func (m *Manager) Platform() platform.Platform {
	m.init()
	return m.platform
}

// Interface returns the enclosure-management interface of the platform.
func (m *Manager) Interface() platform.Interface {
	m.init()
	return m.iface
}

// ProductName returns the DMI product name, empty if unreadable.
func (m *Manager) ProductName() string {
	return m.opts.Detector.ProductName()
}

// Enabled reports whether enclosure management works for controllerPath.
func (m *Manager) Enabled(ctx context.Context, controllerPath string) bool {
	m.init()
	if m.backend == nil {
		logging.GetLogger("em").Warn("Unknown AMD platform", "interface", m.iface.String())
		return false
	}
	return m.backend.Enabled(ctx, controllerPath)
}

// Write applies pattern to dev. A pattern equal to dev.PreviousPattern is
// accepted without touching the hardware. dev.PreviousPattern is updated
// only when the pattern was applied or skipped.
func (m *Manager) Write(ctx context.Context, dev *drive.BlockDevice, pattern ibpi.Pattern) error {
	m.init()

	ev := Event{
		RequestID:       uuid.NewString(),
		ControllerPath:  dev.ControllerPath,
		Pattern:         pattern,
		PreviousPattern: dev.PreviousPattern,
		Platform:        m.platform,
		Interface:       m.iface,
		Timestamp:       time.Now(),
	}
	logger := logging.GetLogger("em").With(
		"request_id", ev.RequestID,
		"controller", dev.ControllerPath,
		"pattern", pattern.String())

	if pattern == dev.PreviousPattern {
		logger.Debug("Pattern unchanged, skipping")
		metrics.ObserveSuppressedWrite(pattern.String())
		ev.Suppressed = true
		m.record(ctx, ev)
		return nil
	}

	var err error
	if m.backend == nil {
		logger.Warn("Unknown AMD platform", "interface", m.iface.String())
		err = fmt.Errorf("%w: interface %s", ErrUnsupported, m.iface)
	} else {
		err = m.backend.Write(ctx, dev, pattern)
	}
	metrics.ObserveLEDWrite(m.iface.String(), pattern.String(), err)

	ev.Err = err
	m.record(ctx, ev)

	if err != nil {
		logger.Error("Failed to set LED pattern", "error", err)
		return err
	}

	logger.Info("LED pattern set", "previous", ev.PreviousPattern.String())
	dev.PreviousPattern = pattern
	return nil
}

// Path returns the em_buffer attribute path for controllerPath.
func (m *Manager) Path(controllerPath string) (string, error) {
	return sysfs.EMBufferPath(controllerPath)
}

func (m *Manager) record(ctx context.Context, ev Event) {
	if m.opts.Recorder == nil {
		return
	}
	if err := m.opts.Recorder.Record(ctx, ev); err != nil {
		logging.GetLogger("em").Warn("Failed to record LED event",
			"request_id", ev.RequestID, "error", err)
	}
}
