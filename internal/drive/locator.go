package drive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sigreer/amdem/internal/logging"
	"github.com/sigreer/amdem/internal/platform"
	"github.com/sigreer/amdem/internal/sysfs"
)

// DefaultSlotsPath lists the PCI slots known to the kernel.
const DefaultSlotsPath = "/sys/bus/pci/slots"

const (
	maxPort = 24

	// an MG9098 expander drives at most eight bays
	baysPerChip = 8
)

var (
	ataPortRe    = regexp.MustCompile(`(?:^|/)ata(\d+)/`)
	slotNumberRe = regexp.MustCompile(`^(0[xX][0-9a-fA-F]+|\d+)`)
)

// Locator resolves controller sysfs paths to drive bays.
type Locator struct {
	platform  platform.Platform
	slotsPath string
}

// NewLocator returns a Locator for platform p. An empty slotsPath uses
// DefaultSlotsPath.
func NewLocator(p platform.Platform, slotsPath string) *Locator {
	if slotsPath == "" {
		slotsPath = DefaultSlotsPath
	}
	return &Locator{platform: p, slotsPath: slotsPath}
}

// Locate determines the class, physical port and bay mask of the drive
// behind controllerPath.
func (l *Locator) Locate(controllerPath string) (Drive, error) {
	logger := logging.GetLogger("drive")

	if dir, err := sysfs.FindPath(controllerPath, "nvme"); err == nil {
		port, err := l.nvmePort(dir)
		if err != nil {
			return Drive{}, err
		}

		d := Drive{Port: port, Class: NVMe}
		if port > 0 {
			d.BayMask = 1 << (port - 1)
		}
		logger.Debug("Located NVMe drive", "controller", controllerPath, "port", d.Port, "bay_mask", d.BayMask)
		return d, nil
	}

	port, err := sataPort(controllerPath)
	if err != nil {
		return Drive{}, err
	}

	// the port stays absolute since it selects the expander chip, only the
	// bit position is relative to the chip
	d := Drive{
		Port:    port,
		BayMask: 1 << ((port - 1) % baysPerChip),
		Class:   SATA,
	}
	logger.Debug("Located SATA drive", "controller", controllerPath, "port", d.Port, "bay_mask", d.BayMask)
	return d, nil
}

// nvmePort maps the PCI function directory holding an nvme entry to the
// physical port of its slot.
func (l *Locator) nvmePort(dir string) (int, error) {
	addr := filepath.Base(dir)
	dot := strings.IndexByte(addr, '.')
	if dot < 0 {
		return -1, fmt.Errorf("%w: no PCI function in %q", ErrNotFound, addr)
	}
	addr = addr[:dot]

	raw, err := l.slotPort(addr)
	if err != nil {
		return -1, err
	}

	port := raw - portOffset(l.platform)
	// some BIOSes report slot numbers that do not map to a bay
	if port < 0 || port > maxPort {
		logging.GetLogger("drive").Error("Invalid NVMe physical port",
			"address", addr, "slot", raw, "port", port, "platform", l.platform.String())
		return -1, fmt.Errorf("%w: NVMe port %d out of range", ErrNotFound, port)
	}
	return port, nil
}

// slotPort finds the PCI slot whose address matches addr and returns its
// number.
func (l *Locator) slotPort(addr string) (int, error) {
	entries, err := os.ReadDir(l.slotsPath)
	if err != nil {
		return -1, fmt.Errorf("%w: scan %s: %v", ErrNotFound, l.slotsPath, err)
	}

	for _, entry := range entries {
		slotDir, err := sysfs.Join(l.slotsPath, entry.Name())
		if err != nil {
			continue
		}
		slotAddr, err := sysfs.ReadText(slotDir, "address")
		if err != nil || slotAddr != addr {
			continue
		}

		num := slotNumberRe.FindString(entry.Name())
		port, err := strconv.ParseInt(num, 0, 32)
		if err != nil {
			return -1, fmt.Errorf("%w: slot %q is not numeric", ErrNotFound, entry.Name())
		}
		return int(port), nil
	}

	return -1, fmt.Errorf("%w: no PCI slot with address %s", ErrNotFound, addr)
}

// sataPort extracts the ATA port number from the first ata<N>/ segment.
func sataPort(controllerPath string) (int, error) {
	m := ataPortRe.FindStringSubmatch(controllerPath)
	if m == nil {
		return -1, fmt.Errorf("%w: no ata port in %s", ErrNotFound, controllerPath)
	}
	port, err := strconv.Atoi(m[1])
	if err != nil || port < 1 {
		return -1, fmt.Errorf("%w: invalid ata port %q", ErrNotFound, m[1])
	}
	return port, nil
}

// portOffset is the difference between the BIOS slot number and the bay
// number on each platform.
func portOffset(p platform.Platform) int {
	switch p {
	case platform.DaytonaX:
		return 2
	case platform.EthanolX:
		return 7
	default:
		return 0
	}
}
