package platform

import (
	"strings"
	"sync"

	"github.com/sigreer/amdem/internal/logging"
	"github.com/sigreer/amdem/internal/sysfs"
)

// DefaultDMIPath is where the kernel exposes the SMBIOS system identity.
const DefaultDMIPath = "/sys/class/dmi/id"

// Platform identifies an AMD reference server SKU.
type Platform int

const (
	Unspecified Platform = iota
	EthanolX
	DaytonaX
)

func (p Platform) String() string {
	switch p {
	case EthanolX:
		return "ethanol-x"
	case DaytonaX:
		return "daytona-x"
	default:
		return "unspecified"
	}
}

// Interface is the LED control mechanism of a platform.
type Interface int

const (
	Unset Interface = iota
	SGPIO
	IPMI
)

func (i Interface) String() string {
	switch i {
	case SGPIO:
		return "sgpio"
	case IPMI:
		return "ipmi"
	default:
		return "unset"
	}
}

// productPrefixes is matched in order against the DMI product name.
var productPrefixes = []struct {
	prefix   string
	platform Platform
	iface    Interface
}{
	{"ETHANOL-X", EthanolX, IPMI},
	{"DAYTONA-X", DaytonaX, SGPIO},
	{"GRANDSTAND", Unspecified, SGPIO},
	{"SPEEDWAY", Unspecified, SGPIO},
}

// Classify maps a DMI product name to a platform and LED interface. Unknown
// or missing names fall back to SGPIO.
func Classify(productName string, ok bool) (Platform, Interface) {
	if !ok {
		return Unspecified, SGPIO
	}
	for _, p := range productPrefixes {
		if strings.HasPrefix(productName, p.prefix) {
			return p.platform, p.iface
		}
	}
	return Unspecified, SGPIO
}

// Detector reads the DMI product name once and caches the classification
// for its lifetime.
type Detector struct {
	dmiPath string

	once     sync.Once
	product  string
	platform Platform
	iface    Interface
}

// NewDetector returns a Detector reading product_name under dmiPath.
func NewDetector(dmiPath string) *Detector {
	if dmiPath == "" {
		dmiPath = DefaultDMIPath
	}
	return &Detector{dmiPath: dmiPath}
}

// Get returns the detected platform and interface, reading DMI on first use.
func (d *Detector) Get() (Platform, Interface) {
	d.once.Do(d.detect)
	return d.platform, d.iface
}

// ProductName returns the DMI product name seen by Get, or "" if absent.
func (d *Detector) ProductName() string {
	d.once.Do(d.detect)
	return d.product
}

func (d *Detector) detect() {
	logger := logging.GetLogger("platform")

	name, err := sysfs.ReadText(d.dmiPath, "product_name")
	if err != nil {
		logger.Debug("No DMI product name, assuming SGPIO", "path", d.dmiPath, "error", err)
	}
	d.product = name
	d.platform, d.iface = Classify(name, err == nil)

	logger.Debug("Detected AMD platform",
		"product_name", name,
		"platform", d.platform.String(),
		"interface", d.iface.String())
}
