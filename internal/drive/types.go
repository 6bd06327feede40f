package drive

import (
	"errors"

	"github.com/sigreer/amdem/internal/ibpi"
)

// ErrNotFound is returned when a controller path cannot be resolved to a
// physical drive bay.
var ErrNotFound = errors.New("drive not found")

// Class is the attachment type of a drive.
type Class int

const (
	// None means no drive context, used when talking to the expander chip
	// before any drive is known.
	None Class = iota
	NVMe
	SATA
)

func (c Class) String() string {
	switch c {
	case NVMe:
		return "nvme"
	case SATA:
		return "sata"
	default:
		return "none"
	}
}

// Drive is the physical location of a drive behind an expander chip.
type Drive struct {
	Port    int    `json:"port"`
	BayMask uint32 `json:"bay_mask"`
	Class   Class  `json:"class"`
}

// BlockDevice is the caller-owned record of a drive whose LEDs are managed.
// PreviousPattern is the last pattern successfully processed for it.
type BlockDevice struct {
	ControllerPath  string       `json:"controller_path"`
	SysfsPath       string       `json:"sysfs_path,omitempty"`
	PreviousPattern ibpi.Pattern `json:"previous_pattern"`
}
