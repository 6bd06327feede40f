package amdipmi

import (
	"errors"
	"fmt"

	"github.com/sigreer/amdem/internal/drive"
	"github.com/sigreer/amdem/internal/ibpi"
)

// Common errors
var (
	ErrUnsupported = errors.New("not supported by AMD IPMI enclosure management")
	ErrTransport   = errors.New("ipmi transport failure")
)

// Register is an MG9098 register address.
type Register byte

const (
	RegSMBusControl Register = 0x3c
	RegPFA          Register = 0x41
	RegLocate       Register = 0x42
	RegFailedDrive  Register = 0x44
	RegFailedArray  Register = 0x45
	RegRebuild      Register = 0x46
	RegHotspare     Register = 0x47
	RegIdentity     Register = 0x63
)

// chipIdentity is the value of RegIdentity on an MG9098.
const chipIdentity = 98

func (r Register) String() string {
	return fmt.Sprintf("0x%02x", byte(r))
}

// patternRegisters maps patterns to the register whose bits light them.
var patternRegisters = map[ibpi.Pattern]Register{
	ibpi.PFA:         RegPFA,
	ibpi.LocateOn:    RegLocate,
	ibpi.FailedDrive: RegFailedDrive,
	ibpi.FailedArray: RegFailedArray,
	ibpi.Rebuild:     RegRebuild,
	ibpi.Hotspare:    RegHotspare,
}

// normalClears are cleared in order when a drive returns to normal.
var normalClears = []Register{
	RegPFA,
	RegLocate,
	RegFailedDrive,
	RegFailedArray,
	RegRebuild,
}

// RegisterFor returns the register that drives pattern p.
func RegisterFor(p ibpi.Pattern) (Register, bool) {
	r, ok := patternRegisters[p]
	return r, ok
}

// Locator resolves a controller path to a physical drive.
type Locator interface {
	Locate(controllerPath string) (drive.Drive, error)
}
