package amdipmi

import (
	"context"
	"fmt"

	"github.com/sigreer/amdem/internal/drive"
	"github.com/sigreer/amdem/internal/ibpi"
	"github.com/sigreer/amdem/internal/logging"
)

// Write drives the LEDs of dev to pattern. The drive is located again on
// every call. A failure part way through leaves the expander registers as
// far as the transaction got.
func (c *Controller) Write(ctx context.Context, dev *drive.BlockDevice, pattern ibpi.Pattern) error {
	var reg Register
	switch pattern {
	case ibpi.Normal, ibpi.OneshotNormal, ibpi.LocateOff:
	default:
		var ok bool
		if reg, ok = RegisterFor(pattern); !ok {
			return fmt.Errorf("%w: pattern %s", ErrUnsupported, pattern)
		}
	}

	d, err := c.locator.Locate(dev.ControllerPath)
	if err != nil {
		return err
	}

	logging.GetLogger("amdipmi").Debug("Setting LED pattern",
		"controller", dev.ControllerPath,
		"pattern", pattern.String(),
		"class", d.Class.String(),
		"port", d.Port)

	switch pattern {
	case ibpi.Normal, ibpi.OneshotNormal:
		return c.clearAll(ctx, d)
	case ibpi.LocateOff:
		return c.SetRegister(ctx, false, RegLocate, d)
	}

	if err := c.SetRegister(ctx, true, RegSMBusControl, d); err != nil {
		return err
	}
	return c.SetRegister(ctx, true, reg, d)
}

// clearAll attempts every clear and returns the first failure.
func (c *Controller) clearAll(ctx context.Context, d drive.Drive) error {
	var firstErr error
	for _, reg := range normalClears {
		if err := c.SetRegister(ctx, false, reg, d); err != nil {
			logging.GetLogger("amdipmi").Warn("Failed to clear LED register",
				"register", reg.String(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
