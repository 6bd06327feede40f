package amdipmi

import (
	"context"
	"fmt"

	"github.com/sigreer/amdem/internal/drive"
	"github.com/sigreer/amdem/internal/ipmi"
	"github.com/sigreer/amdem/internal/logging"
	"github.com/sigreer/amdem/internal/metrics"
	"github.com/sigreer/amdem/internal/platform"
)

const (
	channelEthanolX byte = 0x0d
	channelDaytonaX byte = 0x17

	slaveBays1to8   byte = 0xc0
	slaveBays9to16  byte = 0xc2
	slaveBays17to24 byte = 0xc4

	// each transaction touches one register
	registerCount byte = 1
)

// Channel returns the BMC private bus the expanders sit on.
func Channel(p platform.Platform) (byte, error) {
	switch p {
	case platform.EthanolX:
		return channelEthanolX, nil
	case platform.DaytonaX:
		return channelDaytonaX, nil
	default:
		return 0, fmt.Errorf("%w: no ipmi channel for platform %s", ErrUnsupported, p)
	}
}

// SlaveAddress returns the I2C address of the expander serving d.
// Without a drive context the first expander is used.
func SlaveAddress(p platform.Platform, d drive.Drive) (byte, error) {
	switch p {
	case platform.EthanolX:
		return slaveBays1to8, nil
	case platform.DaytonaX:
		switch d.Class {
		case drive.None:
			return slaveBays1to8, nil
		case drive.NVMe:
			return slaveBays17to24, nil
		}
		switch {
		case d.Port <= 8:
			return slaveBays1to8, nil
		case d.Port < 17:
			return slaveBays9to16, nil
		default:
			return slaveBays17to24, nil
		}
	default:
		return 0, fmt.Errorf("%w: no expander address for platform %s", ErrUnsupported, p)
	}
}

// Controller drives MG9098 LED registers over IPMI Master Write-Read.
type Controller struct {
	platform  platform.Platform
	transport ipmi.Transport
	locator   Locator
}

// New returns a Controller for platform p.
func New(p platform.Platform, transport ipmi.Transport, locator Locator) *Controller {
	return &Controller{
		platform:  p,
		transport: transport,
		locator:   locator,
	}
}

func (c *Controller) address(d drive.Drive) (channel, slave byte, err error) {
	if channel, err = Channel(c.platform); err != nil {
		return 0, 0, err
	}
	if slave, err = SlaveAddress(c.platform, d); err != nil {
		return 0, 0, err
	}
	return channel, slave, nil
}

// ReadRegister returns the current value of reg on the expander serving d.
func (c *Controller) ReadRegister(ctx context.Context, reg Register, d drive.Drive) (byte, error) {
	channel, slave, err := c.address(d)
	if err != nil {
		return 0, err
	}

	resp, err := c.transport.Send(ctx, ipmi.MasterWriteRead(channel, slave, registerCount, byte(reg)))
	if err == nil && len(resp) == 0 {
		err = ipmi.ErrMalformedResponse
	}
	metrics.ObserveRegisterOp("read", reg.String(), err)
	if err != nil {
		return 0, fmt.Errorf("%w: read register %s on 0x%02x/0x%02x: %w", ErrTransport, reg, channel, slave, err)
	}

	logging.GetLogger("amdipmi").Debug("Read register",
		"channel", fmt.Sprintf("0x%02x", channel),
		"slave", fmt.Sprintf("0x%02x", slave),
		"register", reg.String(),
		"value", fmt.Sprintf("0x%02x", resp[0]))
	return resp[0], nil
}

// SetRegister sets (enable) or clears the bay bit of d in reg with a
// read-modify-write. Only the low byte of the bay mask reaches the chip.
func (c *Controller) SetRegister(ctx context.Context, enable bool, reg Register, d drive.Drive) error {
	cur, err := c.ReadRegister(ctx, reg, d)
	if err != nil {
		return err
	}

	// address already validated by the read
	channel, slave, _ := c.address(d)

	mask := byte(d.BayMask)
	val := cur &^ mask
	if enable {
		val = cur | mask
	}

	_, err = c.transport.Send(ctx, ipmi.MasterWriteRead(channel, slave, registerCount, byte(reg), val))
	metrics.ObserveRegisterOp("write", reg.String(), err)
	if err != nil {
		return fmt.Errorf("%w: write register %s on 0x%02x/0x%02x: %w", ErrTransport, reg, channel, slave, err)
	}

	logging.GetLogger("amdipmi").Debug("Wrote register",
		"register", reg.String(),
		"enable", enable,
		"old", fmt.Sprintf("0x%02x", cur),
		"new", fmt.Sprintf("0x%02x", val))
	return nil
}
