package ipmi

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrIpmitoolNotInstalled = errors.New("ipmitool not found in PATH")
	ErrPermissionDenied     = errors.New("permission denied (requires root)")
	ErrMalformedResponse    = errors.New("malformed ipmi response")
)

// Addresses and commands used for sideband access to devices behind the BMC.
const (
	// BMCAddress is the IPMB slave address of the BMC itself.
	BMCAddress byte = 0x20

	NetFnApp byte = 0x06
	LUNBMC   byte = 0x00

	// CmdMasterWriteRead performs an I2C/SMBus transaction on a private
	// bus of the BMC.
	CmdMasterWriteRead byte = 0x52
)

// Request is a raw IPMI command.
type Request struct {
	Target  byte
	NetFn   byte
	LUN     byte
	Command byte
	Data    []byte
}

// Transport sends raw IPMI requests to the BMC and returns the response
// data with the completion code already checked.
type Transport interface {
	Send(ctx context.Context, req Request) ([]byte, error)
}

// MasterWriteRead builds a Master Write-Read request addressed to the BMC.
func MasterWriteRead(data ...byte) Request {
	return Request{
		Target:  BMCAddress,
		NetFn:   NetFnApp,
		LUN:     LUNBMC,
		Command: CmdMasterWriteRead,
		Data:    data,
	}
}
