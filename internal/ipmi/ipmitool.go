package ipmi

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sigreer/amdem/internal/logging"
)

// Ipmitool is a Transport that shells out to `ipmitool raw`.
type Ipmitool struct {
	// Path is the ipmitool binary, "ipmitool" if empty.
	Path string
	// Interface is passed as -I (e.g. "open"); empty uses ipmitool's default.
	Interface string
	// Sudo runs ipmitool through sudo.
	Sudo bool
	// ExtraArgs are inserted before the raw subcommand.
	ExtraArgs []string

	// run executes the command and returns stdout; swapped in tests
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CheckIpmitoolInstalled verifies the ipmitool binary can be found.
func (t *Ipmitool) CheckIpmitoolInstalled() error {
	if _, err := exec.LookPath(t.binary()); err != nil {
		return ErrIpmitoolNotInstalled
	}
	return nil
}

// Send runs `ipmitool raw` for req and parses the hex bytes it prints.
func (t *Ipmitool) Send(ctx context.Context, req Request) ([]byte, error) {
	name, args := t.command(req)
	logger := logging.GetLogger("ipmi")
	logger.Debug("Sending raw IPMI command", "cmd", name, "args", strings.Join(args, " "))

	run := t.run
	if run == nil {
		run = runCommand
	}

	out, err := run(ctx, name, args...)
	if err != nil {
		return nil, err
	}

	resp, err := parseRawOutput(string(out))
	if err != nil {
		return nil, err
	}
	logger.Debug("Raw IPMI response", "data", fmt.Sprintf("% x", resp))
	return resp, nil
}

func (t *Ipmitool) binary() string {
	if t.Path == "" {
		return "ipmitool"
	}
	return t.Path
}

// command builds the argv for req. Target and LUN are only passed when they
// differ from the BMC defaults, since -t triggers IPMB bridging.
func (t *Ipmitool) command(req Request) (string, []string) {
	var args []string
	if t.Interface != "" {
		args = append(args, "-I", t.Interface)
	}
	args = append(args, t.ExtraArgs...)
	if req.Target != BMCAddress {
		args = append(args, "-t", hexByte(req.Target))
	}
	if req.LUN != LUNBMC {
		args = append(args, "-l", strconv.Itoa(int(req.LUN)))
	}

	args = append(args, "raw", hexByte(req.NetFn), hexByte(req.Command))
	for _, b := range req.Data {
		args = append(args, hexByte(b))
	}

	if t.Sudo {
		return "sudo", append([]string{t.binary()}, args...)
	}
	return t.binary(), args
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		lower := strings.ToLower(stderr)
		if strings.Contains(lower, "permission denied") ||
			strings.Contains(lower, "operation not permitted") {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("ipmitool failed: %s: %w", stderr, err)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return nil, ErrIpmitoolNotInstalled
	}
	return nil, fmt.Errorf("ipmitool failed: %w", err)
}

// parseRawOutput parses the whitespace separated hex bytes printed by
// `ipmitool raw`, which may wrap over several lines.
func parseRawOutput(out string) ([]byte, error) {
	fields := strings.Fields(out)
	data := make([]byte, 0, len(fields))
	for _, f := range fields {
		b, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(f), "0x"), 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedResponse, f)
		}
		data = append(data, byte(b))
	}
	return data, nil
}

func hexByte(b byte) string {
	return fmt.Sprintf("0x%02x", b)
}
