package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigreer/amdem/internal/drive"
	"github.com/sigreer/amdem/internal/ibpi"
)

// LocateResponse is the JSON response structure for application integration
type LocateResponse struct {
	Success    bool    `json:"success"`
	Action     string  `json:"action"`    // "on", "off", "timed", "info"
	LEDState   string  `json:"led_state"` // "on", "off", "unknown"
	Controller string  `json:"controller"`
	Platform   string  `json:"platform"`
	Interface  string  `json:"interface"`
	Class      string  `json:"class,omitempty"`
	Port       int     `json:"port,omitempty"`
	BayMask    uint32  `json:"bay_mask,omitempty"`
	Duration   float64 `json:"duration_seconds,omitempty"` // How long LED was on
	StopReason string  `json:"stop_reason,omitempty"`      // "timeout", "interrupted", "manual"
	Timestamp  string  `json:"timestamp"`
	Error      string  `json:"error,omitempty"`
}

var locateCmd = &cobra.Command{
	Use:   "locate <controller-path>",
	Short: "Flash the locate LED of a drive bay",
	Long: `Turn on the locate LED of the drive bay behind a controller to help find
it physically.

Modes:
  (default)    Locate for --timeout duration, then turn off
  --on         Turn locate on and exit (for external app control)
  --off        Turn locate off
  --info-only  Show the bay the controller maps to without changing LEDs

The --json flag provides machine-readable output for application integration.

Examples:
  amdem locate /sys/devices/pci0000:00/0000:00:08.1/ata3/host2
  amdem locate --timeout 2m /sys/bus/pci/devices/0000:41:00.0
  amdem locate --on --json /sys/bus/pci/devices/0000:41:00.0`,
	Args: cobra.ExactArgs(1),
	Run:  runLocate,
}

func init() {
	locateCmd.Flags().DurationP("timeout", "t", 30*time.Second, "locate duration (e.g., 30s, 1m)")
	locateCmd.Flags().Bool("json", false, "Output result as JSON (for application integration)")
	locateCmd.Flags().Bool("info-only", false, "Only show bay info, don't change LED")
	locateCmd.Flags().Bool("on", false, "Turn locate on and exit immediately (for external control)")
	locateCmd.Flags().Bool("off", false, "Turn locate off")
	locateCmd.MarkFlagsMutuallyExclusive("on", "off", "info-only")
}

func runLocate(cmd *cobra.Command, args []string) {
	controller := args[0]
	timeout, _ := cmd.Flags().GetDuration("timeout")
	jsonOut, _ := cmd.Flags().GetBool("json")
	infoOnly, _ := cmd.Flags().GetBool("info-only")
	turnOn, _ := cmd.Flags().GetBool("on")
	turnOff, _ := cmd.Flags().GetBool("off")

	a := mustSetup(!infoOnly)
	defer a.Close()

	newResponse := func(action, ledState string) *LocateResponse {
		return &LocateResponse{
			Success:    true,
			Action:     action,
			LEDState:   ledState,
			Controller: controller,
			Platform:   a.manager.Platform().String(),
			Interface:  a.manager.Interface().String(),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		}
	}
	fail := func(resp *LocateResponse, err error) {
		if jsonOut {
			resp.Success = false
			resp.Error = err.Error()
			outputJSON(resp)
			a.Close()
			os.Exit(1)
		}
		a.fatal("%v", err)
	}

	// Info-only mode: resolve the bay and exit
	if infoOnly {
		resp := newResponse("info", "unknown")
		d, err := drive.NewLocator(a.manager.Platform(), a.cfg.Sysfs.PCISlotsPath).Locate(controller)
		if err != nil {
			fail(resp, err)
		}
		resp.Class = d.Class.String()
		resp.Port = d.Port
		resp.BayMask = d.BayMask
		if jsonOut {
			outputJSON(resp)
		} else {
			fmt.Printf("Controller: %s\n", controller)
			fmt.Printf("Platform:   %s (%s)\n", resp.Platform, resp.Interface)
			fmt.Printf("Class:      %s\n", resp.Class)
			fmt.Printf("Port:       %d\n", resp.Port)
			fmt.Printf("Bay Mask:   0x%06x\n", resp.BayMask)
		}
		return
	}

	a.checkTransport()

	ctx := cmd.Context()
	dev := &drive.BlockDevice{ControllerPath: controller}

	// Turn off mode
	if turnOff {
		if err := a.manager.Write(ctx, dev, ibpi.LocateOff); err != nil {
			fail(newResponse("off", "unknown"), err)
		}
		resp := newResponse("off", "off")
		resp.StopReason = "manual"
		if jsonOut {
			outputJSON(resp)
		} else {
			fmt.Printf("Locate OFF for %s\n", controller)
		}
		return
	}

	// Turn on mode (no timeout, just turn on and exit)
	if turnOn {
		if err := a.manager.Write(ctx, dev, ibpi.LocateOn); err != nil {
			fail(newResponse("on", "off"), err)
		}
		if jsonOut {
			outputJSON(newResponse("on", "on"))
		} else {
			fmt.Printf("Locate ON for %s\n", controller)
		}
		return
	}

	// Timed locate mode (default)
	if err := a.manager.Write(ctx, dev, ibpi.LocateOn); err != nil {
		fail(newResponse("timed", "off"), fmt.Errorf("failed to turn on locate: %w", err))
	}

	startTime := time.Now()

	if jsonOut {
		outputJSON(newResponse("timed", "on"))
	} else {
		fmt.Printf("Locate ON for %s - will turn off in %v\n", controller, timeout)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// Wait for timeout or interrupt
	stopReason := "timeout"
	select {
	case <-timer.C:
	case <-ctx.Done():
		stopReason = "interrupted"
		if !jsonOut {
			fmt.Println("\nInterrupted, turning off locate...")
		}
	}

	// the command context is cancelled on interrupt, the LED still has to go off
	offCtx := context.WithoutCancel(ctx)
	if err := a.manager.Write(offCtx, dev, ibpi.LocateOff); err != nil {
		resp := newResponse("timed", "on")
		resp.StopReason = stopReason
		resp.Duration = time.Since(startTime).Seconds()
		fail(resp, fmt.Errorf("failed to turn off locate: %w", err))
	}

	duration := time.Since(startTime)

	if jsonOut {
		resp := newResponse("timed", "off")
		resp.StopReason = stopReason
		resp.Duration = duration.Seconds()
		outputJSON(resp)
	} else {
		fmt.Printf("Locate OFF (was on for %v)\n", duration.Round(time.Second))
	}
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
