// Package em selects the enclosure-management backend for the running
// platform and applies LED patterns to block devices through it.
package em

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sigreer/amdem/internal/drive"
	"github.com/sigreer/amdem/internal/ibpi"
	"github.com/sigreer/amdem/internal/platform"
)

// ErrUnsupported is returned when no backend can serve a request.
var ErrUnsupported = errors.New("enclosure management not supported")

// Backend drives enclosure LEDs over one management interface.
type Backend interface {
	// Enabled reports whether the interface is usable for the controller.
	Enabled(ctx context.Context, controllerPath string) bool
	// Write applies pattern to dev. It does not update dev.PreviousPattern.
	Write(ctx context.Context, dev *drive.BlockDevice, pattern ibpi.Pattern) error
}

// Unavailable is a Backend for an interface this program cannot drive.
type Unavailable struct {
	Name string
}

func (u Unavailable) Enabled(context.Context, string) bool {
	return false
}

func (u Unavailable) Write(context.Context, *drive.BlockDevice, ibpi.Pattern) error {
	return fmt.Errorf("%w: %s backend not available", ErrUnsupported, u.Name)
}

// Event describes one LED update request.
type Event struct {
	RequestID       string
	ControllerPath  string
	Pattern         ibpi.Pattern
	PreviousPattern ibpi.Pattern
	Platform        platform.Platform
	Interface       platform.Interface
	Suppressed      bool
	Err             error
	Timestamp       time.Time
}

// Recorder receives every LED update request handled by a Manager.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}
