package amdipmi

import (
	"context"

	"github.com/sigreer/amdem/internal/drive"
	"github.com/sigreer/amdem/internal/logging"
)

// Enabled reports whether an MG9098 answers on the platform's bus. The
// controller path is not consulted; the identity register of the first
// expander is read instead.
func (c *Controller) Enabled(ctx context.Context, controllerPath string) bool {
	logger := logging.GetLogger("amdipmi")

	id, err := c.ReadRegister(ctx, RegIdentity, drive.Drive{Class: drive.None})
	if err != nil {
		logger.Warn("Unable to read expander identity", "controller", controllerPath, "error", err)
		return false
	}
	if id != chipIdentity {
		logger.Info("Unexpected expander identity",
			"controller", controllerPath, "got", id, "want", chipIdentity)
		return false
	}
	return true
}
