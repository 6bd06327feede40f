package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <controller-path>",
	Short: "Check whether enclosure management is available",
	Long: `Check whether enclosure LEDs can be driven for a controller.

On IPMI platforms this reads the identity register of the first MG9098
expander. Exits non-zero when enclosure management is not available.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustSetup(false)
		defer a.Close()
		a.checkTransport()

		iface := a.manager.Interface()
		if !a.manager.Enabled(cmd.Context(), args[0]) {
			a.fatal("enclosure management not available via %s for %s", iface, args[0])
		}
		fmt.Printf("Enclosure management available via %s\n", iface)
	},
}

var pathCmd = &cobra.Command{
	Use:   "path <controller-path>",
	Short: "Print the em_buffer path for a controller",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a := mustSetup(false)
		defer a.Close()

		path, err := a.manager.Path(args[0])
		if err != nil {
			a.fatal("%v", err)
		}
		fmt.Println(path)
	},
}
