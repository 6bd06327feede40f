package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sigreer/amdem/internal/drive"
	"github.com/sigreer/amdem/internal/ibpi"
)

// patternFlag parses a pattern name on the command line
type patternFlag struct {
	pattern ibpi.Pattern
}

var _ pflag.Value = (*patternFlag)(nil)

func (f *patternFlag) String() string {
	return f.pattern.String()
}

func (f *patternFlag) Set(s string) error {
	p, err := ibpi.Parse(s)
	if err != nil {
		return err
	}
	f.pattern = p
	return nil
}

func (f *patternFlag) Type() string {
	return "pattern"
}

var previousPattern patternFlag

var setCmd = &cobra.Command{
	Use:   "set <controller-path> <pattern>",
	Short: "Set the LED pattern of a drive bay",
	Long: `Set the LED pattern of the drive bay behind a controller.

Patterns: normal, oneshot_normal, locate, locate_off, failure, failed_array,
rebuild, hotspare, pfa.

--previous tells amdem what the bay currently shows; when it equals the
requested pattern nothing is sent to the hardware.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		pattern, err := ibpi.Parse(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		a := mustSetup(true)
		defer a.Close()
		a.checkTransport()

		dev := &drive.BlockDevice{ControllerPath: args[0], PreviousPattern: previousPattern.pattern}
		if err := a.manager.Write(cmd.Context(), dev, pattern); err != nil {
			a.fatal("%v", err)
		}
		fmt.Printf("%s: %s\n", dev.ControllerPath, dev.PreviousPattern)
	},
}

func init() {
	setCmd.Flags().Var(&previousPattern, "previous", "pattern the bay currently shows")
}
