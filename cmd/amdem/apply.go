package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigreer/amdem/internal/drive"
	"github.com/sigreer/amdem/internal/ibpi"
	"github.com/sigreer/amdem/internal/logging"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply LED patterns read line by line",
	Long: `Read "<controller-path> <pattern>" lines from a file or stdin and apply
each pattern in order. Blank lines and lines starting with # are ignored.

The last pattern applied to each controller is remembered for the rest of
the run, so repeating a pattern sends nothing to the hardware. This makes
apply suitable as the sink of a monitoring loop:

  storage-health --watch | amdem apply`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")

		var in io.Reader = os.Stdin
		if file != "" && file != "-" {
			f, err := os.Open(file)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer f.Close()
			in = f
		}

		a := mustSetup(true)
		defer a.Close()
		a.checkTransport()

		failed, err := applyPatterns(cmd.Context(), in, os.Stdout, a.manager)
		if err != nil {
			a.fatal("%v", err)
		}
		if failed > 0 {
			a.fatal("%d update(s) failed", failed)
		}
	},
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "read updates from file instead of stdin")
}

// patternWriter applies a pattern to a block device
type patternWriter interface {
	Write(ctx context.Context, dev *drive.BlockDevice, pattern ibpi.Pattern) error
}

// applyPatterns runs the update loop and returns the number of lines that
// could not be applied. It stops early only if ctx is cancelled or reading
// fails.
func applyPatterns(ctx context.Context, in io.Reader, out io.Writer, w patternWriter) (int, error) {
	logger := logging.GetLogger("apply")
	devices := make(map[string]*drive.BlockDevice)
	failed := 0

	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return failed, err
		}
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			logger.Warn("Ignoring malformed line", "line", lineNo, "text", line)
			failed++
			continue
		}

		pattern, err := ibpi.Parse(fields[1])
		if err != nil {
			logger.Warn("Ignoring line", "line", lineNo, "error", err)
			failed++
			continue
		}

		dev, ok := devices[fields[0]]
		if !ok {
			dev = &drive.BlockDevice{ControllerPath: fields[0]}
			devices[fields[0]] = dev
		}

		if err := w.Write(ctx, dev, pattern); err != nil {
			fmt.Fprintf(out, "%s: %s failed: %v\n", dev.ControllerPath, pattern, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", dev.ControllerPath, dev.PreviousPattern)
	}

	return failed, scanner.Err()
}
