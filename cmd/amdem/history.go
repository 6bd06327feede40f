package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sigreer/amdem/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded LED updates",
	Long: `Show LED update requests recorded in the event journal, newest first.

The journal is an audit trail only; it is never used to restore LED state.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		controller, _ := cmd.Flags().GetString("controller")
		jsonOut, _ := cmd.Flags().GetBool("json")

		a := mustSetup(false)
		defer a.Close()

		journal, err := db.New(a.cfg.Journal.Path)
		if err != nil {
			a.fatal("%v", err)
		}
		defer journal.Close()

		var events []*db.LEDEvent
		if controller != "" {
			events, err = journal.GetControllerLEDEvents(controller, limit)
		} else {
			events, err = journal.GetRecentLEDEvents(limit)
		}
		if err != nil {
			a.fatal("%v", err)
		}

		if jsonOut {
			if events == nil {
				events = []*db.LEDEvent{}
			}
			outputJSON(events)
			return
		}

		if len(events) == 0 {
			fmt.Println("No events found.")
			return
		}

		fmt.Printf("%-16s %-14s %-14s %-10s %s\n", "WHEN", "PATTERN", "PREVIOUS", "RESULT", "CONTROLLER")
		fmt.Println(strings.Repeat("-", 80))
		for _, ev := range events {
			fmt.Printf("%-16s %-14s %-14s %-10s %s\n",
				humanize.Time(ev.Timestamp), ev.Pattern, ev.PreviousPattern, ev.Result, ev.ControllerPath)
			if ev.Error != "" {
				fmt.Printf("%16s %s\n", "", ev.Error)
			}
		}
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of events")
	historyCmd.Flags().StringP("controller", "c", "", "only show events for this controller path")
	historyCmd.Flags().Bool("json", false, "Output as JSON")
}
