package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// PlatformInfo is the JSON form of `amdem platform`
type PlatformInfo struct {
	ProductName string `json:"product_name"`
	Platform    string `json:"platform"`
	Interface   string `json:"interface"`
}

var platformCmd = &cobra.Command{
	Use:   "platform",
	Short: "Show the detected platform and LED interface",
	Run: func(cmd *cobra.Command, args []string) {
		jsonOut, _ := cmd.Flags().GetBool("json")
		a := mustSetup(false)
		defer a.Close()

		info := PlatformInfo{
			ProductName: a.manager.ProductName(),
			Platform:    a.manager.Platform().String(),
			Interface:   a.manager.Interface().String(),
		}

		if jsonOut {
			outputJSON(info)
			return
		}

		product := info.ProductName
		if product == "" {
			product = "(unknown)"
		}
		fmt.Printf("Product:   %s\n", product)
		fmt.Printf("Platform:  %s\n", info.Platform)
		fmt.Printf("Interface: %s\n", info.Interface)
	},
}

func init() {
	platformCmd.Flags().Bool("json", false, "Output as JSON")
}
