package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/voluzi/procpilot/pkg/dataexporter"
)

var exportersCmd = &cobra.Command{
	Use:   "exporters",
	Short: "Lists the available export formats",
	Run: func(cmd *cobra.Command, args []string) {
		all := dataexporter.FindAll()

		kinds := make([]string, 0, len(all))
		for kind := range all {
			kinds = append(kinds, string(kind))
		}
		sort.Strings(kinds)

		for _, kind := range kinds {
			fmt.Printf("%-10s %s\n", kind, all[dataexporter.Kind(kind)])
		}
	},
}

func init() {
	rootCmd.AddCommand(exportersCmd)
}
