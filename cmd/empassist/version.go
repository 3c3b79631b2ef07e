package main

import (
	"fmt"
	"strings"

	"github.com/empassist/empassist"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of empassist",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("empassist version %s\n", strings.TrimSpace(empassist.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
