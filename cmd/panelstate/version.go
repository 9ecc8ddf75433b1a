package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/panelstate"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of panelstate",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "panelstate version %s\n", strings.TrimSpace(panelstate.Version))
		},
	}
}
