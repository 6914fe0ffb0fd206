package cmd

import (
	"fmt"

	"mailassist_server/internal/bootstrap"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mailassist version %s\n", bootstrap.Version)
		},
	}
}
