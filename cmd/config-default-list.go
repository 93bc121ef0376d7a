package cmd

import (
	"fmt"
	"os"

	"github.com/relloyd/bronze/actions"
	"github.com/relloyd/bronze/config"
	"github.com/spf13/cobra"
)

var configDefaultListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print all default flag values",
	Long: fmt.Sprintf(`List default flag values stored in config file %q
by printing them all to STDOUT`,
		config.Main.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		return actions.RunDefaultList(config.Main, os.Stdout)
	},
}

func init() {
	defaultCmd.AddCommand(configDefaultListCmd)
}
