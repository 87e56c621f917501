package cmd

import (
	"fmt"
	"strconv"

	"github.com/cottand/ivars/infer"
	"github.com/spf13/cobra"
)

var NameCmd = &cobra.Command{
	Use:          "name id...",
	Short:        "Print the display names of inference variables with the given ids",
	RunE:         runName,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var nameCaptured *bool

func init() {
	nameCaptured = NameCmd.Flags().BoolP("captured", "c", false, "name captured variables")
}

func runName(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id < 0 {
			return fmt.Errorf("invalid variable id %q", arg)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", id, infer.VarName(id, *nameCaptured))
	}
	return nil
}
