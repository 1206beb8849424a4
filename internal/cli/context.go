package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [query]",
		Short: "Render relevant memories as a prompt fragment",
		Long:  "Runs retrieval and renders the hits as a bounded text block ready for inclusion in a model prompt.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runContext,
	}

	cmd.Flags().Int("max-chars", 0, "Character budget for the block (default 8000)")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	maxChars, _ := cmd.Flags().GetInt("max-chars")
	query := strings.Join(args, " ")

	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	fmt.Print(a.store.BuildContextBlock(cmd.Context(), query, maxChars))
}
