package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove memories in bulk",
		Long:  "Removes every non-core memory. Pass --all to drop core memories too, or --purge to wipe every table including profile, entities, and logs.",
		Run:   runClear,
	}

	cmd.Flags().Bool("all", false, "Also remove core memories")
	cmd.Flags().Bool("purge", false, "Wipe all tables, not just memories")

	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	all, _ := cmd.Flags().GetBool("all")
	purge, _ := cmd.Flags().GetBool("purge")

	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	if purge {
		a.store.Clear(cmd.Context(), false)
		if err := a.db.ClearAll(cmd.Context()); err != nil {
			exitErr("purge", err)
		}
		fmt.Println("all data cleared")
		return
	}

	a.store.Clear(cmd.Context(), !all)
	if all {
		fmt.Println("all memories cleared")
	} else {
		fmt.Printf("non-core memories cleared, %d core kept\n", a.store.Count())
	}
}
