package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	forget := &cobra.Command{
		Use:   "forget",
		Short: "Run the forgetting pass once",
		Long:  "Removes aged, rarely recalled records per their importance tier. Core and instruction memories are never touched.",
		Run:   runForget,
	}
	consolidate := &cobra.Command{
		Use:   "consolidate",
		Short: "Run the consolidation pass once",
		Long:  "Folds old episodic memories into one summary record via the completion service. A no-op when too few qualify or the service is down.",
		Run:   runConsolidate,
	}
	RootCmd.AddCommand(forget, consolidate)
}

func runForget(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	removed := a.store.EnforceRetention(cmd.Context())
	fmt.Printf("forgot %d memories\n", removed)
}

func runConsolidate(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	consolidated := a.store.Consolidate(cmd.Context())
	fmt.Printf("consolidated %d memories\n", consolidated)
}
