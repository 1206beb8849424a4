package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rm [id]",
		Short: "Delete a memory by id",
		Args:  cobra.ExactArgs(1),
		Run:   runRm,
	}
	RootCmd.AddCommand(cmd)
}

func runRm(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	if !a.store.Delete(cmd.Context(), args[0]) {
		exitErr("rm", fmt.Errorf("memory not found: %s", args[0]))
	}
	fmt.Printf("deleted %s\n", args[0])
}
