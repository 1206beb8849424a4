package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mstolt/recall/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored memories",
		Long:  "Raw listing of the store, including expired records.",
		Run:   runList,
	}

	cmd.Flags().StringP("category", "c", "", "Filter by category")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")

	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	var memories []model.Memory
	if category != "" {
		memories = a.store.ByCategory(model.Category(category))
	} else {
		memories = a.store.List()
	}

	if len(memories) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
}
