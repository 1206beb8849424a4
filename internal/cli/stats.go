package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-category record counts",
		Run:   runStats,
	}
	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	out := struct {
		Total      int            `json:"total"`
		Categories map[string]int `json:"categories"`
	}{
		Total:      a.store.Count(),
		Categories: map[string]int{},
	}
	for cat, n := range a.store.Stats() {
		out.Categories[string(cat)] = n
	}

	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
