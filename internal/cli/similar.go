package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "similar [query]",
		Short: "Cosine-only similarity search",
		Long:  "Legacy retrieval path: ranks by vector similarity alone, with its own higher default threshold. Requires the embedding service.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSimilar,
	}

	cmd.Flags().Float64("threshold", 0, "Minimum similarity (default: policy, 0.7)")
	cmd.Flags().IntP("limit", "l", 0, "Max results (default: policy, 3)")

	RootCmd.AddCommand(cmd)
}

func runSimilar(cmd *cobra.Command, args []string) {
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	vec, err := a.llm.Embed(cmd.Context(), query)
	if err != nil {
		exitErr("embed query", err)
	}

	results := a.store.SimilaritySearch(vec, threshold, limit)
	if len(results) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
