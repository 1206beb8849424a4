package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mstolt/recall/internal/model"
	"github.com/mstolt/recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Rank memories against a query",
		Long:  "Multi-factor retrieval: vector similarity, keyword overlap, importance, recency, and emotional match. Falls back to keyword-only scoring when the embedding service is down.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("mood", "", "Current mood (default: persisted emotion state)")
	cmd.Flags().Float64("threshold", 0, "Minimum fused score (default: policy, 0.3)")
	cmd.Flags().IntP("limit", "l", 0, "Max results (default: policy, 5)")
	cmd.Flags().StringSliceP("categories", "c", nil, "Categories to search (default: all except core, working)")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	moodFlag, _ := cmd.Flags().GetString("mood")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	limit, _ := cmd.Flags().GetInt("limit")
	catNames, _ := cmd.Flags().GetStringSlice("categories")
	query := strings.Join(args, " ")

	var cats []model.Category
	for _, c := range catNames {
		cats = append(cats, model.Category(c))
	}

	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	results := a.store.Search(cmd.Context(), query, store.SearchOptions{
		Mood:       moodFlag,
		Threshold:  threshold,
		Limit:      limit,
		Categories: cats,
	})

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
