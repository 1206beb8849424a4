package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mstolt/recall/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage learned user profile facts",
	}

	set := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set a profile key/value",
		Args:  cobra.ExactArgs(2),
		Run:   runProfileSet,
	}
	set.Flags().Float64("confidence", 1.0, "Confidence 0-1")

	list := &cobra.Command{
		Use:   "list",
		Short: "List profile entries",
		Run:   runProfileList,
	}

	cmd.AddCommand(set, list)
	RootCmd.AddCommand(cmd)
}

func runProfileSet(cmd *cobra.Command, args []string) {
	confidence, _ := cmd.Flags().GetFloat64("confidence")

	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	entry := model.ProfileEntry{Key: args[0], Value: args[1], Confidence: confidence}
	if err := a.db.SetProfile(cmd.Context(), entry); err != nil {
		exitErr("profile set", err)
	}
	fmt.Printf("profile[%s] = %s\n", entry.Key, entry.Value)
}

func runProfileList(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	entries, err := a.db.Profile(cmd.Context())
	if err != nil {
		exitErr("profile list", err)
	}
	if len(entries) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}
