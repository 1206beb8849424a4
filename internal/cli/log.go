package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Conversation log",
	}

	add := &cobra.Command{
		Use:   "add [role] [content]",
		Short: "Append one conversation turn",
		Args:  cobra.MinimumNArgs(2),
		Run:   runLogAdd,
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Show recent conversation turns",
		Run:   runLogShow,
	}
	show.Flags().IntP("limit", "l", 50, "Max turns")

	cmd.AddCommand(add, show)
	RootCmd.AddCommand(cmd)
}

func runLogAdd(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	a.store.RecordTurn(cmd.Context(), args[0], strings.Join(args[1:], " "))
	fmt.Println("logged")
}

func runLogShow(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	entries, err := a.db.RecentLog(cmd.Context(), limit)
	if err != nil {
		exitErr("log show", err)
	}
	if len(entries) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}
