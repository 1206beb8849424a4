package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remember [transcript]",
		Short: "Summarize a session transcript into a memory",
		Long:  "Asks the completion service for a short summary of a conversation and stores it as a summary record. Transcript can be piped via stdin.",
		Run:   runRemember,
	}
	RootCmd.AddCommand(cmd)
}

func runRemember(cmd *cobra.Command, args []string) {
	var transcript string
	if len(args) > 0 {
		transcript = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			transcript = string(b)
		}
	}
	if strings.TrimSpace(transcript) == "" {
		exitErr("remember", fmt.Errorf("transcript is required (positional arg or stdin)"))
	}

	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	mem := a.store.SummarizeSession(cmd.Context(), transcript)
	if mem == nil {
		fmt.Println("no summary stored (completion service unavailable?)")
		return
	}
	b, _ := json.Marshal(mem)
	fmt.Println(string(b))
}
