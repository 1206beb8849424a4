package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mstolt/recall/internal/scheduler"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the maintenance scheduler",
		Long:  "Keeps the store healthy over long uptimes: periodic forgetting and consolidation passes until interrupted.",
		Run:   runRun,
	}
	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	sched := scheduler.New(a.store,
		a.cfg.Policy.RetentionInterval.Std(),
		a.cfg.Policy.ConsolidationInterval.Std(),
		a.log)
	sched.Start(context.Background())
	defer sched.Stop()

	fmt.Fprintln(os.Stderr, "scheduler running, press Ctrl+C to stop")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Fprintln(os.Stderr, "shutting down")
}
