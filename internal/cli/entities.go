package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Track named entities",
	}

	extract := &cobra.Command{
		Use:   "extract [text]",
		Short: "Extract entities from text via the completion service",
		Args:  cobra.MinimumNArgs(1),
		Run:   runEntitiesExtract,
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List tracked entities",
		Run:   runEntitiesList,
	}

	cmd.AddCommand(extract, list)
	RootCmd.AddCommand(cmd)
}

func runEntitiesExtract(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	entities := a.store.TrackEntities(cmd.Context(), strings.Join(args, " "))
	if len(entities) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(entities, "", "  ")
	fmt.Println(string(b))
}

func runEntitiesList(cmd *cobra.Command, args []string) {
	a, err := openApp()
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	entities, err := a.db.Entities(cmd.Context())
	if err != nil {
		exitErr("list entities", err)
	}
	if len(entities) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(entities, "", "  ")
	fmt.Println(string(b))
}
