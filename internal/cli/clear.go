package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/logging"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Wipe all memories, chunks, sessions, and cached embeddings",
		Run:   runClear,
	}

	cmd.Flags().Bool("yes", false, "Skip confirmation")

	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		exitErr("clear", fmt.Errorf("refusing to wipe without --yes"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.ClearAll(cmd.Context()); err != nil {
		exitErr("clear", err)
	}
	logging.From(cmd.Context()).Info("store cleared")
	fmt.Println(`{"cleared": true}`)
}
