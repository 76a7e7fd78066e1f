package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Get a memory by id",
		Args:  cobra.ExactArgs(1),
		Run:   runGet,
	}

	cmd.Flags().Bool("chunks", false, "Include the memory's chunk rows")

	RootCmd.AddCommand(cmd)
}

func runGet(cmd *cobra.Command, args []string) {
	withChunks, _ := cmd.Flags().GetBool("chunks")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	mem, err := s.Get(cmd.Context(), args[0])
	if err != nil {
		exitErr("get", err)
	}
	if mem == nil {
		fmt.Println("null")
		return
	}

	if !withChunks {
		printJSON(mem)
		return
	}

	chunks, err := s.Chunks(cmd.Context(), mem.ID)
	if err != nil {
		exitErr("get chunks", err)
	}
	printJSON(map[string]any{"memory": mem, "chunks": chunks})
}
