package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories newest-first",
		Run:   runList,
	}

	cmd.Flags().IntP("limit", "l", 50, "Max results")
	cmd.Flags().Int("offset", 0, "Rows to skip")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	memories, err := s.List(cmd.Context(), limit, offset)
	if err != nil {
		exitErr("list", err)
	}
	printJSON(memories)
}
