package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "similar [id]",
		Short: "Find memories similar to an existing one",
		Long:  "Rank other memories against the named record's embedding. Records without embeddings yield no results.",
		Args:  cobra.ExactArgs(1),
		Run:   runSimilar,
	}

	cmd.Flags().IntP("limit", "l", 5, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSimilar(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	results, err := s.FindSimilar(cmd.Context(), args[0], limit)
	if err != nil {
		exitErr("similar", err)
	}
	printJSON(results)
}
