package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories",
		Long:  "Search memories by fused lexical and vector ranking. Without an embedding provider the lexical ranker runs alone.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().IntP("limit", "l", 0, "Max results (default from config)")
	cmd.Flags().Float64("vector-weight", 0, "Weight of the vector component")
	cmd.Flags().Float64("text-weight", 0, "Weight of the lexical component")
	cmd.Flags().Float64("min-similarity", 0, "Vector candidate similarity floor")
	cmd.Flags().Bool("fts-only", false, "Skip embedding the query; lexical ranking only")
	cmd.Flags().Bool("chunks", false, "Rank chunk rows instead of memories (requires embeddings)")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	vw, _ := cmd.Flags().GetFloat64("vector-weight")
	tw, _ := cmd.Flags().GetFloat64("text-weight")
	minSim, _ := cmd.Flags().GetFloat64("min-similarity")
	ftsOnly, _ := cmd.Flags().GetBool("fts-only")
	chunks, _ := cmd.Flags().GetBool("chunks")
	query := strings.Join(args, " ")

	c := getConfig()
	if limit <= 0 {
		limit = c.Search.Limit
	}
	if vw == 0 && tw == 0 {
		vw, tw = c.Search.VectorWeight, c.Search.TextWeight
	}
	if minSim == 0 {
		minSim = c.Search.MinSimilarity
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var queryVec []float32
	if !ftsOnly {
		if embedder := getEmbedder(); embedder != nil {
			vec, err := embedder.Embed(cmd.Context(), query)
			if err != nil {
				exitErr("embed query", err)
			}
			queryVec = vec
		}
	}

	if chunks {
		if queryVec == nil {
			exitErr("search", fmt.Errorf("--chunks requires an embedding provider"))
		}
		results, err := s.SearchChunks(cmd.Context(), store.VectorParams{
			Embedding:     queryVec,
			Limit:         limit,
			MinSimilarity: minSim,
		})
		if err != nil {
			exitErr("search chunks", err)
		}
		printJSON(results)
		return
	}

	results, err := s.Search(cmd.Context(), store.SearchParams{
		Query:         query,
		Embedding:     queryVec,
		Limit:         limit,
		VectorWeight:  vw,
		TextWeight:    tw,
		MinSimilarity: minSim,
	})
	if err != nil {
		exitErr("search", err)
	}
	printJSON(results)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	if string(b) == "null" {
		fmt.Println("[]")
		return
	}
	fmt.Println(string(b))
}
