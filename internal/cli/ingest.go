package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/chunker"
	"github.com/recallhq/recall/internal/logging"
	"github.com/recallhq/recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a document",
		Long:  "Ingest a long document as a parent memory plus ordered chunks. Reads from a file argument or stdin.",
		Run:   runIngest,
	}

	cmd.Flags().StringP("title", "t", "", "Document title (defaults to the leading content)")
	cmd.Flags().StringP("source", "s", "user", "Source: user, agent, system")
	cmd.Flags().String("meta", "", "JSON metadata")
	cmd.Flags().Int("max-tokens", chunker.DefaultMaxTokens, "Chunk budget in tokens")
	cmd.Flags().Int("overlap", chunker.DefaultOverlapTokens, "Chunk overlap in tokens")
	cmd.Flags().Bool("embed", false, "Embed each chunk with the configured provider")

	RootCmd.AddCommand(cmd)
}

func runIngest(cmd *cobra.Command, args []string) {
	title, _ := cmd.Flags().GetString("title")
	source, _ := cmd.Flags().GetString("source")
	metaStr, _ := cmd.Flags().GetString("meta")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	overlap, _ := cmd.Flags().GetInt("overlap")
	embed, _ := cmd.Flags().GetBool("embed")

	var content string
	if len(args) > 0 {
		b, err := os.ReadFile(args[0])
		if err != nil {
			exitErr("read file", err)
		}
		content = string(b)
	} else {
		content = readContent(nil)
	}
	if strings.TrimSpace(content) == "" {
		exitErr("ingest", fmt.Errorf("content is required (file arg or stdin)"))
	}

	var meta map[string]any
	if metaStr != "" {
		if err := json.Unmarshal([]byte(metaStr), &meta); err != nil {
			exitErr("parse meta", err)
		}
	}

	opts := chunker.Options{MaxTokens: maxTokens, OverlapTokens: overlap}
	p := store.DocumentParams{
		Content:      content,
		Title:        title,
		Source:       source,
		Metadata:     meta,
		ChunkOptions: opts,
	}

	if embed {
		embedder := getEmbedder()
		if embedder == nil {
			exitErr("ingest", fmt.Errorf("no embedding provider configured"))
		}
		chunks := chunker.Split(content, opts)
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		vectors, err := embedder.EmbedBatch(cmd.Context(), texts)
		if err != nil {
			exitErr("embed chunks", err)
		}
		p.ChunkEmbeddings = vectors
		p.EmbedModel = embedder.Model()
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	id, err := s.StoreDocument(cmd.Context(), p)
	if err != nil {
		exitErr("ingest", err)
	}
	logging.From(cmd.Context()).Info("document ingested", "id", id)

	b, _ := json.Marshal(map[string]string{"id": id})
	fmt.Println(string(b))
}
