package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/logging"
	"github.com/recallhq/recall/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remember [content]",
		Short: "Store a memory",
		Long:  "Store a memory. Content can be a positional arg or piped via stdin. Identical content merges into the existing record.",
		Run:   runRemember,
	}

	cmd.Flags().StringP("source", "s", "user", "Source: user, agent, system")
	cmd.Flags().Float64P("importance", "i", store.DefaultImportance, "Importance in [0,1]")
	cmd.Flags().String("meta", "", "JSON metadata")
	cmd.Flags().Bool("embed", false, "Compute an embedding with the configured provider")

	RootCmd.AddCommand(cmd)
}

func runRemember(cmd *cobra.Command, args []string) {
	source, _ := cmd.Flags().GetString("source")
	importance, _ := cmd.Flags().GetFloat64("importance")
	metaStr, _ := cmd.Flags().GetString("meta")
	embed, _ := cmd.Flags().GetBool("embed")

	content := readContent(args)
	if strings.TrimSpace(content) == "" {
		exitErr("remember", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	var meta map[string]any
	if metaStr != "" {
		if err := json.Unmarshal([]byte(metaStr), &meta); err != nil {
			exitErr("parse meta", err)
		}
	}

	p := store.StoreParams{
		Content:    content,
		Source:     source,
		Importance: &importance,
		Metadata:   meta,
	}

	if embed {
		embedder := getEmbedder()
		if embedder == nil {
			exitErr("remember", fmt.Errorf("no embedding provider configured"))
		}
		vec, err := embedder.Embed(cmd.Context(), content)
		if err != nil {
			exitErr("embed", err)
		}
		p.Embedding = vec
		p.EmbedModel = embedder.Model()
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	id, err := s.Store(cmd.Context(), p)
	if err != nil {
		exitErr("remember", err)
	}
	logging.From(cmd.Context()).Info("memory stored", "id", id)

	b, _ := json.Marshal(map[string]string{"id": id})
	fmt.Println(string(b))
}

// readContent gets content from args first, then stdin.
func readContent(args []string) string {
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		return string(b)
	}
	return ""
}
