package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/chunker"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chunk [file]",
		Short: "Preview how a document would be chunked",
		Long:  "Run the chunker over a file or stdin and print the emitted chunks without storing anything.",
		Run:   runChunk,
	}

	cmd.Flags().Int("max-tokens", chunker.DefaultMaxTokens, "Chunk budget in tokens")
	cmd.Flags().Int("overlap", chunker.DefaultOverlapTokens, "Chunk overlap in tokens")

	RootCmd.AddCommand(cmd)
}

func runChunk(cmd *cobra.Command, args []string) {
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	overlap, _ := cmd.Flags().GetInt("overlap")

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
		exitErr("chunk", fmt.Errorf("content is required (file arg or stdin)"))
	}

	chunks := chunker.Split(content, chunker.Options{MaxTokens: maxTokens, OverlapTokens: overlap})
	printJSON(chunks)
}
