package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/classifier"
)

func init() {
	cmd := &cobra.Command{
		Use:   "capture [text]",
		Short: "Check whether text would be captured, and its category",
		Args:  cobra.MinimumNArgs(1),
		Run:   runCapture,
	}

	RootCmd.AddCommand(cmd)
}

func runCapture(cmd *cobra.Command, args []string) {
	text := strings.Join(args, " ")
	printJSON(map[string]any{
		"should_capture": classifier.ShouldCapture(text),
		"category":       classifier.DetectCategory(text),
	})
}
