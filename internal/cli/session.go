package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/internal/store"
)

func init() {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage conversation session transcripts",
	}

	addCmd := &cobra.Command{
		Use:   "add [session-id] [role] [content]",
		Short: "Append one turn to a session",
		Args:  cobra.ExactArgs(3),
		Run:   runSessionAdd,
	}

	historyCmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "Show the most recent turns of a session, oldest first",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionHistory,
	}
	historyCmd.Flags().IntP("limit", "l", store.DefaultHistoryLimit, "Max turns")

	clearCmd := &cobra.Command{
		Use:   "clear [session-id]",
		Short: "Delete all turns of a session",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionClear,
	}

	sessionCmd.AddCommand(addCmd, historyCmd, clearCmd)
	RootCmd.AddCommand(sessionCmd)
}

func runSessionAdd(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.AppendMessage(cmd.Context(), args[0], args[1], args[2]); err != nil {
		exitErr("session add", err)
	}
	fmt.Println(`{"ok": true}`)
}

func runSessionHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	messages, err := s.History(cmd.Context(), args[0], limit)
	if err != nil {
		exitErr("session history", err)
	}
	printJSON(messages)
}

func runSessionClear(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.ClearSession(cmd.Context(), args[0]); err != nil {
		exitErr("session clear", err)
	}
	fmt.Println(`{"ok": true}`)
}
