package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage runtime settings",
	}

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show all settings (defaults overlaid with stored values)",
		Run:   runSettingsList,
	})
	settingsCmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Get one setting",
		Args:  cobra.ExactArgs(1),
		Run:   runSettingsGet,
	})
	settingsCmd.AddCommand(&cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set one setting (value parsed as JSON, else stored as a string)",
		Args:  cobra.ExactArgs(2),
		Run:   runSettingsSet,
	})
	settingsCmd.AddCommand(&cobra.Command{
		Use:   "reset [key]",
		Short: "Reset one setting to its default",
		Args:  cobra.ExactArgs(1),
		Run:   runSettingsReset,
	})

	RootCmd.AddCommand(settingsCmd)
}

func runSettingsList(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	all, err := s.AllSettings(cmd.Context())
	if err != nil {
		exitErr("settings list", err)
	}
	printJSON(all)
}

func runSettingsGet(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	value, err := s.GetSetting(cmd.Context(), args[0])
	if err != nil {
		exitErr("settings get", err)
	}
	printJSON(map[string]any{args[0]: value})
}

func runSettingsSet(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var value any
	if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
		value = args[1]
	}
	if err := s.SetSetting(cmd.Context(), args[0], value); err != nil {
		exitErr("settings set", err)
	}
	fmt.Println(`{"ok": true}`)
}

func runSettingsReset(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.ResetSetting(cmd.Context(), args[0]); err != nil {
		exitErr("settings reset", err)
	}
	fmt.Println(`{"ok": true}`)
}
