package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"riptide/internal/config"
	"riptide/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent resolutions",
	RunE:  historyRun,
}

func historyRun(cmd *cobra.Command, args []string) error {
	path, err := config.HistoryPath()
	if err != nil {
		return err
	}

	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(50)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No resolutions recorded yet.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s  %-40s  %d format(s)  %s\n", e.ResolvedAt, e.Title, e.FormatCount, e.URL)
	}
	return nil
}
