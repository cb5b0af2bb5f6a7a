package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"riptide/internal/extractor"
	"riptide/internal/resolve"
)

// resolveCmd runs the resolution pipeline once and prints the result,
// useful for debugging a URL without starting the server.
var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Resolve a single media page URL and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  resolveRun,
}

func resolveRun(cmd *cobra.Command, args []string) error {
	resolver := resolve.New(extractor.New(cfg.YtdlpPath), nil)

	result, err := resolver.Resolve(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
