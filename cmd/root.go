// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"riptide/internal/config"
	"riptide/internal/extractor"
	"riptide/internal/history"
	"riptide/internal/relay"
	"riptide/internal/resolve"
	"riptide/internal/server"
	"riptide/pkg/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagAddr      string
	flagScratch   string
	flagYtdlp     string
	flagNoHistory bool
	flagDebug     bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "riptide",
	Short: "Resolve media page URLs to direct streams and relay them",
	Long: `Riptide is a self-hosted backend that resolves media page URLs to
direct stream URLs and optionally downloads, merges and re-streams the
media. Running it with no subcommand starts the HTTP server.`,
	PersistentPreRunE: loadConfig,
	RunE:              serveRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagAddr, "addr", "a", "", "Listen address (host:port)")
	rootCmd.PersistentFlags().StringVar(&flagScratch, "scratch-dir", "", "Scratch directory for downloads")
	rootCmd.PersistentFlags().StringVar(&flagYtdlp, "ytdlp", "", "Path to the yt-dlp binary")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Disable the resolution history store")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagAddr != "" {
		cfg.ListenAddr = flagAddr
	}
	if flagScratch != "" {
		cfg.ScratchDir = flagScratch
	}
	if flagYtdlp != "" {
		cfg.YtdlpPath = flagYtdlp
	}
	if flagNoHistory {
		cfg.History = false
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Debug {
		logger.SetMinLevel(logger.DEBUG)
	}

	return nil
}

var log = logger.Get("riptide")

// serveRun is the default command: start the HTTP server.
func serveRun(cmd *cobra.Command, args []string) error {
	// The setup command drops ffmpeg into bin/; make sure yt-dlp finds it.
	if abs, err := filepath.Abs("bin"); err == nil {
		os.Setenv("PATH", os.Getenv("PATH")+string(os.PathListSeparator)+abs)
	}

	scratch := cfg.ResolveScratchDir()
	log.Emit(logger.DEBUG, "scratch directory: %s\n", scratch)

	ytdlp := extractor.New(cfg.YtdlpPath)

	var (
		recorder  resolve.Recorder
		histStore server.History
	)
	if cfg.History {
		path, err := config.HistoryPath()
		if err == nil {
			store, herr := history.Open(path)
			if herr != nil {
				log.Emit(logger.WARNING, "history disabled: %v\n", herr)
			} else {
				defer store.Close()
				recorder = store
				histStore = store
			}
		}
	}

	resolver := resolve.New(ytdlp, recorder)
	rl := relay.New(ytdlp, scratch)
	srv := server.New(resolver, rl, histStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx, cfg.ListenAddr)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the riptide version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("riptide", Version)
	},
}
