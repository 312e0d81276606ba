package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nailchat/config"
	"nailchat/storage"
)

var (
	serverURL      string
	dataDir        string
	storageBackend string
	debug          bool
	ephemeral      bool

	version = "dev"
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "nailchat",
	Short: "Chat with the nail design assistant from your terminal",
	Long: `nailchat is a terminal client for the nail design assistant.

Ask about shapes, colors, techniques and nail care, or attach a photo of
your nails for an analysis. Conversations are kept locally and can be
pinned, renamed, searched and exported.

Quick Start:
  nailchat                          # Open the chat
  nailchat sessions list            # List saved conversations
  nailchat export <id> --format md  # Export a conversation as Markdown
  nailchat health                   # Check the assistant service`,
	Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE:         runChat,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Assistant service URL (overrides NAILCHAT_SERVER_URL and config.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding history, config and logs")
	rootCmd.PersistentFlags().StringVar(&storageBackend, "storage", "", "History backend: file, sqlite or memory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep history in memory only (same as --storage memory)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

func overrides() config.Overrides {
	o := config.Overrides{
		ServerURL: serverURL,
		DataDir:   dataDir,
		Storage:   storageBackend,
		Debug:     debug,
	}
	if ephemeral {
		o.Storage = string(storage.BackendMemory)
	}
	return o
}
