package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nailchat/storage"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a conversation as JSON, YAML or Markdown",
	Long: `Export a saved conversation.

Without --out the file is written to the current directory with a name
derived from the conversation title. Use --out - to write to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := storage.NewExporter(exportFormat)
		if err != nil {
			return err
		}

		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := a.engine.Session(args[0])
		if err != nil {
			return err
		}

		if exportOut == "-" {
			return exporter.Export(&session, cmd.OutOrStdout())
		}

		path := exportOut
		if path == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			path = storage.GenerateExportPath(cwd, session.Title, exporter.Extension(), time.Now())
		}

		if err := storage.ExportToFile(&session, exportFormat, path); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Exported"), path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format: json, yaml or markdown")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file, or - for stdout")
	rootCmd.AddCommand(exportCmd)
}
