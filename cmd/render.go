package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"nailchat/markup"
	"nailchat/ui"
)

var (
	renderPlain bool
	renderWidth int
)

var renderCmd = &cobra.Command{
	Use:   "render [text]",
	Short: "Render assistant markup from arguments or stdin",
	Long: `Render text the way the chat displays assistant answers: numbered and
bulleted lists, headings, bold, italic, inline code and links.

With --plain the markup is stripped instead of styled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			text = string(data)
		}
		text = strings.TrimRight(text, "\n")

		if renderPlain {
			fmt.Fprintln(cmd.OutOrStdout(), markup.PlainText(markup.Render(text)))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderMarkup(text, renderWidth))
		return nil
	},
}

func init() {
	renderCmd.Flags().BoolVar(&renderPlain, "plain", false, "Strip markup instead of styling it")
	renderCmd.Flags().IntVarP(&renderWidth, "width", "w", 80, "Wrap width (0 disables wrapping)")
	rootCmd.AddCommand(renderCmd)
}
