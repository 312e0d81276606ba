package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nailchat/storage"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search message text across all conversations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		query := strings.Join(args, " ")
		matches := a.engine.Search(query)
		out := cmd.OutOrStdout()

		if len(matches) == 0 {
			fmt.Fprintf(out, "No messages match %q\n", query)
			return nil
		}
		if searchLimit > 0 && len(matches) > searchLimit {
			matches = matches[:searchLimit]
		}

		for _, m := range matches {
			author := "You"
			if m.Role == storage.RoleAssistant {
				author = "Assistant"
			}
			fmt.Fprintf(out, "%s %s\n    %s: %s\n",
				titleStyle.Render(m.SessionTitle),
				idStyle.Render(m.SessionID),
				author,
				m.Preview,
			)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum matches to show (0 for all)")
	rootCmd.AddCommand(searchCmd)
}
