package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"nailchat/storage"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved conversations",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List saved conversations, pinned first",
	Long: `List saved conversations. Pinned conversations come first; the
optional query filters by title, ignoring case.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		sessions := a.engine.Sessions(query)
		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			if query != "" {
				fmt.Fprintf(out, "No sessions match %q\n", query)
			} else {
				fmt.Fprintln(out, "No sessions yet. Run nailchat to start one.")
			}
			return nil
		}

		printSessions(out, sessions, time.Now())
		return nil
	},
}

func printSessions(out io.Writer, sessions []storage.Session, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, headerStyle.Render("ID")+"\t"+headerStyle.Render("TITLE")+"\t"+headerStyle.Render("MSGS")+"\t"+headerStyle.Render("ACTIVITY"))

	for _, s := range sessions {
		title := s.Title
		if s.Pinned {
			title = "📌 " + title
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			idStyle.Render(s.ID),
			titleStyle.Render(title),
			len(s.Messages),
			dateStyle.Render(s.ActivityLabel(now)),
		)
	}
	_ = w.Flush()
}

var sessionsPinCmd = &cobra.Command{
	Use:   "pin <id>",
	Short: "Pin or unpin a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireUnlocked(); err != nil {
			return err
		}

		pinned, err := a.engine.TogglePin(args[0])
		if err != nil {
			return err
		}

		state := "Unpinned"
		if pinned {
			state = "Pinned"
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(state), args[0])
		return nil
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireUnlocked(); err != nil {
			return err
		}

		title := strings.Join(args[1:], " ")
		if err := a.engine.Rename(args[0], title); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Renamed"), args[0], "to", strings.TrimSpace(title))
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation here and on the assistant service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.requireUnlocked(); err != nil {
			return err
		}

		// Local removal never waits on the service
		if err := a.engine.Delete(context.Background(), args[0]); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Deleted"), args[0])
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd, sessionsPinCmd, sessionsRenameCmd, sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}
