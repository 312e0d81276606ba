package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"nailchat/config"
	"nailchat/storage"
	"nailchat/ui"
)

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp(true)
	if err != nil {
		showError("Configuration Error", err.Error())
		return err
	}
	defer a.Close()

	lock := storage.NewInstanceLock(a.cfg.DataDir())
	locked, pid, err := lock.Check()
	if err != nil {
		return fmt.Errorf("failed to check instance lock: %w", err)
	}
	if locked {
		final, err := tea.NewProgram(ui.NewInstanceLockedModal(pid, a.cfg.DataDir()), tea.WithAltScreen()).Run()
		if err != nil {
			return err
		}
		if m, ok := final.(ui.InstanceLockedModal); !ok || !m.ForceDelete() {
			return nil
		}
		a.log.Warn().Int("pid", pid).Msg("removing lock held by another process")
	}

	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock data directory: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.log.Warn().Err(err).Msg("failed to remove instance lock")
		}
	}()

	kb, err := config.LoadKeybindings(a.cfg.DataDir())
	if err != nil {
		showError("Keybinding Error", err.Error())
		return err
	}

	view := ui.NewAppView(a.engine, ui.Options{
		ServerURL:   a.cfg.ServerURL,
		Keybindings: kb,
		Logger:      a.log,
		Health:      a.client.Health,
	})

	a.log.Info().Str("server", a.cfg.ServerURL).Msg("starting chat")
	if _, err := tea.NewProgram(view, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running nailchat: %w", err)
	}
	return nil
}

// showError displays a blocking error screen before the chat starts
func showError(title, message string) {
	_, _ = tea.NewProgram(ui.NewErrorModal(title, message), tea.WithAltScreen()).Run()
}
