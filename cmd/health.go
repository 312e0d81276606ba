package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthTimeout time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the assistant service is reachable and ready",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Assistant: %s\n", a.client.BaseURL())

		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()

		health, err := a.client.Health(ctx)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("✗ unreachable"))
			return err
		}

		if !health.SystemReady {
			fmt.Fprintln(out, errorStyle.Render("✗ "+health.Status))
			return fmt.Errorf("assistant service is not ready (status %q)", health.Status)
		}

		fmt.Fprintln(out, successStyle.Render("✓ "+health.Status))
		return nil
	},
}

func init() {
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "How long to wait for the service")
	rootCmd.AddCommand(healthCmd)
}
