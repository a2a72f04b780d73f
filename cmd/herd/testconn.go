package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTestConnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test-conn",
		Short: "Test the API connection",
		Long:  `Log in to the Proxmox VE API and display the server version.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Testing connection to %s...\n", a.cfg.URL)

			client, session, err := a.login(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "✓ Authenticated as %s\n", session.Username())

			info, err := client.Version(cmd.Context(), session)
			if err != nil {
				return fmt.Errorf("failed to get API version: %w", err)
			}
			_, _ = fmt.Fprintf(out, "✓ Proxmox VE version: %s (release %s, repoid %s)\n", info.Version, info.Release, info.RepoID)

			_, _ = fmt.Fprintln(out, "\nConnection test successful!")
			return nil
		},
	}
}
