// Package commands implements the plume CLI: account management, the
// correspondence handshake, and encrypted messaging against a home server.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/plume-im/plume/internal/client"
)

var (
	serverURL string
	statePath string
)

func Execute() error {
	root := &cobra.Command{
		Use:   "plume",
		Short: "Federated end-to-end encrypted correspondence CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if statePath == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				statePath = filepath.Join(dir, ".plume", "session.json")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "home server base URL")
	root.PersistentFlags().StringVar(&statePath, "state", "", "session state file (default ~/.plume/session.json)")

	root.AddCommand(
		registerCmd(), loginCmd(), logoutCmd(),
		generateCodeCmd(), answerCmd(), requestsCmd(), confirmCmd(), incomingCmd(), acceptCmd(),
		correspondentsCmd(), sendCmd(), messagesCmd(),
	)
	return root.Execute()
}

// sessionClient restores the saved session or fails with a hint to log in.
func sessionClient() (*client.Client, error) {
	c, err := client.LoadState(statePath)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("no session found, run `plume login` first")
	}
	return c, nil
}
