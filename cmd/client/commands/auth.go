package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plume-im/plume/internal/client"
)

func registerCmd() *cobra.Command {
	var displayName string

	cmd := &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account on the home server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := getPassword(os.Stdout, "Enter password: ")
			if err != nil {
				return err
			}

			if displayName == "" {
				displayName = args[0]
			}

			c := client.New(serverURL)
			if err := c.Register(cmd.Context(), args[0], password, displayName); err != nil {
				return err
			}

			fmt.Println("Registered. Run `plume login` to start a session.")
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "display name shown to correspondents (default: username)")
	return cmd
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and save the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := getPassword(os.Stdout, "Enter password: ")
			if err != nil {
				return err
			}

			c := client.New(serverURL)
			if err := c.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}

			if err := c.SaveState(statePath); err != nil {
				return err
			}

			fmt.Printf("Logged in as %s\n", c.DisplayName())
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and remove local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sessionClient()
			if err != nil {
				return err
			}

			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}

			return client.RemoveState(statePath)
		},
	}
}
