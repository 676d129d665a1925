package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func generateCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-code",
		Short: "Start a handshake and print the shareable code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sessionClient()
			if err != nil {
				return err
			}

			code, err := c.GenerateCode(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Share this code together with your server URL:\n%s\n", code)
			return nil
		},
	}
}

func answerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "answer [server-url] [code]",
		Short: "Answer a code shared by a correspondent on another server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sessionClient()
			if err != nil {
				return err
			}

			if err := c.Answer(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			fmt.Println("Answer sent. The initiator must now confirm.")
			return nil
		},
	}
}

func requestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requests",
		Short: "List answers waiting for your confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sessionClient()
			if err != nil {
				return err
			}

			pending, err := c.PendingFilled(cmd.Context())
			if err != nil {
				return err
			}

			if len(pending) == 0 {
				fmt.Println("No pending requests.")
				return nil
			}
			for _, p := range pending {
				fmt.Printf("%s\t%s\n", p.CorrespondenceInitID, p.CorrespondentName)
			}
			return nil
		},
	}
}

func confirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm [request-id]",
		Short: "Confirm an answered request (initiator side)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sessionClient()
			if err != nil {
				return err
			}

			pending, err := c.PendingFilled(cmd.Context())
			if err != nil {
				return err
			}

			for _, p := range pending {
				if p.CorrespondenceInitID == args[0] {
					if err := c.AcceptFilled(cmd.Context(), p); err != nil {
						return err
					}
					fmt.Printf("Confirmed %s. Waiting for their final acceptance.\n", p.CorrespondentName)
					return nil
				}
			}
			return fmt.Errorf("no pending request %q", args[0])
		},
	}
}

func incomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "incoming",
		Short: "List handshakes waiting for your final acceptance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sessionClient()
			if err != nil {
				return err
			}

			pending, err := c.PendingFullyFilled(cmd.Context())
			if err != nil {
				return err
			}

			if len(pending) == 0 {
				fmt.Println("Nothing to accept.")
				return nil
			}
			for _, p := range pending {
				fmt.Printf("%s\t%s\n", p.CorrespondenceInitID, p.CorrespondentName)
			}
			return nil
		},
	}
}

func acceptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accept [request-id]",
		Short: "Finalize a handshake (target side)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sessionClient()
			if err != nil {
				return err
			}

			if err := c.Accept(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Println("Correspondence established.")
			return nil
		},
	}
}
