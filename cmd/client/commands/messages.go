package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func correspondentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "correspondents",
		Short: "List established correspondences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sessionClient()
			if err != nil {
				return err
			}

			list, err := c.Correspondents(cmd.Context())
			if err != nil {
				return err
			}

			if len(list) == 0 {
				fmt.Println("No correspondents yet.")
				return nil
			}
			for _, e := range list {
				role := "target"
				if e.IsInitiator {
					role = "initiator"
				}
				fmt.Printf("%s\t%s\t%s\t%s\n", e.ID, e.Name, e.ServerURL, role)
			}
			return nil
		},
	}
}

func sendCmd() *cobra.Command {
	var (
		exchangeID string
		title      string
		category   string
		important  bool
	)

	cmd := &cobra.Command{
		Use:   "send [correspondent-id] [body]",
		Short: "Send an encrypted message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sessionClient()
			if err != nil {
				return err
			}

			id, err := c.SendMessage(cmd.Context(), args[0], exchangeID, important, title, category, args[1])
			if err != nil {
				return err
			}

			fmt.Printf("Sent. Exchange %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&exchangeID, "exchange", "", "continue an existing exchange")
	cmd.Flags().StringVar(&title, "title", "", "message title")
	cmd.Flags().StringVar(&category, "category", "", "message category")
	cmd.Flags().BoolVar(&important, "important", false, "mark as important")
	return cmd
}

func messagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "List messages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sessionClient()
			if err != nil {
				return err
			}

			msgs, err := c.Messages(cmd.Context())
			if err != nil {
				return err
			}

			if len(msgs) == 0 {
				fmt.Println("No messages.")
				return nil
			}
			for _, m := range msgs {
				marker := " "
				if m.IsImportant {
					marker = "!"
				}
				fmt.Printf("%s %s\t[%s] %s: %s\n", marker, m.CreatedAt.Format("2006-01-02 15:04"), m.Category, m.Title, m.Body)
			}
			return nil
		},
	}
}
