package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marchholm/sage/pkg/api"
)

// askCmd sends one message over the non-streaming endpoint and prints the
// full response. Useful for scripting; the TUI is the interactive path.
var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask the assistant a single question without entering the TUI",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		message := strings.Join(args, " ")

		client, cfg, err := newClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		req := api.ChatMessageCreate{
			Message: message,
			Context: map[string]any{"model": cfg.Chat.Model},
		}
		if conversationID, _ := cmd.Flags().GetInt64("conversation"); conversationID > 0 {
			req.ConversationID = &conversationID
		}

		record, err := client.SendChat(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if record.Response != nil {
			fmt.Println(*record.Response)
		}
		if record.ConversationID != nil {
			fmt.Fprintf(os.Stderr, "\n(conversation %d)\n", *record.ConversationID)
		}
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent exchanges",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := newClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		var conversationID *int64
		if id, _ := cmd.Flags().GetInt64("conversation"); id > 0 {
			conversationID = &id
		}

		history, err := client.GetHistory(context.Background(), limit, conversationID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		for _, record := range history.Messages {
			fmt.Printf("[%s] you: %s\n", record.CreatedAt.Format("2006-01-02 15:04"), record.Message)
			if record.Response != nil {
				fmt.Printf("    sage: %s\n", *record.Response)
			}
		}
	},
}

func init() {
	askCmd.Flags().Int64("conversation", 0, "continue an existing conversation")

	historyCmd.Flags().Int("limit", 10, "maximum exchanges to show")
	historyCmd.Flags().Int64("conversation", 0, "scope to one conversation")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(historyCmd)
}
