package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "List and manage saved conversations",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := newClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		list, err := client.ListConversations(context.Background(), limit, offset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(list.Conversations) == 0 {
			fmt.Println("No conversations yet.")
			return
		}

		for _, conv := range list.Conversations {
			title := "(untitled)"
			if conv.Title != nil && *conv.Title != "" {
				title = *conv.Title
			}
			last := conv.CreatedAt
			if conv.LastMessageAt != nil {
				last = *conv.LastMessageAt
			}
			fmt.Printf("%6d  %-40s  %3d messages  %s\n",
				conv.ConversationID, title, conv.MessageCount, last.Format("2006-01-02 15:04"))
		}
		fmt.Printf("\n%d of %d conversations\n", len(list.Conversations), list.Total)
	},
}

var deleteConversationCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a conversation and its messages",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid conversation id %q\n", args[0])
			os.Exit(1)
		}

		client, _, err := newClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if err := client.DeleteConversation(context.Background(), id); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted conversation %d\n", id)
	},
}

var renameConversationCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a conversation",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid conversation id %q\n", args[0])
			os.Exit(1)
		}
		title := strings.Join(args[1:], " ")

		client, _, err := newClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		summary, err := client.UpdateConversationTitle(context.Background(), id, title)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if summary.Title != nil {
			fmt.Printf("Renamed conversation %d to %q\n", id, *summary.Title)
		}
	},
}

func init() {
	conversationsCmd.Flags().Int("limit", 20, "maximum conversations to list")
	conversationsCmd.Flags().Int("offset", 0, "pagination offset")

	conversationsCmd.AddCommand(deleteConversationCmd)
	conversationsCmd.AddCommand(renameConversationCmd)
	rootCmd.AddCommand(conversationsCmd)
}
