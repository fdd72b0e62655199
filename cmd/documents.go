package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List reference documents",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := newClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		docs, err := client.ListDocuments(context.Background(), true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if len(docs) == 0 {
			fmt.Println("No documents found.")
			return
		}

		for _, doc := range docs {
			fmt.Printf("%6d  %-40s  %-16s  %s\n",
				doc.ID, doc.Title, doc.Category, doc.UpdatedAt.Format("2006-01-02"))
		}
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a document to the platform",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]
		file, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()

		client, _, err := newClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		progress := func(sent, total int64) {
			if total > 0 {
				fmt.Printf("\ruploading %s: %3d%%", filepath.Base(path), sent*100/total)
			}
		}

		uploaded, err := client.UploadDocument(context.Background(), filepath.Base(path), file, progress)
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Uploaded %q as document %d\n", uploaded.Title, uploaded.ID)
	},
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(uploadCmd)
}
