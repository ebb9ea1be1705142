package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillbase/quillbase/internal/cli"
	"github.com/quillbase/quillbase/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quillbased",
		Short: "Quillbase daemon and CLI",
		Long:  "Quillbase daemon for running the knowledge base API server, ingesting documents, and managing API keys",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.APIKeyCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
