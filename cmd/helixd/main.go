package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helix-kb/helix/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "helixd",
		Short: "Helix daemon and CLI",
		Long:  "Helix daemon for running the knowledge-base API server and maintenance commands",
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.AuditCmd())
	rootCmd.AddCommand(cli.ReindexCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
