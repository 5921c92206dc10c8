package main

import (
	"fmt"
	"os"

	"github.com/crucial707/itam/cmd/cli/assets"
	"github.com/crucial707/itam/cmd/cli/emails"
	"github.com/crucial707/itam/cmd/cli/root"
	"github.com/crucial707/itam/cmd/cli/tickets"
)

func main() {
	rootCmd := root.GetRoot()
	assets.InitAssets(rootCmd)
	tickets.InitTickets(rootCmd)
	emails.InitEmails(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
