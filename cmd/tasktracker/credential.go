package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nhle/task-tracker/internal/credential"
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage stored secrets",
}

var credentialSetCmd = &cobra.Command{
	Use:   "set [name]",
	Short: "Store a secret in the system keyring",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCredentialSet,
}

var credentialDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Remove a secret from the system keyring",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCredentialDelete,
}

func init() {
	credentialCmd.AddCommand(credentialSetCmd, credentialDeleteCmd)
}

func credentialName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return credential.ScannerKeyName
}

func runCredentialSet(cmd *cobra.Command, args []string) error {
	name := credentialName(args)

	fmt.Printf("Value for %q: ", name)
	value, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading secret: %w", err)
	}

	if err := credential.Set(name, string(value)); err != nil {
		return err
	}
	fmt.Printf("Stored %q\n", name)
	return nil
}

func runCredentialDelete(cmd *cobra.Command, args []string) error {
	name := credentialName(args)
	if err := credential.Delete(name); err != nil {
		return err
	}
	fmt.Printf("Deleted %q\n", name)
	return nil
}
