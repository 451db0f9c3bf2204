// Package cli provides the command-line interface for userdb.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/userdb/internal/cli/commands"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "userdb",
		Short: "userdb - users, groups and emails over SQL",
		Long: `userdb reads and writes the users domain (users, types, groups and
emails) of a MySQL or SQLite database, and hashes and verifies PBKDF2
password records.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return commands.LoadConfig(cmd, cfgFile)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./userdb.yaml)")
	rootCmd.PersistentFlags().String("dialect", "", "Database dialect (mysql|sqlite)")
	rootCmd.PersistentFlags().String("dsn", "", "Data source name")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every statement")

	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"mysql", "sqlite"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit))
	rootCmd.AddCommand(commands.NewHashCommand())
	rootCmd.AddCommand(commands.NewVerifyCommand())
	rootCmd.AddCommand(commands.NewCountCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewGetCommand())
	rootCmd.AddCommand(commands.NewAssignCommand())
	rootCmd.AddCommand(commands.NewRevokeCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
