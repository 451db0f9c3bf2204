package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/userdb/credential"
)

func newHasher(cmd *cobra.Command) (*credential.Hasher, error) {
	cfg, err := GetConfig(cmd)
	if err != nil {
		return nil, err
	}
	return credential.New(cfg.Hasher)
}

// NewHashCommand creates the hash command.
func NewHashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Generate a PBKDF2 password record",
		Long: `Generate a salted PBKDF2 password record of the form

  PBKDF2$<algorithm>$<iterations>$<salt>$<hash>

using the hasher settings from the configuration.`,
		Example: `  # Hash with the configured settings
  userdb hash s3cret

  # Hash with more iterations
  USERDB_HASHER__ITERATIONS=100000 userdb hash s3cret`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHasher(cmd)
			if err != nil {
				return err
			}
			record, err := h.Generate(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), record)
			return nil
		},
	}
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <password> <record>",
		Short: "Check a password against a PBKDF2 record",
		Long: `Check a password against a PBKDF2 record. The algorithm, iterations and
salt are read from the record. Exits with an error on a mismatch.`,
		Example: `  userdb verify s3cret 'PBKDF2$sha256$901$...$...'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := newHasher(cmd)
			if err != nil {
				return err
			}
			ok, err := h.Verify(args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("password does not match")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
