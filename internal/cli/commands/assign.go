package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewAssignCommand creates the assign command.
func NewAssignCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <user-id> <group-id>",
		Short: "Add a user to a group",
		Long: `Add a user to a group by inserting a row into the user/group junction
table. Assigning an existing membership is a no-op when the junction table
has a unique index on (user_id, rel_id).`,
		Example: `  userdb assign 7 3`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMembership(cmd, args, true)
		},
	}
}

// NewRevokeCommand creates the revoke command.
func NewRevokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "revoke <user-id> <group-id>",
		Short:   "Remove a user from a group",
		Long:    `Remove a user from a group by deleting its user/group junction row.`,
		Example: `  userdb revoke 7 3`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMembership(cmd, args, false)
		},
	}
}

func runMembership(cmd *cobra.Command, args []string, assign bool) error {
	userID, err := parseID("user id", args[0])
	if err != nil {
		return err
	}
	groupID, err := parseID("group id", args[1])
	if err != nil {
		return err
	}
	s, err := OpenSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	groups := s.DB.UserGroups(userID)
	op := groups.Revoke
	if assign {
		op = groups.Assign
	}
	res, err := op(s.Context(cmd.Context()), groupID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) affected\n", n)
	return nil
}
