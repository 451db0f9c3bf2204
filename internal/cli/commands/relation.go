package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/userdb"
	"github.com/syssam/userdb/dialect/sql"
)

var relationNames = []string{userdb.UsersRelation, userdb.TypesRelation, userdb.GroupsRelation, userdb.EmailsRelation}

func completeRelations(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return relationNames, cobra.ShellCompDirectiveNoFileComp
}

// scope selects the relation a count or list runs against.
type scope struct {
	user  int64 // groups or emails of one user
	group int64 // users of one group
}

func (s *scope) addFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&s.user, "user", 0, "Restrict groups or emails to the given user id")
	cmd.Flags().Int64Var(&s.group, "group", 0, "Restrict users to the members of the given group id")
}

func (s *scope) validate(relation string) error {
	if s.user != 0 && s.group != 0 {
		return fmt.Errorf("--user and --group are mutually exclusive")
	}
	if s.user != 0 && relation != userdb.GroupsRelation && relation != userdb.EmailsRelation {
		return fmt.Errorf("--user applies to %s and %s only", userdb.GroupsRelation, userdb.EmailsRelation)
	}
	if s.group != 0 && relation != userdb.UsersRelation {
		return fmt.Errorf("--group applies to %s only", userdb.UsersRelation)
	}
	return nil
}

func lookupRelation(db *userdb.Database, name string) (*userdb.Relation, error) {
	rel, ok := db.Relation(name)
	if !ok {
		return nil, fmt.Errorf("unknown relation %q (expected one of %s)", name, strings.Join(relationNames, ", "))
	}
	return rel, nil
}

// readOptions binds the list flags to sql.Options.
type readOptions struct {
	attributes []string
	filter     string
	sortBy     string
	order      string
	start      uint64
	count      uint64
}

func (o *readOptions) addFlags(cmd *cobra.Command, withPaging bool) {
	cmd.Flags().StringVar(&o.filter, "filter", "", "Raw SQL predicate appended to the WHERE clause (not escaped)")
	if !withPaging {
		return
	}
	cmd.Flags().StringSliceVar(&o.attributes, "attributes", nil, "Columns to select (default all)")
	cmd.Flags().StringVar(&o.sortBy, "sort-by", "", "Column to sort by")
	cmd.Flags().StringVar(&o.order, "order", sql.OrderAsc, "Sort order (asc|desc)")
	cmd.Flags().Uint64Var(&o.start, "start", 0, "Number of rows to skip")
	cmd.Flags().Uint64Var(&o.count, "count", 0, "Maximum number of rows to return")
}

func (o *readOptions) options(cmd *cobra.Command) userdb.Options {
	opts := userdb.Options{
		Attributes: o.attributes,
		Filter:     sql.Raw(o.filter),
		SortBy:     o.sortBy,
		SortOrder:  o.order,
	}
	if cmd.Flags().Changed("start") {
		opts.StartIndex = sql.Offset(o.start)
	}
	if cmd.Flags().Changed("count") {
		opts.Count = sql.Limit(o.count)
	}
	return opts
}

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	var (
		sc scope
		ro readOptions
	)
	cmd := &cobra.Command{
		Use:   "count <relation>",
		Short: "Count the rows of a relation",
		Long: `Count the rows of users, types, groups or emails.

With --user, count the groups or emails of one user. With --group, count
the members of one group.`,
		Example: `  userdb count users
  userdb count users --filter "name LIKE 'a%'"
  userdb count groups --user 7
  userdb count users --group 3`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeRelations,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sc.validate(args[0]); err != nil {
				return err
			}
			s, err := OpenSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := runCount(s.Context(cmd.Context()), s.DB, args[0], sc, ro.options(cmd))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	sc.addFlags(cmd)
	ro.addFlags(cmd, false)
	return cmd
}

func runCount(ctx context.Context, db *userdb.Database, relation string, sc scope, opts userdb.Options) (int64, error) {
	switch {
	case sc.user != 0 && relation == userdb.GroupsRelation:
		return db.UserGroups(sc.user).Count(ctx)
	case sc.user != 0:
		return db.UserEmails(sc.user).Count(ctx)
	case sc.group != 0:
		return db.Groups().CountOwners(ctx, sc.group, opts)
	}
	rel, err := lookupRelation(db, relation)
	if err != nil {
		return 0, err
	}
	return rel.Count(ctx, opts)
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		sc scope
		ro readOptions
	)
	cmd := &cobra.Command{
		Use:   "list <relation>",
		Short: "List the rows of a relation as JSON",
		Long: `List the rows of users, types, groups or emails as a JSON array of
mapped objects.

With --user, list the groups or emails of one user. With --group, list the
members of one group. Joined statements alias the target table as "t" for
groups of a user and the owner table as "users" for members of a group;
qualify --filter and --sort-by columns with the alias when they are
ambiguous.`,
		Example: `  userdb list users --sort-by name --order desc --count 10
  userdb list users --start 20 --count 10 --attributes id,name
  userdb list emails --user 7
  userdb list users --group 3 --filter "users.active = 1"`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeRelations,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sc.validate(args[0]); err != nil {
				return err
			}
			s, err := OpenSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			rows, err := runList(s.Context(cmd.Context()), s.DB, args[0], sc, ro.options(cmd))
			if err != nil {
				return err
			}
			if rows == nil {
				rows = []userdb.Object{}
			}
			return writeJSON(cmd.OutOrStdout(), rows)
		},
	}
	sc.addFlags(cmd)
	ro.addFlags(cmd, true)
	_ = cmd.RegisterFlagCompletionFunc("order", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{sql.OrderAsc, sql.OrderDesc}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runList(ctx context.Context, db *userdb.Database, relation string, sc scope, opts userdb.Options) ([]userdb.Object, error) {
	switch {
	case sc.user != 0 && relation == userdb.GroupsRelation:
		return db.UserGroups(sc.user).All(ctx, opts)
	case sc.user != 0:
		return db.UserEmails(sc.user).All(ctx, opts)
	case sc.group != 0:
		return db.Groups().ListOwners(ctx, sc.group, opts)
	}
	rel, err := lookupRelation(db, relation)
	if err != nil {
		return nil, err
	}
	return rel.All(ctx, opts)
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var attributes []string
	cmd := &cobra.Command{
		Use:   "get <relation> <id>",
		Short: "Print one row of a relation as JSON",
		Long: `Print the row with the given id as a mapped JSON object. A missing row
prints an empty object.`,
		Example: `  userdb get users 7
  userdb get groups 3 --attributes id,name`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeRelations,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("id", args[1])
			if err != nil {
				return err
			}
			s, err := OpenSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			rel, err := lookupRelation(s.DB, args[0])
			if err != nil {
				return err
			}
			obj, err := rel.GetByID(s.Context(cmd.Context()), id, userdb.Options{Attributes: attributes})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), obj)
		},
	}
	cmd.Flags().StringSliceVar(&attributes, "attributes", nil, "Columns to select (default all)")
	return cmd
}
